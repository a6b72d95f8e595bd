package wc

import (
	"bufio"
	"net"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Conn wraps one dialed socket for the lifetime of a single session. The
// stream reader is the only reader; Close may be called from any goroutine
// and is the one reliable way to unblock a pending read.
type Conn struct {
	reader  *bufio.Reader
	conn    net.Conn
	closed  uint32
	raddr   string
	sid     string
	created time.Time
	byte_in uint64
	logger  zerolog.Logger
}

func NewWrappedConn(conn net.Conn, raddr string, logger zerolog.Logger) *Conn {
	o := &Conn{reader: bufio.NewReader(conn), conn: conn, raddr: raddr}
	o.sid = uuid.NewString()
	o.created = time.Now()
	o.logger = logger.With().Str("module", "wconn").Str("sid", o.sid).Logger()
	o.logger.Debug().Str("remote_address", o.raddr).Msg("connection created")
	return o
}

func (c *Conn) Read(p []byte) (int, error) {
	n, err := c.reader.Read(p)
	atomic.AddUint64(&c.byte_in, uint64(n))
	return n, err
}

func (c *Conn) Close() {
	if !atomic.CompareAndSwapUint32(&c.closed, 0, 1) {
		return
	}
	c.conn.Close()
	c.logger.Debug().Uint64("byte_in", atomic.LoadUint64(&c.byte_in)).Msg("connection closed")
}

func (c *Conn) Closed() bool {
	return atomic.LoadUint32(&c.closed) == 1
}

func (c *Conn) Stat() (byte_in uint64) {
	return atomic.LoadUint64(&c.byte_in)
}

func (c *Conn) Sid() string {
	return c.sid
}

func (c *Conn) RemoteAddr() string {
	return c.raddr
}

func (c *Conn) Created() time.Time {
	return c.created
}
