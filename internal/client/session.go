package client

import (
	"sync"
	"sync/atomic"

	"kestrel.dev/gnssrelay/internal/wc"
)

// session is one attempt to reach one server address. It never outlives a
// single physical connection: the socket is owned by the session's reader
// goroutine and closing it is the one reliable way to unblock a pending
// read. gotFirst is only touched by that reader.
type session struct {
	addr     string
	stop     uint32
	gotFirst bool

	mu sync.Mutex
	c  *wc.Conn
}

func newSession(addr string) *session {
	return &session{addr: addr}
}

func (s *session) stopped() bool {
	return atomic.LoadUint32(&s.stop) == 1
}

// abort flags the session stopped and closes its socket if one is
// attached yet. Safe to call from any goroutine, any number of times.
func (s *session) abort() {
	atomic.StoreUint32(&s.stop, 1)
	s.mu.Lock()
	c := s.c
	s.mu.Unlock()
	if c != nil {
		c.Close()
	}
}

// attach hands the dialed socket to the session. Returns false when the
// session was aborted while the dial was in flight; the caller must close
// the socket itself in that case.
func (s *session) attach(c *wc.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped() {
		return false
	}
	s.c = c
	return true
}
