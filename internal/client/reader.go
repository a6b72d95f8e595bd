package client

import (
	"net"
	"sync/atomic"
	"time"

	"kestrel.dev/gnssrelay/internal/wc"
	"kestrel.dev/gnssrelay/internal/wire"
)

// runSession dials and then reads frames until the stream fails or the
// session is aborted. Whatever the exit path, the manager is notified
// exactly once and never retried from here: recovery is always a
// scheduled reconnect.
func (m *Manager) runSession(sess *session) {
	// Exactly one reader may be active. A fast reconnect must wait for
	// the previous reader to fully exit before touching the wire.
	for !atomic.CompareAndSwapUint32(&m.receiving, 0, 1) {
		if sess.stopped() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	defer atomic.StoreUint32(&m.receiving, 0)

	if sess.stopped() {
		return
	}
	raw, err := net.DialTimeout("tcp", sess.addr, m.config.DialTimeout)
	if err != nil {
		m.logger.Error().Err(err).Str("server", sess.addr).Msg("dial failed")
		m.streamEnded(sess, "connection failed - attempting to reconnect...")
		return
	}
	c := wc.NewWrappedConn(raw, sess.addr, m.zlogger)
	if !sess.attach(c) {
		// aborted while the dial was in flight
		c.Close()
		return
	}
	m.readLoop(sess, c)
	c.Close()
	m.streamEnded(sess, "connection lost - attempting to reconnect...")
}

func (m *Manager) readLoop(sess *session, c *wc.Conn) {
	msg := wire.FrameMessage{Buffer: make([]byte, 4096)}
	resp := wire.ServerResponse{}
	for !sess.stopped() {
		err := wire.ReadMessage(c, &msg)
		if err != nil {
			if !sess.stopped() {
				m.logger.Error().Err(err).Str("sid", c.Sid()).Msg("error reading frame")
			}
			return
		}
		// Malformed payload is fatal to the stream: there is no way to
		// resynchronize inside a length-prefixed pipe we no longer trust.
		err = resp.Unmarshal(msg.Payload)
		if err != nil {
			m.logger.Error().Err(err).Str("sid", c.Sid()).Msg("error decoding response")
			return
		}
		if sess.stopped() {
			return
		}
		if !sess.gotFirst {
			sess.gotFirst = true
			m.promote(sess)
		}
		m.sink.HandleResponse(&resp)
	}
}

// promote moves CONNECTING to CONNECTED on the first decoded frame of the
// session. A socket that opens but never sends data stays CONNECTING.
func (m *Manager) promote(sess *session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session != sess || m.state != StateConnecting {
		return
	}
	m.backoff = 0
	m.setState(StateConnected, "received first server response")
}

// streamEnded runs on reader exit. The session identity check makes the
// disconnect transition and its reconnect schedule fire exactly once even
// when an explicit teardown races the failing reader.
func (m *Manager) streamEnded(sess *session, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session != sess {
		return
	}
	m.session = nil
	if m.shut {
		return
	}
	m.setState(StateDisconnected, reason)
	m.scheduleReconnectLocked()
}
