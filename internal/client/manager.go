package client

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mustafaturan/bus/v3"
	"github.com/phuslu/log"
	"github.com/rs/zerolog"

	"kestrel.dev/gnssrelay/internal/event"
	"kestrel.dev/gnssrelay/internal/wire"
)

// ResponseSink receives every decoded frame; implemented by the location
// handler.
type ResponseSink interface {
	HandleResponse(resp *wire.ServerResponse)
}

// Hooks follow connection state: established fires synchronously inside
// the CONNECTED transition, before the first record of the session is
// dispatched; disconnected fires inside every transition to DISCONNECTED.
// Implemented by the mock location coordinator.
type Hooks interface {
	OnConnectionEstablished()
	OnDisconnected()
}

type ManagerConfig struct {
	DialTimeout    time.Duration
	BackoffInitial time.Duration
	BackoffMax     time.Duration
}

func (c *ManagerConfig) fill() {
	if c.DialTimeout == 0 {
		c.DialTimeout = 5 * time.Second
	}
	if c.BackoffInitial == 0 {
		c.BackoffInitial = time.Second
	}
	if c.BackoffMax == 0 {
		c.BackoffMax = 30 * time.Second
	}
}

type ManagerParam struct {
	Bus     *bus.Bus
	Sink    ResponseSink
	Hooks   Hooks
	Logger  log.Logger
	ZLogger zerolog.Logger
}

var errShutdown = errors.New("manager is shut down")

// Manager owns connection establishment, the reconnect schedule and the
// observable connection state. All transitions happen under mu, in the
// order listeners observe them. The per-session reader goroutine is the
// only component doing blocking I/O; the manager itself never blocks on
// the network.
type Manager struct {
	logger  log.Logger
	zlogger zerolog.Logger
	bus     *bus.Bus
	sink    ResponseSink
	hooks   Hooks
	config  ManagerConfig

	mu        sync.Mutex
	state     ConnectionState
	state32   int32
	addr      string
	addrv     atomic.Value
	session   *session
	rtimer    *time.Timer
	backoff   time.Duration
	shut      bool
	receiving uint32
}

func NewManager(param *ManagerParam, config *ManagerConfig) *Manager {
	m := &Manager{}
	m.logger = param.Logger
	m.logger.Context = log.NewContext(nil).Str("module", "connmgr").Value()
	m.zlogger = param.ZLogger
	m.bus = param.Bus
	m.sink = param.Sink
	m.hooks = param.Hooks
	m.config = *config
	m.config.fill()
	m.state = StateDisconnected
	return m
}

// Connect starts connecting to addr. An active session for a previous
// address is torn down first.
func (m *Manager) Connect(addr string) error {
	if addr == "" {
		return fmt.Errorf("empty server address")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.shut {
		return errShutdown
	}
	if m.session != nil {
		m.session.abort()
		m.session = nil
		m.setState(StateDisconnected, "reconnecting to new address")
	}
	m.cancelReconnectLocked()
	m.addr = addr
	m.addrv.Store(addr)
	m.backoff = 0
	m.startConnectLocked(fmt.Sprintf("connecting to %s", addr))
	return nil
}

// Disconnect tears down the current session. Idempotent: repeated stops
// while idle are no-ops (no transition, no event).
func (m *Manager) Disconnect(reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cancelReconnectLocked()
	if m.session == nil && m.state == StateDisconnected {
		return
	}
	if m.session != nil {
		m.session.abort()
		m.session = nil
	}
	m.setState(StateDisconnected, reason)
}

// ScheduleReconnect arms the reconnect timer. At most one reconnect is
// pending at a time; concurrent failure signals collapse into it.
func (m *Manager) ScheduleReconnect() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scheduleReconnectLocked()
}

// OnNetworkAvailable is the edge-triggered reachability gain signal.
// While disconnected it connects immediately instead of waiting out the
// backoff.
func (m *Manager) OnNetworkAvailable() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.shut || m.addr == "" {
		return
	}
	if m.state != StateDisconnected || m.session != nil {
		return
	}
	m.logger.Info().Msg("network available, connecting")
	m.cancelReconnectLocked()
	m.backoff = 0
	m.startConnectLocked("network available - connecting")
}

// OnNetworkLost forces an immediate disconnect instead of waiting for the
// blocked read to time out. A reconnect stays scheduled so the client
// recovers when the transport returns.
func (m *Manager) OnNetworkLost() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.shut || m.session == nil {
		return
	}
	m.logger.Warn().Msg("network lost")
	m.session.abort()
	m.session = nil
	m.setState(StateDisconnected, "network lost")
	m.scheduleReconnectLocked()
}

func (m *Manager) IsConnected() bool {
	return m.CurrentState() == StateConnected
}

// CurrentState is safe to call from any goroutine.
func (m *Manager) CurrentState() ConnectionState {
	return ConnectionState(atomic.LoadInt32(&m.state32))
}

// ServerAddress is safe to call from any goroutine, including bus
// handlers running inside a state transition.
func (m *Manager) ServerAddress() string {
	addr, _ := m.addrv.Load().(string)
	return addr
}

// Shutdown is terminal: it cancels any pending reconnect, closes the
// session and forbids every later transition.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.shut {
		return
	}
	m.cancelReconnectLocked()
	if m.session != nil {
		m.session.abort()
		m.session = nil
	}
	if m.state != StateDisconnected {
		m.setState(StateDisconnected, "shutting down")
	}
	m.shut = true
	m.logger.Info().Msg("connection manager shut down")
}

// setState must be called with mu held. It records the transition, then
// invokes the synchronous observers: hooks and the event bus, in that
// order. Observers must keep within a bounded housekeeping budget; UI
// dispatch is async on the observer's side. Handlers may read
// CurrentState and ServerAddress but must not call back into the
// mutating manager methods, which take mu.
func (m *Manager) setState(state ConnectionState, message string) {
	m.state = state
	atomic.StoreInt32(&m.state32, int32(state))
	m.logger.Info().Str("state", state.String()).Str("server", m.addr).Msg(message)
	if m.hooks != nil {
		switch state {
		case StateConnected:
			m.hooks.OnConnectionEstablished()
		case StateDisconnected:
			m.hooks.OnDisconnected()
		}
	}
	event.Emit(m.bus, event.TopicConnectionState, StateChange{State: state, Message: message, ServerAddress: m.addr})
}

func (m *Manager) startConnectLocked(message string) {
	sess := newSession(m.addr)
	m.session = sess
	m.setState(StateConnecting, message)
	go m.runSession(sess)
}

func (m *Manager) scheduleReconnectLocked() {
	if m.shut || m.rtimer != nil || m.addr == "" {
		return
	}
	delay := m.nextBackoffLocked()
	m.logger.Info().Dur("delay", delay).Msg("reconnect scheduled")
	m.rtimer = time.AfterFunc(delay, m.reconnectFired)
}

func (m *Manager) reconnectFired() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rtimer = nil
	if m.shut || m.session != nil || m.state != StateDisconnected || m.addr == "" {
		return
	}
	m.startConnectLocked(fmt.Sprintf("reconnecting to %s", m.addr))
}

func (m *Manager) cancelReconnectLocked() {
	if m.rtimer != nil {
		m.rtimer.Stop()
		m.rtimer = nil
	}
}

// nextBackoffLocked doubles the delay up to the cap and spreads it with
// +/-10% jitter. Reset to the initial value on a successful CONNECTED
// promotion.
func (m *Manager) nextBackoffLocked() time.Duration {
	if m.backoff == 0 {
		m.backoff = m.config.BackoffInitial
	} else {
		m.backoff = m.backoff * 2
		if m.backoff > m.config.BackoffMax {
			m.backoff = m.config.BackoffMax
		}
	}
	jitter := time.Duration(rand.Int63n(int64(m.backoff)/5+1)) - m.backoff/10
	return m.backoff + jitter
}
