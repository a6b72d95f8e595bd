package mock

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mustafaturan/bus/v3"
	"github.com/phuslu/log"

	"kestrel.dev/gnssrelay/internal/event"
	"kestrel.dev/gnssrelay/internal/location"
)

const DefaultGracefulTimeout = 5 * time.Second

// Coordinator keeps the mock location sink in lockstep with connection
// state. Sink failures degrade to status events; the protocol path never
// sees them. Graceful stops drain on a worker under a stop generation: a
// session established before the drain runs bumps the generation and
// keeps the provider, so a connected session is never left with its sink
// stopped.
type Coordinator struct {
	logger  log.Logger
	bus     *bus.Bus
	sink    Sink
	timeout time.Duration

	mu      sync.Mutex
	started bool
	shut    bool
	stopGen uint64
}

func NewCoordinator(sink Sink, b *bus.Bus, timeout time.Duration, logger log.Logger) *Coordinator {
	if timeout == 0 {
		timeout = DefaultGracefulTimeout
	}
	o := &Coordinator{sink: sink, bus: b, timeout: timeout}
	o.logger = logger
	o.logger.Context = log.NewContext(nil).Str("module", "mock").Value()
	return o
}

// OnConnectionEstablished starts the sink once for the new session.
// Permission and setup failures leave the coordinator in degraded mode:
// no injection, but decoding continues.
func (c *Coordinator) OnConnectionEstablished() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.shut {
		return
	}
	if c.started {
		// The previous session's graceful stop may still be pending on a
		// worker. The new session takes over the running provider, so the
		// pending stop must not fire against it.
		c.stopGen++
		return
	}
	if !c.sink.CheckEnabled() {
		c.logger.Warn().Msg("mock locations not enabled on host")
		c.status("mock locations disabled - enable them in developer options", true)
	}
	err := c.sink.Start()
	if err != nil {
		switch {
		case errors.Is(err, ErrPermission):
			c.logger.Error().Err(err).Msg("mock location permission denied")
			c.status("mock location permission denied", true)
		default:
			c.logger.Error().Err(err).Msg("error setting up mock provider")
			c.status(fmt.Sprintf("mock provider setup failed: %v", err), true)
		}
		return
	}
	c.started = true
	c.logger.Info().Msg("mock provider started")
}

// OnLocationAccepted implements location.Forwarder.
func (c *Coordinator) OnLocationAccepted(rec location.Record, received time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.started {
		return
	}
	err := c.sink.SetPosition(rec, received)
	if err != nil {
		switch {
		case errors.Is(err, ErrPermission):
			c.logger.Error().Err(err).Msg("mock location permission denied")
			c.status("mock location permission denied", true)
		default:
			c.logger.Error().Err(err).EmbedObject(rec).Msg("error setting mock location")
			c.status(fmt.Sprintf("mock location rejected: %v", err), true)
		}
	}
}

// OnDisconnected decides the stop synchronously and runs the bounded
// graceful drain on a worker so the failed reader thread is not held for
// it. The generation captured here is invalidated by any session
// established before the drain acquires the mutex.
func (c *Coordinator) OnDisconnected() {
	c.mu.Lock()
	if !c.started || c.shut {
		c.mu.Unlock()
		return
	}
	c.stopGen++
	gen := c.stopGen
	c.mu.Unlock()
	go func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.stopGen != gen || !c.started || c.shut {
			return
		}
		c.sink.StopGraceful(c.timeout)
		c.started = false
		c.logger.Info().Msg("mock provider stopped")
	}()
}

// Shutdown stops the sink without draining. Terminal: later session
// starts are ignored.
func (c *Coordinator) Shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.shut = true
	if c.started {
		c.sink.StopImmediate()
		c.started = false
	}
}

func (c *Coordinator) status(msg string, isErr bool) {
	event.Emit(c.bus, event.TopicMockStatus, Status{Message: msg, Error: isErr})
}
