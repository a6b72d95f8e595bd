package service

import (
	"time"

	"github.com/mustafaturan/bus/v3"
	"github.com/phuslu/log"
	"github.com/rs/zerolog"

	"kestrel.dev/gnssrelay/internal/client"
	"kestrel.dev/gnssrelay/internal/config"
	"kestrel.dev/gnssrelay/internal/event"
	"kestrel.dev/gnssrelay/internal/location"
	"kestrel.dev/gnssrelay/internal/mock"
)

// Service is the supervisory context owning the whole client: connection
// manager, location handler and mock coordinator are composed here and
// reached through explicit accessors, never through globals.
type Service struct {
	logger  log.Logger
	cfg     *config.Config
	bus     *bus.Bus
	handler *location.Handler
	coord   *mock.Coordinator
	manager *client.Manager
}

func New(cfg *config.Config, sink mock.Sink, logger log.Logger, zlogger zerolog.Logger) (*Service, error) {
	b, err := event.New()
	if err != nil {
		return nil, err
	}
	s := &Service{cfg: cfg, bus: b}
	s.logger = logger
	s.logger.Context = log.NewContext(nil).Str("module", "service").Value()
	s.coord = mock.NewCoordinator(sink, b, cfg.MockStopTimeout, logger)
	s.handler = location.NewHandler(b, s.coord, logger)
	s.manager = client.NewManager(
		&client.ManagerParam{Bus: b, Sink: s.handler, Hooks: s.coord, Logger: logger, ZLogger: zlogger},
		&client.ManagerConfig{DialTimeout: cfg.DialTimeout, BackoffInitial: cfg.BackoffInitial, BackoffMax: cfg.BackoffMax},
	)
	return s, nil
}

// Bus exposes the event bus so the UI layer can register its observers
// before Run.
func (s *Service) Bus() *bus.Bus {
	return s.bus
}

func (s *Service) Run() error {
	s.logger.Info().Str("server", s.cfg.ServerAddress).Msg("starting gnss relay client")
	return s.manager.Connect(s.cfg.ServerAddress)
}

// Stop is the explicit user-facing stop: the session ends, no reconnect
// stays scheduled and the snapshot is cleared.
func (s *Service) Stop() {
	s.manager.Disconnect("stopped by user")
	s.handler.Clear()
}

// Shutdown tears the client down for process exit. Terminal. The
// coordinator goes first so the final disconnect transition cannot race
// an immediate sink stop with a graceful one.
func (s *Service) Shutdown() {
	s.coord.Shutdown()
	s.manager.Shutdown()
	s.handler.Clear()
	s.logger.Info().Msg("service shut down")
}

func (s *Service) OnNetworkAvailable() {
	s.manager.OnNetworkAvailable()
}

func (s *Service) OnNetworkLost() {
	s.manager.OnNetworkLost()
}

func (s *Service) ConnectionState() client.ConnectionState {
	return s.manager.CurrentState()
}

func (s *Service) ServerAddress() string {
	return s.manager.ServerAddress()
}

func (s *Service) Snapshot() (location.Record, time.Time, bool) {
	return s.handler.Snapshot()
}

// LastUpdateAge reports how long ago the last location update arrived.
// Heartbeat frames do not reset it.
func (s *Service) LastUpdateAge() (time.Duration, bool) {
	_, received, ok := s.handler.Snapshot()
	if !ok {
		return 0, false
	}
	return time.Since(received), true
}
