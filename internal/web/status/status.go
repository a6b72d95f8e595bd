package status

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"kestrel.dev/gnssrelay/internal/service"
	"kestrel.dev/gnssrelay/internal/util"
)

// StatusServer exposes a read-only view of the client: connection state
// and the last known location. It is the headless stand-in for the status
// UI and serves no control surface.
type StatusServer struct {
	svc    *service.Service
	server *http.Server
	log    zerolog.Logger
}

type StatusConfig struct {
	ListenAddr string
}

type statusResponse struct {
	State            string   `json:"state"`
	ServerAddress    string   `json:"server_address,omitempty"`
	LastUpdateAgeSec *float64 `json:"last_update_age_seconds,omitempty"`
}

type locationResponse struct {
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	Altitude    float64   `json:"altitude"`
	Accuracy    float32   `json:"accuracy"`
	Bearing     float32   `json:"bearing"`
	Speed       float32   `json:"speed"`
	Satellites  int32     `json:"satellites"`
	Provider    string    `json:"provider"`
	LocationAge float32   `json:"location_age"`
	Timestamp   int64     `json:"timestamp"`
	ReceivedAt  time.Time `json:"received_at"`
}

func NewStatusServer(svc *service.Service, config *StatusConfig, logger zerolog.Logger) *StatusServer {
	s := &StatusServer{svc: svc}
	s.log = logger.With().Str("module", "status-api").Logger()
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/status", s.getStatus)
	r.Get("/location", s.getLocation)
	s.server = &http.Server{
		Addr:         config.ListenAddr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s
}

func (s *StatusServer) Run() {
	s.log.Info().Str("addr", s.server.Addr).Msg("starting status api")
	err := s.server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		s.log.Error().Err(err).Msg("status api stopped")
	}
}

func (s *StatusServer) Close() {
	_ = s.server.Close()
}

// GetHandler is used by tests to drive the router without a listener.
func (s *StatusServer) GetHandler() http.Handler {
	return s.server.Handler
}

func (s *StatusServer) getStatus(w http.ResponseWriter, r *http.Request) {
	res := statusResponse{State: s.svc.ConnectionState().String(), ServerAddress: s.svc.ServerAddress()}
	if age, ok := s.svc.LastUpdateAge(); ok {
		sec := age.Seconds()
		res.LastUpdateAgeSec = &sec
	}
	util.JsonWrite(w, res)
}

func (s *StatusServer) getLocation(w http.ResponseWriter, r *http.Request) {
	rec, received, ok := s.svc.Snapshot()
	if !ok {
		http.Error(w, "no location received yet", http.StatusNotFound)
		return
	}
	util.JsonWrite(w, locationResponse{
		Latitude:    rec.Latitude,
		Longitude:   rec.Longitude,
		Altitude:    rec.Altitude,
		Accuracy:    rec.Accuracy,
		Bearing:     rec.Bearing,
		Speed:       rec.Speed,
		Satellites:  rec.Satellites,
		Provider:    rec.Provider,
		LocationAge: rec.LocationAge,
		Timestamp:   rec.Timestamp,
		ReceivedAt:  received,
	})
}
