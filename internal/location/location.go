package location

import (
	"sync"
	"time"

	"github.com/mustafaturan/bus/v3"
	"github.com/phuslu/log"

	"kestrel.dev/gnssrelay/internal/event"
	"kestrel.dev/gnssrelay/internal/wire"
)

// Record is one normalized position as received from the server.
type Record struct {
	Latitude    float64
	Longitude   float64
	Altitude    float64
	Accuracy    float32
	Bearing     float32
	Speed       float32
	Satellites  int32
	Provider    string
	LocationAge float32
	Timestamp   int64 // server epoch millis
}

func (r Record) MarshalObject(e *log.Entry) {
	e.Float64("lat", r.Latitude).Float64("lon", r.Longitude).Int32("sat", r.Satellites).Str("provider", r.Provider)
}

// Update is the payload published on event.TopicLocationUpdate.
type Update struct {
	Record     Record
	ReceivedAt time.Time
}

// Forwarder receives every accepted record; implemented by the mock
// location coordinator.
type Forwarder interface {
	OnLocationAccepted(rec Record, received time.Time)
}

// Handler turns decoded server responses into snapshot updates. The last
// known record is guarded by its own mutex and always replaced whole, so
// readers never observe a half-written position.
type Handler struct {
	logger log.Logger
	bus    *bus.Bus
	fwd    Forwarder

	last struct {
		mu       sync.Mutex
		rec      Record
		received time.Time
		valid    bool
	}
}

func NewHandler(b *bus.Bus, fwd Forwarder, logger log.Logger) *Handler {
	o := &Handler{bus: b, fwd: fwd}
	o.logger = logger
	o.logger.Context = log.NewContext(nil).Str("module", "location").Value()
	return o
}

// HandleResponse processes one decoded frame. A status-only response is a
// valid heartbeat and leaves the snapshot untouched.
func (h *Handler) HandleResponse(resp *wire.ServerResponse) {
	if resp.HasStatus {
		h.logger.Info().Str("status", resp.Status).Msg("server status")
	}
	if resp.LocationUpdate == nil {
		return
	}

	u := resp.LocationUpdate
	rec := Record{
		Latitude:    u.Latitude,
		Longitude:   u.Longitude,
		Altitude:    u.Altitude,
		Accuracy:    u.Accuracy,
		Bearing:     u.Bearing,
		Speed:       u.Speed,
		Satellites:  u.Satellites,
		Provider:    u.Provider,
		LocationAge: u.LocationAge,
		Timestamp:   u.Timestamp,
	}
	tread := time.Now().UTC()

	h.last.mu.Lock()
	h.last.rec = rec
	h.last.received = tread
	h.last.valid = true
	h.last.mu.Unlock()

	h.logger.Info().EmbedObject(rec).Msg("location update")
	event.Emit(h.bus, event.TopicLocationUpdate, Update{Record: rec, ReceivedAt: tread})
	if h.fwd != nil {
		h.fwd.OnLocationAccepted(rec, tread)
	}
}

// Snapshot returns the last accepted record and its local receipt time.
// ok is false until the first location update of the process lifetime.
func (h *Handler) Snapshot() (rec Record, received time.Time, ok bool) {
	h.last.mu.Lock()
	defer h.last.mu.Unlock()
	return h.last.rec, h.last.received, h.last.valid
}

// Clear drops the snapshot. Called on an explicit stop, never on the
// transient disconnects of the reconnect cycle.
func (h *Handler) Clear() {
	h.last.mu.Lock()
	h.last.rec = Record{}
	h.last.received = time.Time{}
	h.last.valid = false
	h.last.mu.Unlock()
}
