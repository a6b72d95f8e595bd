package mock

import (
	"encoding/json"
	"os"
	"sync"
	"time"

	"kestrel.dev/gnssrelay/internal/location"
)

// FileSink is the default injection sink of the standalone binary: it
// appends every accepted position as one JSON line, where a platform
// integration would feed the host location subsystem instead. Useful on
// its own for piping positions into gpsd-style consumers.
type FileSink struct {
	path string

	mu      sync.Mutex
	f       *os.File
	enc     *json.Encoder
	started bool
}

type fileSinkRecord struct {
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	Altitude   float64   `json:"altitude"`
	Accuracy   float32   `json:"accuracy"`
	Bearing    float32   `json:"bearing"`
	Speed      float32   `json:"speed"`
	Satellites int32     `json:"satellites"`
	Provider   string    `json:"provider"`
	Timestamp  int64     `json:"timestamp"`
	ReceivedAt time.Time `json:"received_at"`
}

func NewFileSink(path string) *FileSink {
	return &FileSink{path: path}
}

func (s *FileSink) CheckEnabled() bool {
	return true
}

func (s *FileSink) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil
	}
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		if os.IsPermission(err) {
			return ErrPermission
		}
		return ErrSetup
	}
	s.f = f
	s.enc = json.NewEncoder(f)
	s.started = true
	return nil
}

func (s *FileSink) SetPosition(rec location.Record, received time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return ErrRejected
	}
	err := s.enc.Encode(fileSinkRecord{
		Latitude:   rec.Latitude,
		Longitude:  rec.Longitude,
		Altitude:   rec.Altitude,
		Accuracy:   rec.Accuracy,
		Bearing:    rec.Bearing,
		Speed:      rec.Speed,
		Satellites: rec.Satellites,
		Provider:   rec.Provider,
		Timestamp:  rec.Timestamp,
		ReceivedAt: received,
	})
	if err != nil {
		return ErrRejected
	}
	return nil
}

func (s *FileSink) StopGraceful(timeout time.Duration) {
	// Nothing to drain for a file, but honor the contract shape.
	s.StopImmediate()
}

func (s *FileSink) StopImmediate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return
	}
	s.f.Close()
	s.f = nil
	s.enc = nil
	s.started = false
}
