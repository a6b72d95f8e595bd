package mock

import (
	"errors"
	"time"

	"kestrel.dev/gnssrelay/internal/location"
)

// Sink is the host mechanism that makes the device report received
// coordinates as its own position. Implementations live outside this
// module; the coordinator only drives their lifecycle.
type Sink interface {
	// CheckEnabled reports whether the host currently permits mock
	// locations at all.
	CheckEnabled() bool

	// Start registers the mock provider. Fails with ErrPermission or
	// ErrSetup.
	Start() error

	// SetPosition pushes one record. Fails with ErrPermission or
	// ErrRejected. Must not be called before a successful Start.
	SetPosition(rec location.Record, received time.Time) error

	// StopGraceful lets consumers settle before tearing the provider
	// down, bounded by timeout.
	StopGraceful(timeout time.Duration)

	// StopImmediate tears the provider down without draining.
	StopImmediate()
}

var (
	ErrPermission = errors.New("mock location permission denied")
	ErrSetup      = errors.New("mock provider setup failed")
	ErrRejected   = errors.New("mock location rejected")
)

// Status is the payload published on event.TopicMockStatus.
type Status struct {
	Message string
	Error   bool
}
