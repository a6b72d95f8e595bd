package client

// ConnectionState is the observable state of the manager. Transitions are
// totally ordered: they are only ever made under the manager's mutex.
type ConnectionState int32

const (
	StateDisconnected ConnectionState = iota
	StateConnecting
	StateConnected
)

func (s ConnectionState) String() string {
	switch s {
	case StateDisconnected:
		return "DISCONNECTED"
	case StateConnecting:
		return "CONNECTING"
	case StateConnected:
		return "CONNECTED"
	default:
		return "UNKNOWN"
	}
}

// StateChange is the payload published on event.TopicConnectionState.
type StateChange struct {
	State         ConnectionState
	Message       string
	ServerAddress string
}
