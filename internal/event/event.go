package event

import (
	"context"

	"github.com/mustafaturan/bus/v3"
	"github.com/mustafaturan/monoton/v2"
	"github.com/mustafaturan/monoton/v2/sequencer"
)

// Topics observed by the UI layer. Handlers registered on a topic are
// invoked synchronously on Emit, in registration order, so observers see
// transitions exactly as they were made.
const (
	TopicConnectionState = "connection.state"
	TopicLocationUpdate  = "location.update"
	TopicMockStatus      = "mock.status"
)

func New() (*bus.Bus, error) {
	m, err := monoton.New(sequencer.NewMillisecond(), 1, 0)
	if err != nil {
		return nil, err
	}
	var idGenerator bus.Next = m.Next
	b, err := bus.NewBus(idGenerator)
	if err != nil {
		return nil, err
	}
	b.RegisterTopics(TopicConnectionState, TopicLocationUpdate, TopicMockStatus)
	return b, nil
}

// Emit publishes data on topic, dropping the error: a missing observer is
// never allowed to disturb the protocol path.
func Emit(b *bus.Bus, topic string, data interface{}) {
	if b == nil {
		return
	}
	_ = b.Emit(context.Background(), topic, data)
}
