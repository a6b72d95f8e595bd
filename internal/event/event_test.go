package event

import (
	"context"
	"testing"

	"github.com/mustafaturan/bus/v3"
)

func TestEmitDeliversInOrder(t *testing.T) {
	b, err := New()
	if err != nil {
		t.Fatal(err)
	}
	var got []interface{}
	b.RegisterHandler("test-observer", bus.Handler{
		Matcher: TopicConnectionState,
		Handle: func(ctx context.Context, e bus.Event) {
			got = append(got, e.Data)
		},
	})
	Emit(b, TopicConnectionState, "first")
	Emit(b, TopicConnectionState, "second")
	Emit(b, TopicLocationUpdate, "other-topic")
	if len(got) != 2 || got[0] != "first" || got[1] != "second" {
		t.Errorf("got %v", got)
	}
}

func TestEmitNilBus(t *testing.T) {
	Emit(nil, TopicMockStatus, "ignored")
}

func TestEmitUnregisteredTopic(t *testing.T) {
	b, err := New()
	if err != nil {
		t.Fatal(err)
	}
	// Emit swallows the topic-not-found error.
	Emit(b, "no.such.topic", "ignored")
}
