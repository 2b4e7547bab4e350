package events

import (
	"encoding/json"
	"testing"
	"time"

	"relaybot/relaybot/utils/logging"
)

func TestHubDeliversToSubscriber(t *testing.T) {
	logging.InitLogger()
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	sub := hub.Subscribe()
	hub.Publish(Event{Type: TypeMessage, UserID: 42, Kind: "text", Content: "Hello"})

	select {
	case payload := <-sub.Send:
		var evt Event
		if err := json.Unmarshal(payload, &evt); err != nil {
			t.Fatalf("bad payload: %v", err)
		}
		if evt.Type != TypeMessage || evt.UserID != 42 {
			t.Errorf("unexpected event: %+v", evt)
		}
		if evt.At.IsZero() {
			t.Errorf("expected timestamp to be set")
		}
	case <-time.After(time.Second):
		t.Fatalf("no event delivered")
	}
}

func TestHubDropsSlowSubscriber(t *testing.T) {
	logging.InitLogger()
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	sub := hub.Subscribe()
	// Never read: the buffer fills and the hub must drop the subscriber
	// instead of blocking.
	for i := 0; i < 64; i++ {
		hub.Publish(Event{Type: TypeMessage, UserID: int64(i)})
	}

	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-sub.Send:
			if !ok {
				return // dropped, channel closed
			}
		case <-deadline:
			t.Fatalf("slow subscriber was never dropped")
		}
	}
}
