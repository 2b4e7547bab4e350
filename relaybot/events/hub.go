package events

import (
	"encoding/json"
	"sync"
	"time"

	"relaybot/relaybot/utils/logging"

	"go.uber.org/zap"
)

const (
	TypeMessage       = "message"
	TypeApplication   = "application"
	TypeQuestion      = "question"
	TypeDialogStarted = "dialog_started"
	TypeDialogEnded   = "dialog_ended"
	TypePurge         = "purge"
)

// Event is one relay occurrence pushed to ops websocket subscribers.
type Event struct {
	Type    string    `json:"type"`
	UserID  int64     `json:"user_id,omitempty"`
	Kind    string    `json:"kind,omitempty"`
	Content string    `json:"content,omitempty"`
	At      time.Time `json:"at"`
}

type Subscriber struct {
	Send chan []byte
}

// Hub fans relay events out to websocket subscribers. Slow subscribers are
// dropped rather than allowed to block the dispatch path.
type Hub struct {
	mu          sync.Mutex
	subscribers map[*Subscriber]bool
	register    chan *Subscriber
	unregister  chan *Subscriber
	broadcast   chan []byte
	done        chan struct{}
}

func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[*Subscriber]bool),
		register:    make(chan *Subscriber),
		unregister:  make(chan *Subscriber),
		broadcast:   make(chan []byte, 256),
		done:        make(chan struct{}),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case sub := <-h.register:
			h.mu.Lock()
			h.subscribers[sub] = true
			h.mu.Unlock()

		case sub := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.subscribers[sub]; ok {
				delete(h.subscribers, sub)
				close(sub.Send)
			}
			h.mu.Unlock()

		case payload := <-h.broadcast:
			h.mu.Lock()
			for sub := range h.subscribers {
				select {
				case sub.Send <- payload:
				default:
					close(sub.Send)
					delete(h.subscribers, sub)
				}
			}
			h.mu.Unlock()

		case <-h.done:
			h.mu.Lock()
			for sub := range h.subscribers {
				close(sub.Send)
				delete(h.subscribers, sub)
			}
			h.mu.Unlock()
			return
		}
	}
}

func (h *Hub) Stop() {
	close(h.done)
}

func (h *Hub) Subscribe() *Subscriber {
	sub := &Subscriber{Send: make(chan []byte, 16)}
	select {
	case h.register <- sub:
	case <-h.done:
		close(sub.Send)
	}
	return sub
}

func (h *Hub) Unsubscribe(sub *Subscriber) {
	select {
	case h.unregister <- sub:
	case <-h.done:
	}
}

// Publish never blocks the caller; an event is dropped if the hub is
// saturated or stopped.
func (h *Hub) Publish(evt Event) {
	if evt.At.IsZero() {
		evt.At = time.Now()
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		logging.ErrorLogger.Error("event marshal error", zap.Error(err))
		return
	}
	select {
	case h.broadcast <- payload:
	default:
	}
}
