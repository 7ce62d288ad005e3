package server

import (
	"context"
	"net/http"
	"sync"

	"github.com/rs/zerolog"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/aristath/tankintel/internal/training"
	"github.com/aristath/tankintel/pkg/logger"
)

// EventsHub fans training progress events out to WebSocket subscribers.
// It implements training.Publisher; a slow subscriber drops events rather
// than stalling the trainer.
type EventsHub struct {
	mu          sync.Mutex
	subscribers map[chan training.Event]struct{}
	log         zerolog.Logger
}

// NewEventsHub creates the hub.
func NewEventsHub(log zerolog.Logger) *EventsHub {
	return &EventsHub{
		subscribers: make(map[chan training.Event]struct{}),
		log:         logger.Component(log, "events_hub"),
	}
}

// Publish implements training.Publisher.
func (h *EventsHub) Publish(ev training.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subscribers {
		select {
		case ch <- ev:
		default:
			// Subscriber is not keeping up; drop the event for them.
		}
	}
}

func (h *EventsHub) subscribe() chan training.Event {
	ch := make(chan training.Event, 64)
	h.mu.Lock()
	h.subscribers[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *EventsHub) unsubscribe(ch chan training.Event) {
	h.mu.Lock()
	delete(h.subscribers, ch)
	h.mu.Unlock()
}

// ServeHTTP upgrades the connection and streams events until the client
// disconnects.
func (h *EventsHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket accept failed")
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	ch := h.subscribe()
	defer h.unsubscribe(ch)
	h.log.Debug().Msg("Training events subscriber connected")

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-ch:
			writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := wsjson.Write(writeCtx, conn, ev)
			cancel()
			if err != nil {
				h.log.Debug().Err(err).Msg("Training events subscriber dropped")
				return
			}
		}
	}
}
