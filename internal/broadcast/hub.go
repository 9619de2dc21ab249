// Package broadcast fans domain events out to live subscribers.
package broadcast

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/wnt/memetrack/internal/metrics"
)

// Event types delivered over the realtime channel.
const (
	EventConnection      = "connection"
	EventNameAlert       = "name_alert"
	EventNameAlertUpdate = "name_alert_update"
	EventCAAlert         = "ca_alert"
	EventEcho            = "echo"
)

// Event is one realtime message.
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// subscriberBuffer bounds each subscriber's in-flight events. A subscriber
// that falls this far behind is treated as dead and evicted.
const subscriberBuffer = 64

// Subscriber is one live consumer of the event stream. Events arrive on C
// in producer emission order; Done is closed when the subscriber has been
// evicted or unsubscribed.
type Subscriber struct {
	C    <-chan Event
	Done <-chan struct{}

	ch   chan Event
	done chan struct{}
}

// Relay forwards events to an out-of-process channel. Optional.
type Relay interface {
	Publish(ctx context.Context, event Event) error
}

// Hub maintains the live subscriber set and fans out events. Delivery is
// best-effort: a subscriber whose buffer is full is dropped and must
// re-subscribe.
type Hub struct {
	mu          sync.Mutex
	subscribers map[*Subscriber]struct{}
	relay       Relay
	logger      zerolog.Logger
}

// NewHub creates a Hub. relay may be nil.
func NewHub(relay Relay, logger zerolog.Logger) *Hub {
	return &Hub{
		subscribers: make(map[*Subscriber]struct{}),
		relay:       relay,
		logger:      logger.With().Str("component", "broadcast").Logger(),
	}
}

// Subscribe admits a new subscriber and immediately queues a connection
// confirmation event on its channel.
func (h *Hub) Subscribe() *Subscriber {
	sub := &Subscriber{
		ch:   make(chan Event, subscriberBuffer),
		done: make(chan struct{}),
	}
	sub.C = sub.ch
	sub.Done = sub.done

	// Queue the confirmation before the subscriber is visible to
	// Broadcast, so it is always the first event and the fresh empty
	// buffer can accept it.
	sub.ch <- Event{Type: EventConnection, Data: map[string]string{"status": "connected"}}

	h.mu.Lock()
	h.subscribers[sub] = struct{}{}
	count := len(h.subscribers)
	h.mu.Unlock()

	metrics.SubscribersActive.Set(float64(count))
	h.logger.Debug().Int("subscribers", count).Msg("Subscriber added")
	return sub
}

// Unsubscribe removes a subscriber from the live set. Safe to call more
// than once.
func (h *Hub) Unsubscribe(sub *Subscriber) {
	h.mu.Lock()
	_, present := h.subscribers[sub]
	if present {
		delete(h.subscribers, sub)
		close(sub.done)
	}
	count := len(h.subscribers)
	h.mu.Unlock()

	if present {
		metrics.SubscribersActive.Set(float64(count))
		h.logger.Debug().Int("subscribers", count).Msg("Subscriber removed")
	}
}

// Broadcast delivers the event to every live subscriber. It iterates a
// snapshot of the subscriber set so concurrent subscribe/unsubscribe
// cannot disturb the in-flight fanout; subscribers that cannot accept the
// event are evicted rather than retried.
func (h *Hub) Broadcast(event Event) {
	h.mu.Lock()
	snapshot := make([]*Subscriber, 0, len(h.subscribers))
	for sub := range h.subscribers {
		snapshot = append(snapshot, sub)
	}
	h.mu.Unlock()

	var dropped []*Subscriber
	for _, sub := range snapshot {
		select {
		case sub.ch <- event:
		default:
			dropped = append(dropped, sub)
		}
	}

	for _, sub := range dropped {
		h.Unsubscribe(sub)
		metrics.SubscribersDropped.Inc()
		h.logger.Warn().Str("event_type", event.Type).Msg("Dropped slow subscriber")
	}

	metrics.RecordBroadcast(event.Type)

	if h.relay != nil {
		if err := h.relay.Publish(context.Background(), event); err != nil {
			h.logger.Warn().Err(err).Str("event_type", event.Type).Msg("Relay publish failed")
		}
	}
}

// SubscriberCount returns the current live subscriber count.
func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}
