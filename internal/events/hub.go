// Package events fans submission outcomes out to live subscribers.
package events

import (
	"sync"

	"github.com/Mur0dDev/Classification-Bot/internal/submission"
)

const (
	subscriberBuffer = 16
	defaultHistory   = 50
)

// Hub is a submission.Observer. Publishing never blocks: a subscriber whose
// buffer is full misses the event.
type Hub struct {
	mu      sync.Mutex
	subs    map[int]chan submission.Outcome
	nextID  int
	history []submission.Outcome
	limit   int
	dropped uint64
}

func NewHub(history int) *Hub {
	if history <= 0 {
		history = defaultHistory
	}
	return &Hub{subs: map[int]chan submission.Outcome{}, limit: history}
}

func (h *Hub) Observe(o submission.Outcome) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.history = append(h.history, o)
	if len(h.history) > h.limit {
		h.history = h.history[len(h.history)-h.limit:]
	}
	for _, ch := range h.subs {
		select {
		case ch <- o:
		default:
			h.dropped++
		}
	}
}

// Subscribe returns a channel of future outcomes and a function that ends
// the subscription and closes the channel.
func (h *Hub) Subscribe() (<-chan submission.Outcome, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.nextID
	h.nextID++
	ch := make(chan submission.Outcome, subscriberBuffer)
	h.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subs, id)
			close(ch)
		})
	}
}

// Recent returns the latest outcomes, oldest first.
func (h *Hub) Recent() []submission.Outcome {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]submission.Outcome(nil), h.history...)
}

// Stats reports the subscriber count and how many deliveries were dropped.
func (h *Hub) Stats() (subscribers int, dropped uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs), h.dropped
}
