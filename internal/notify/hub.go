// Package notify fans fired activities out to registered subscribers, so
// persistence, metrics and external callers can observe activity without
// the scheduler depending on any one of them.
package notify

import (
	"sync"

	"github.com/xiaot623/workforce/internal/domain"
)

// Subscriber receives every fired activity.
type Subscriber interface {
	ActivityPerformed(activity domain.Activity)
}

// SubscriberFunc adapts a function to the Subscriber interface.
type SubscriberFunc func(activity domain.Activity)

// ActivityPerformed calls the wrapped function.
func (f SubscriberFunc) ActivityPerformed(activity domain.Activity) { f(activity) }

// Hub is a synchronous fan-out of activity notifications. Delivery order
// to each subscriber matches publish order.
type Hub struct {
	mu   sync.RWMutex
	subs []Subscriber
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{}
}

// Subscribe registers a subscriber for all future activities.
func (h *Hub) Subscribe(s Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.subs = append(h.subs, s)
}

// Publish delivers an activity to every subscriber, synchronously and in
// registration order.
func (h *Hub) Publish(activity domain.Activity) {
	h.mu.RLock()
	subs := h.subs
	h.mu.RUnlock()

	for _, s := range subs {
		s.ActivityPerformed(activity)
	}
}
