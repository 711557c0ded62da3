// Package events provides the in-process publish/subscribe channel that
// decouples session resources from consumers needing fresh-token
// notifications, such as outgoing-request interceptors.
package events

import (
	"sync"

	"github.com/google/uuid"

	"github.com/keyline-id/keyline-go/pkg/token"
)

// TokenUpdate is dispatched whenever a plain session token resolves.
const TokenUpdate = "token:update"

// TokenUpdatePayload accompanies TokenUpdate events.
type TokenUpdatePayload struct {
	Token *token.Token
}

// Handler receives dispatched payloads. Handlers run synchronously on
// the dispatching goroutine, so they must not block.
type Handler func(payload any)

// Subscription identifies a registered handler for later removal.
type Subscription struct {
	event string
	id    string
}

type subscriber struct {
	id      string
	handler Handler
}

// Bus is a broadcast-only observer channel: no persistence, no replay,
// no cross-process delivery. Construct one per client for test
// isolation rather than sharing a package-level instance.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[string][]subscriber
}

// NewBus returns a bus with no subscribers.
func NewBus() *Bus {
	return &Bus{subscribers: make(map[string][]subscriber)}
}

// Subscribe registers handler for event and returns a handle for
// Unsubscribe.
func (b *Bus) Subscribe(event string, handler Handler) Subscription {
	id := uuid.NewString()
	b.mu.Lock()
	b.subscribers[event] = append(b.subscribers[event], subscriber{id: id, handler: handler})
	b.mu.Unlock()
	return Subscription{event: event, id: id}
}

// Unsubscribe removes the handler behind sub. Unknown handles are a
// no-op.
func (b *Bus) Unsubscribe(sub Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.subscribers[sub.event]
	for i, s := range subs {
		if s.id == sub.id {
			b.subscribers[sub.event] = append(subs[:i:i], subs[i+1:]...)
			return
		}
	}
}

// Dispatch synchronously invokes every handler registered for event, in
// registration order. Subscribers registered after Dispatch returns do
// not see the event.
func (b *Bus) Dispatch(event string, payload any) {
	b.mu.RLock()
	subs := make([]subscriber, len(b.subscribers[event]))
	copy(subs, b.subscribers[event])
	b.mu.RUnlock()

	for _, s := range subs {
		s.handler(payload)
	}
}
