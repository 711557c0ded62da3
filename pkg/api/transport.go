package api

import (
	"net/http"
	"sync"

	"github.com/keyline-id/keyline-go/pkg/events"
)

// AuthTransport is an http.RoundTripper that injects the most recently
// issued session token into outgoing requests. It tracks token-update
// events on the bus, so it always carries the freshest credential
// without asking the session layer before every request.
type AuthTransport struct {
	base http.RoundTripper
	bus  *events.Bus
	sub  events.Subscription

	mu  sync.RWMutex
	raw string
}

// NewAuthTransport wraps base (http.DefaultTransport when nil) and
// subscribes to token updates on bus.
func NewAuthTransport(base http.RoundTripper, bus *events.Bus) *AuthTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	t := &AuthTransport{base: base, bus: bus}
	t.sub = bus.Subscribe(events.TokenUpdate, func(payload any) {
		update, ok := payload.(events.TokenUpdatePayload)
		if !ok || update.Token == nil {
			return
		}
		t.mu.Lock()
		t.raw = update.Token.Raw()
		t.mu.Unlock()
	})
	return t
}

// RoundTrip attaches the current bearer token when one is known.
// Requests sent before any token resolved pass through untouched.
func (t *AuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	t.mu.RLock()
	raw := t.raw
	t.mu.RUnlock()

	if raw == "" {
		return t.base.RoundTrip(req)
	}
	clone := req.Clone(req.Context())
	clone.Header.Set("Authorization", "Bearer "+raw)
	return t.base.RoundTrip(clone)
}

// Token returns the raw credential currently held, empty when none has
// been observed yet.
func (t *AuthTransport) Token() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.raw
}

// Close detaches the transport from the event bus.
func (t *AuthTransport) Close() {
	t.bus.Unsubscribe(t.sub)
}
