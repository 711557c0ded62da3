// Package keyline is the entry point of the Keyline Go SDK. A Client
// owns the process-wide token cache and event bus and hands them to
// every session resource it loads.
package keyline

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/keyline-id/keyline-go/internal/keys"
	"github.com/keyline-id/keyline-go/pkg/api"
	"github.com/keyline-id/keyline-go/pkg/events"
	"github.com/keyline-id/keyline-go/pkg/session"
	"github.com/keyline-id/keyline-go/pkg/token"
)

// Options configures a Client.
type Options struct {
	// PublishableKey identifies the Keyline instance. Required.
	PublishableKey string
	// APIURL overrides the origin derived from the publishable key.
	// Useful against local or self-hosted instances.
	APIURL string
	// HTTPClient overrides the default transport-level client.
	HTTPClient *http.Client
	// Logger receives structured diagnostics. Defaults to a nop logger.
	Logger *zap.Logger
}

// Client wires the transport, token cache, and event bus together.
// Cache and Bus start empty; SignOut tears cached credentials down.
type Client struct {
	API   *api.Client
	Cache *token.Cache
	Bus   *events.Bus

	logger *zap.Logger
}

// New validates the publishable key and builds a ready Client.
func New(opts Options) (*Client, error) {
	if opts.PublishableKey == "" {
		return nil, errors.New("keyline: publishable key is required")
	}
	if _, err := keys.Parse(opts.PublishableKey); err != nil {
		return nil, fmt.Errorf("keyline: %w", err)
	}

	apiURL := opts.APIURL
	if apiURL == "" {
		apiURL = keys.APIURLFromKey(opts.PublishableKey)
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	apiOpts := []api.Option{api.WithLogger(logger.Named("api"))}
	if opts.HTTPClient != nil {
		apiOpts = append(apiOpts, api.WithHTTPClient(opts.HTTPClient))
	}

	return &Client{
		API:    api.NewClient(apiURL, opts.PublishableKey, apiOpts...),
		Cache:  token.NewCache(),
		Bus:    events.NewBus(),
		logger: logger,
	}, nil
}

// FetchSession loads the session resource with the given id.
func (c *Client) FetchSession(ctx context.Context, id string) (*session.Session, error) {
	var data session.JSON
	if err := c.API.Get(ctx, "/v1/client/sessions/"+id, &data); err != nil {
		return nil, err
	}
	return session.FromJSON(data, session.Deps{
		Transport: c.API,
		Cache:     c.Cache,
		Bus:       c.Bus,
		Logger:    c.logger.Named("session"),
	}), nil
}

// SignOut drops every cached token. Sessions remain usable; their next
// GetToken call fetches fresh credentials.
func (c *Client) SignOut() {
	c.Cache.Clear()
	c.logger.Debug("token cache cleared")
}
