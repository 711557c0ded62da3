// Package session implements the session resource: the stateful owner
// of the token-retrieval contract, its cache keys, and the update
// events dependent consumers listen for.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/keyline-id/keyline-go/pkg/api"
	"github.com/keyline-id/keyline-go/pkg/events"
	"github.com/keyline-id/keyline-go/pkg/retry"
	"github.com/keyline-id/keyline-go/pkg/token"
)

const (
	sessionPathRoot = "/v1/client/sessions"
	userPathRoot    = "/v1/me"

	// tokenLifespan is the fixed lifetime of plain session tokens; a
	// leeway at or beyond it could never observe a fresh token.
	tokenLifespan = 60 * time.Second

	legacyIntegrationPrefix = "integration_"
)

// ErrLeewayTooLarge rejects leeway values that meet or exceed the
// session token lifespan. It is a precondition failure: never retried,
// never sent over the network.
var ErrLeewayTooLarge = errors.New("leeway cannot exceed the token lifespan (60 seconds)")

// Transport performs authenticated calls against the Keyline API.
// *api.Client satisfies it.
type Transport interface {
	CreateToken(ctx context.Context, path string, body any) (*token.Token, error)
	Post(ctx context.Context, path string, body, out any) error
}

// Deps carries the collaborators a session needs. Cache and Bus are
// process-wide shared state owned by the SDK client.
type Deps struct {
	Transport Transport
	Cache     *token.Cache
	Bus       *events.Bus
	Logger    *zap.Logger
}

// TokenOptions shapes a GetToken call.
type TokenOptions struct {
	// Template names a token-shaping configuration instead of the
	// default session token.
	Template string
	// Leeway widens the freshness check on cached tokens. Zero means
	// token.DefaultLeeway.
	Leeway time.Duration
	// SkipCache forces a network fetch even when a fresh cached token
	// exists.
	SkipCache bool
}

// AuthorizationParams select the capability IsAuthorized evaluates.
// Permission takes precedence when both are set.
type AuthorizationParams struct {
	Permission string
	Role       string
}

// Session mirrors the server-side session resource. Field values only
// change when a server response is applied; token state lives in the
// shared cache, keyed by the session's updatedAt version stamp.
type Session struct {
	ID                       string
	Status                   Status
	ExpireAt                 time.Time
	AbandonAt                time.Time
	LastActiveAt             time.Time
	CreatedAt                time.Time
	UpdatedAt                time.Time
	LastActiveOrganizationID string
	Actor                    *Actor
	User                     *User
	PublicUserData           *PublicUserData
	LastActiveToken          *token.Token

	transport  Transport
	cache      *token.Cache
	bus        *events.Bus
	logger     *zap.Logger
	tokenRetry retry.Policy
}

// FromJSON builds a session from its wire shape and hydrates the cache
// with the last active token the server piggybacked, announcing it to
// subscribers.
func FromJSON(data JSON, deps Deps) *Session {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Session{
		transport:  deps.Transport,
		cache:      deps.Cache,
		bus:        deps.Bus,
		logger:     logger,
		tokenRetry: tokenRetryPolicy(),
	}
	s.applyJSON(data)
	s.hydrateCache()
	return s
}

func tokenRetryPolicy() retry.Policy {
	policy := retry.DefaultPolicy()
	policy.ShouldRetry = func(err error, attempt int) bool {
		return !api.IsClientError(err)
	}
	return policy
}

func (s *Session) applyJSON(data JSON) {
	s.ID = data.ID
	s.Status = data.Status
	s.ExpireAt = epochToTime(data.ExpireAt)
	s.AbandonAt = epochToTime(data.AbandonAt)
	s.LastActiveAt = epochToTime(data.LastActiveAt)
	s.CreatedAt = epochToTime(data.CreatedAt)
	s.UpdatedAt = epochToTime(data.UpdatedAt)
	s.LastActiveOrganizationID = data.LastActiveOrganizationID
	s.Actor = data.Actor
	s.User = data.User
	s.PublicUserData = data.PublicUserData

	s.LastActiveToken = nil
	if data.LastActiveToken != nil {
		tok, err := token.FromJSON(*data.LastActiveToken)
		if err != nil {
			s.logger.Warn("discarding malformed last active token",
				zap.String("session_id", s.ID), zap.Error(err))
		} else {
			s.LastActiveToken = tok
		}
	}
}

func (s *Session) hydrateCache() {
	if s.LastActiveToken == nil {
		return
	}
	resolver := token.NewResolver()
	resolver.Resolve(s.LastActiveToken)
	s.cache.Set(token.Key{TokenID: s.cacheID("")}, resolver)
	s.bus.Dispatch(events.TokenUpdate, events.TokenUpdatePayload{Token: s.LastActiveToken})
}

func (s *Session) path() string {
	return sessionPathRoot + "/" + s.ID
}

// The plain session token is cached under the session id, templated
// tokens under id-template. Both embed the updatedAt stamp, so any
// server-driven session mutation implicitly orphans older entries
// without explicit eviction.
func (s *Session) cacheID(template string) string {
	id := s.ID
	if template != "" {
		id = s.ID + "-" + template
	}
	return fmt.Sprintf("%s-%d", id, s.UpdatedAt.Unix())
}

func isLegacyIntegrationTemplate(template string) bool {
	return strings.HasPrefix(template, legacyIntegrationPrefix)
}

// GetToken returns a current raw token string for this session,
// serving from the cache when a fresh resolution exists and otherwise
// fetching one under the retry policy. An empty string with a nil error
// means the session has no user (signed-out or transitional state).
func (s *Session) GetToken(ctx context.Context, opts TokenOptions) (string, error) {
	if opts.Template == "" && opts.Leeway >= tokenLifespan {
		return "", ErrLeewayTooLarge
	}
	if s.User == nil {
		return "", nil
	}

	if isLegacyIntegrationTemplate(opts.Template) {
		return s.legacyIntegrationToken(ctx, opts)
	}

	key := token.Key{TokenID: s.cacheID(opts.Template)}
	path := s.path() + "/tokens"
	if opts.Template != "" {
		path += "/" + opts.Template
	}
	// Plain session tokens announce on the bus; templated ones do not.
	return s.resolveToken(ctx, key, path, nil, opts, opts.Template == "")
}

// Kept for the deprecated integration_* template family: a distinct
// cache scope under the user id and a distinct issuing path.
func (s *Session) legacyIntegrationToken(ctx context.Context, opts TokenOptions) (string, error) {
	key := token.Key{TokenID: s.User.ID, Audience: opts.Template}
	body := map[string]string{
		"service": strings.TrimPrefix(opts.Template, legacyIntegrationPrefix),
	}
	return s.resolveToken(ctx, key, userPathRoot+"/tokens", body, opts, true)
}

func (s *Session) resolveToken(ctx context.Context, key token.Key, path string, body any, opts TokenOptions, announce bool) (string, error) {
	leeway := opts.Leeway
	if leeway == 0 {
		leeway = token.DefaultLeeway
	}

	// Install the resolver before the fetch settles so concurrent
	// callers for the same key join it instead of fetching again.
	resolver := token.NewResolver()
	if opts.SkipCache {
		s.cache.Set(key, resolver)
	} else {
		existing, joined := s.cache.GetOrSet(key, resolver, leeway)
		if joined {
			tok, err := existing.Wait(ctx)
			if err != nil {
				return "", err
			}
			return tok.Raw(), nil
		}
	}

	tok, err := retry.Do(ctx, s.tokenRetry, func(ctx context.Context) (*token.Token, error) {
		return s.transport.CreateToken(ctx, path, body)
	})
	if err != nil {
		resolver.Reject(err)
		s.cache.Remove(key, resolver)
		s.logger.Warn("token fetch failed",
			zap.String("session_id", s.ID),
			zap.String("path", path),
			zap.Error(err))
		return "", err
	}

	// Announce before settling so waiters observe the event by the
	// time their Wait returns.
	if announce {
		s.bus.Dispatch(events.TokenUpdate, events.TokenUpdatePayload{Token: tok})
	}
	resolver.Resolve(tok)
	return tok.Raw(), nil
}

// End terminates the session server-side. Cached tokens are cleared
// optimistically before the network call goes out.
func (s *Session) End(ctx context.Context) error {
	s.cache.Clear()
	return s.postAction(ctx, "end", nil)
}

// Remove deletes the session server-side, clearing cached tokens
// optimistically like End.
func (s *Session) Remove(ctx context.Context) error {
	s.cache.Clear()
	return s.postAction(ctx, "remove", nil)
}

// Touch refreshes server-side last-active state and the active
// organization. It does not clear the cache: the refreshed updatedAt
// stamp orphans stale entries on its own.
func (s *Session) Touch(ctx context.Context) error {
	return s.postAction(ctx, "touch", map[string]any{
		"active_organization_id": s.LastActiveOrganizationID,
	})
}

func (s *Session) postAction(ctx context.Context, action string, body any) error {
	var data JSON
	if err := s.transport.Post(ctx, s.path()+"/"+action, body, &data); err != nil {
		return err
	}
	s.applyJSON(data)
	return nil
}

// ClearCache drops every cached token resolution.
func (s *Session) ClearCache() {
	s.cache.Clear()
}

// IsAuthorized evaluates a capability against the membership record of
// the active organization. It is pure: no network, no cache. Absent a
// user, an active organization, or a matching membership it reports
// false, never an error.
func (s *Session) IsAuthorized(params AuthorizationParams) bool {
	if s.LastActiveOrganizationID == "" || s.User == nil {
		return false
	}

	var active *Membership
	for i := range s.User.OrganizationMemberships {
		if s.User.OrganizationMemberships[i].Organization.ID == s.LastActiveOrganizationID {
			active = &s.User.OrganizationMemberships[i]
			break
		}
	}
	if active == nil {
		return false
	}

	if params.Permission != "" {
		for _, p := range active.Permissions {
			if p == params.Permission {
				return true
			}
		}
		return false
	}
	if params.Role != "" {
		return active.Role == params.Role
	}
	return false
}
