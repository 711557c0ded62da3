package token

import (
	"context"
	"sync"
)

// Resolver is a single-use future for a token resolution. The session
// layer installs a Resolver into the cache before the network call
// settles, so every concurrent caller for the same key waits on the
// same resolution and exactly one fetch happens.
type Resolver struct {
	done chan struct{}
	once sync.Once

	token *Token
	err   error
}

// NewResolver returns an unsettled Resolver.
func NewResolver() *Resolver {
	return &Resolver{done: make(chan struct{})}
}

// Resolve settles the resolver with a token. Later calls to Resolve or
// Reject are no-ops.
func (r *Resolver) Resolve(t *Token) {
	r.once.Do(func() {
		r.token = t
		close(r.done)
	})
}

// Reject settles the resolver with a failure.
func (r *Resolver) Reject(err error) {
	r.once.Do(func() {
		r.err = err
		close(r.done)
	})
}

// Wait blocks until the resolver settles or ctx is done.
func (r *Resolver) Wait(ctx context.Context) (*Token, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-r.done:
		return r.token, r.err
	}
}

// Peek reports the current state without blocking.
func (r *Resolver) Peek() (tok *Token, settled bool, err error) {
	select {
	case <-r.done:
		return r.token, true, r.err
	default:
		return nil, false, nil
	}
}
