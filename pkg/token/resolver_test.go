package token

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolverResolve(t *testing.T) {
	tok := mintToken(t, "user_1", time.Now().Add(time.Minute))
	r := NewResolver()

	_, settled, _ := r.Peek()
	assert.False(t, settled)

	go r.Resolve(tok)

	got, err := r.Wait(context.Background())
	require.NoError(t, err)
	assert.Same(t, tok, got)

	_, settled, err = r.Peek()
	assert.True(t, settled)
	assert.NoError(t, err)
}

func TestResolverReject(t *testing.T) {
	wantErr := errors.New("network down")
	r := NewResolver()
	r.Reject(wantErr)

	got, err := r.Wait(context.Background())
	assert.Nil(t, got)
	assert.ErrorIs(t, err, wantErr)
}

func TestResolverSettlesOnce(t *testing.T) {
	tok := mintToken(t, "user_1", time.Now().Add(time.Minute))
	r := NewResolver()
	r.Resolve(tok)
	r.Reject(errors.New("too late"))
	r.Resolve(nil)

	got, err := r.Wait(context.Background())
	require.NoError(t, err)
	assert.Same(t, tok, got)
}

func TestResolverWaitHonorsContext(t *testing.T) {
	r := NewResolver()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := r.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestResolverFansOutToAllWaiters(t *testing.T) {
	tok := mintToken(t, "user_1", time.Now().Add(time.Minute))
	r := NewResolver()

	const waiters = 16
	results := make([]*Token, waiters)
	var wg sync.WaitGroup
	for i := 0; i < waiters; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got, err := r.Wait(context.Background())
			require.NoError(t, err)
			results[i] = got
		}(i)
	}

	r.Resolve(tok)
	wg.Wait()

	for _, got := range results {
		assert.Same(t, tok, got)
	}
}
