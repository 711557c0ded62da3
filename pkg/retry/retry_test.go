package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// testPolicy shrinks delays so retry paths run fast.
func testPolicy(maxAttempts int) Policy {
	return Policy{
		MaxAttempts: maxAttempts,
		BaseDelay:   time.Millisecond,
		MaxDelay:    5 * time.Millisecond,
		Multiplier:  2.0,
	}
}

func TestDoSucceedsFirstAttempt(t *testing.T) {
	calls := 0
	got, err := Do(context.Background(), testPolicy(4), func(context.Context) (string, error) {
		calls++
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 1, calls)
}

func TestDoRetriesUntilSuccess(t *testing.T) {
	calls := 0
	got, err := Do(context.Background(), testPolicy(4), func(context.Context) (string, error) {
		calls++
		if calls < 4 {
			return "", errors.New("transient")
		}
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 4, calls)
}

func TestDoExhaustsAttempts(t *testing.T) {
	wantErr := errors.New("still down")
	calls := 0
	_, err := Do(context.Background(), testPolicy(4), func(context.Context) (int, error) {
		calls++
		return 0, wantErr
	})
	assert.ErrorIs(t, err, wantErr)
	assert.Equal(t, 4, calls)
}

func TestDoStopsWhenPredicateDeclines(t *testing.T) {
	terminal := errors.New("bad request")
	policy := testPolicy(4)
	policy.ShouldRetry = func(err error, attempt int) bool {
		return !errors.Is(err, terminal)
	}

	calls := 0
	_, err := Do(context.Background(), policy, func(context.Context) (int, error) {
		calls++
		return 0, terminal
	})
	// Declined retries surface the failure unwrapped.
	assert.Equal(t, terminal, err)
	assert.Equal(t, 1, calls)
}

func TestDoPredicateSeesAttemptNumber(t *testing.T) {
	var attempts []int
	policy := testPolicy(4)
	policy.ShouldRetry = func(err error, attempt int) bool {
		attempts = append(attempts, attempt)
		return true
	}

	_, err := Do(context.Background(), policy, func(context.Context) (int, error) {
		return 0, errors.New("nope")
	})
	require.Error(t, err)
	assert.Equal(t, []int{1, 2, 3, 4}, attempts)
}

func TestDoHonorsContextDuringBackoff(t *testing.T) {
	policy := Policy{MaxAttempts: 3, BaseDelay: time.Minute, Multiplier: 2.0}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	calls := 0
	_, err := Do(ctx, policy, func(context.Context) (int, error) {
		calls++
		return 0, errors.New("transient")
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, calls)
}

func TestDoZeroAttemptsRunsOnce(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), Policy{}, func(context.Context) (int, error) {
		calls++
		return 0, errors.New("nope")
	})
	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

// Backoff property: delays are monotonically non-decreasing, strictly
// increasing until the cap, and never exceed MaxDelay.
func TestDelayGrowthProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		policy := Policy{
			MaxAttempts: rapid.IntRange(2, 10).Draw(t, "maxAttempts"),
			BaseDelay:   time.Duration(rapid.IntRange(1, 1000).Draw(t, "baseMillis")) * time.Millisecond,
			MaxDelay:    time.Duration(rapid.IntRange(1, 60).Draw(t, "maxSeconds")) * time.Second,
			Multiplier:  float64(rapid.IntRange(2, 4).Draw(t, "multiplier")),
		}

		prev := policy.Delay(2)
		for attempt := 3; attempt <= policy.MaxAttempts; attempt++ {
			d := policy.Delay(attempt)
			if d > policy.MaxDelay {
				t.Fatalf("delay %v exceeds cap %v", d, policy.MaxDelay)
			}
			if d < prev {
				t.Fatalf("delay shrank: %v after %v", d, prev)
			}
			if prev < policy.MaxDelay && d <= prev {
				t.Fatalf("delay did not grow before cap: %v after %v", d, prev)
			}
			prev = d
		}
	})
}
