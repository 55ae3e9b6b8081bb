package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var errDownstream = errors.New("downstream unavailable")

func newTestBreaker(t *testing.T) *CircuitBreaker {
	t.Helper()
	return NewCircuitBreaker("test", Config{
		MaxRequests:      1,
		Timeout:          20 * time.Millisecond,
		FailureThreshold: 2,
		SuccessThreshold: 1,
		Logger:           zap.NewNop(),
	})
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	cb := newTestBreaker(t)
	ctx := context.Background()

	fail := func() error { return errDownstream }

	assert.ErrorIs(t, cb.Execute(ctx, fail), errDownstream)
	assert.Equal(t, StateClosed, cb.State())

	assert.ErrorIs(t, cb.Execute(ctx, fail), errDownstream)
	assert.Equal(t, StateOpen, cb.State())

	// open breaker rejects without calling through
	called := false
	err := cb.Execute(ctx, func() error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)
}

func TestBreakerRecoversThroughHalfOpen(t *testing.T) {
	cb := newTestBreaker(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_ = cb.Execute(ctx, func() error { return errDownstream })
	}
	require.Equal(t, StateOpen, cb.State())

	time.Sleep(30 * time.Millisecond)

	err := cb.Execute(ctx, func() error { return nil })
	require.NoError(t, err)
	assert.Equal(t, StateClosed, cb.State())
}

func TestBreakerReopensOnHalfOpenFailure(t *testing.T) {
	cb := newTestBreaker(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_ = cb.Execute(ctx, func() error { return errDownstream })
	}
	require.Equal(t, StateOpen, cb.State())

	time.Sleep(30 * time.Millisecond)

	assert.ErrorIs(t, cb.Execute(ctx, func() error { return errDownstream }), errDownstream)
	assert.Equal(t, StateOpen, cb.State())
}

func TestSuccessResetsFailureStreak(t *testing.T) {
	cb := newTestBreaker(t)
	ctx := context.Background()

	_ = cb.Execute(ctx, func() error { return errDownstream })
	require.NoError(t, cb.Execute(ctx, func() error { return nil }))
	_ = cb.Execute(ctx, func() error { return errDownstream })

	assert.Equal(t, StateClosed, cb.State())
}

func TestDomainBreakerPresets(t *testing.T) {
	model := NewModelAPIBreaker("llm", zap.NewNop())
	graph := NewGraphBreaker("neo4j", zap.NewNop())

	assert.Equal(t, StateClosed, model.State())
	assert.Equal(t, StateClosed, graph.State())
	assert.NoError(t, model.Execute(context.Background(), func() error { return nil }))
	assert.NoError(t, graph.Execute(context.Background(), func() error { return nil }))
}
