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

func TestCircuitBreakerOpensAfterThreshold(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FailureThreshold = 3
	cb := NewCircuitBreaker("test", cfg, zap.NewNop())

	failing := errors.New("provider down")
	for i := 0; i < 3; i++ {
		err := cb.Execute(context.Background(), func() error { return failing })
		require.ErrorIs(t, err, failing)
	}

	assert.Equal(t, StateOpen, cb.State())

	err := cb.Execute(context.Background(), func() error { return nil })
	assert.ErrorIs(t, err, ErrCircuitBreakerOpen)
}

func TestCircuitBreakerRecoversThroughHalfOpen(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FailureThreshold = 1
	cfg.SuccessThreshold = 2
	cfg.Timeout = 10 * time.Millisecond
	cb := NewCircuitBreaker("test", cfg, zap.NewNop())

	_ = cb.Execute(context.Background(), func() error { return errors.New("boom") })
	require.Equal(t, StateOpen, cb.State())

	time.Sleep(20 * time.Millisecond)

	for i := 0; i < 2; i++ {
		err := cb.Execute(context.Background(), func() error { return nil })
		require.NoError(t, err)
	}
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreakerHalfOpenFailureReopens(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FailureThreshold = 1
	cfg.Timeout = 10 * time.Millisecond
	cb := NewCircuitBreaker("test", cfg, zap.NewNop())

	_ = cb.Execute(context.Background(), func() error { return errors.New("boom") })
	time.Sleep(20 * time.Millisecond)

	err := cb.Execute(context.Background(), func() error { return errors.New("still down") })
	require.Error(t, err)
	assert.Equal(t, StateOpen, cb.State())
}

func TestCircuitBreakerCountsResetOnStateChange(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FailureThreshold = 2
	cb := NewCircuitBreaker("test", cfg, zap.NewNop())

	_ = cb.Execute(context.Background(), func() error { return errors.New("boom") })
	assert.Equal(t, uint32(1), cb.Counts().ConsecutiveFailures)

	_ = cb.Execute(context.Background(), func() error { return errors.New("boom") })
	assert.Equal(t, StateOpen, cb.State())
	assert.Equal(t, Counts{}, cb.Counts())
}
