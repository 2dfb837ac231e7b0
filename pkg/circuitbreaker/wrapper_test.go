package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCall_NilWrapperCallsThrough(t *testing.T) {
	got, err := Call(context.Background(), nil, func() (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.Equal(t, 7, got)
}

func TestCall_OpensAfterFailures(t *testing.T) {
	cfg := DefaultConfig("test-open").Tune(1, time.Minute, time.Minute, 0.5, 2)
	w := NewWrapper(cfg)
	boom := errors.New("boom")

	for i := 0; i < 2; i++ {
		_, err := Call(context.Background(), w, func() (bool, error) { return false, boom })
		assert.ErrorIs(t, err, boom)
	}

	assert.True(t, w.IsOpen())

	_, err := Call(context.Background(), w, func() (bool, error) { return true, nil })
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
}

func TestCall_CancelledContext(t *testing.T) {
	w := NewWrapper(DefaultConfig("test-ctx"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	_, err := Call(ctx, w, func() (string, error) {
		called = true
		return "", nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestCall_TypedNilResult(t *testing.T) {
	type item struct{}
	w := NewWrapper(DefaultConfig("test-nil"))

	got, err := Call(context.Background(), w, func() (*item, error) { return nil, nil })
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestConfig_TuneKeepsDefaultsForZeroValues(t *testing.T) {
	cfg := DefaultConfig("x").Tune(0, 0, 5*time.Second, 0, 0)
	assert.Equal(t, uint32(3), cfg.MaxRequests)
	assert.Equal(t, 60*time.Second, cfg.Interval)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.False(t, cfg.ReadyToTrip(gobreaker.Counts{Requests: 2, TotalFailures: 2}))
	assert.True(t, cfg.ReadyToTrip(gobreaker.Counts{Requests: 3, TotalFailures: 2}))
}
