package circuitbreaker

import (
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecutePassesThroughResult(t *testing.T) {
	cb := New(DefaultConfig("test-pass"))

	result, err := cb.Execute(func() (interface{}, error) {
		return "quote", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "quote", result)
}

func TestExecutePassesThroughError(t *testing.T) {
	cb := New(DefaultConfig("test-err"))
	boom := errors.New("provider down")

	_, err := cb.Execute(func() (interface{}, error) {
		return nil, boom
	})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, gobreaker.StateClosed, cb.State())
}

func TestBreakerOpensAfterFailureThreshold(t *testing.T) {
	cfg := Config{
		Name:             "test-trip",
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          time.Minute,
		FailureThreshold: 0.6,
		MinRequests:      5,
	}
	cb := New(cfg)
	boom := errors.New("provider down")

	for i := 0; i < 5; i++ {
		_, _ = cb.Execute(func() (interface{}, error) {
			return nil, boom
		})
	}

	assert.True(t, cb.IsOpen())

	_, err := cb.Execute(func() (interface{}, error) {
		t.Fatal("call should be rejected while open")
		return nil, nil
	})
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
}

func TestBreakerStaysClosedBelowMinRequests(t *testing.T) {
	cb := New(DefaultConfig("test-min"))
	boom := errors.New("provider down")

	for i := 0; i < 3; i++ {
		_, _ = cb.Execute(func() (interface{}, error) {
			return nil, boom
		})
	}

	assert.False(t, cb.IsOpen())
}

func TestName(t *testing.T) {
	cb := New(MarketDataConfig("finnhub"))
	assert.Equal(t, "finnhub", cb.Name())
}
