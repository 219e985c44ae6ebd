package utils

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateCode(t *testing.T) {
	code, err := GenerateCode(16)
	require.NoError(t, err)
	assert.Len(t, code, 32)

	other, err := GenerateCode(16)
	require.NoError(t, err)
	assert.NotEqual(t, code, other)
}

func TestCircuitBreaker_PassesThrough(t *testing.T) {
	cb := NewCircuitBreaker("test")

	result, err := cb.Execute(context.Background(), func() (interface{}, error) {
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", result)
}

func TestCircuitBreaker_PropagatesError(t *testing.T) {
	cb := NewCircuitBreaker("test")
	failure := errors.New("downstream unavailable")

	_, err := cb.Execute(context.Background(), func() (interface{}, error) {
		return nil, failure
	})
	assert.ErrorIs(t, err, failure)
}

func TestCircuitBreaker_OpensAfterRepeatedFailures(t *testing.T) {
	cb := NewCircuitBreaker("test")
	failure := errors.New("downstream unavailable")

	for i := 0; i < 10; i++ {
		cb.Execute(context.Background(), func() (interface{}, error) {
			return nil, failure
		})
	}

	_, err := cb.Execute(context.Background(), func() (interface{}, error) {
		return "ok", nil
	})
	assert.ErrorIs(t, err, ErrBreakerOpen)
}
