package resolver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupLiteralIPv4(t *testing.T) {
	r, err := New(8)
	require.NoError(t, err)

	ip, result, err := r.Lookup(context.Background(), "203.0.113.10")
	require.NoError(t, err)
	assert.Equal(t, Literal, result)
	assert.Equal(t, "203.0.113.10", ip)
}

func TestLookupCacheHitAfterMiss(t *testing.T) {
	r, err := New(8)
	require.NoError(t, err)
	calls := 0
	r.lookupHost = func(_ context.Context, host string) ([]string, error) {
		calls++
		return []string{"198.51.100.1"}, nil
	}

	ip, result, err := r.Lookup(context.Background(), "example.com")
	require.NoError(t, err)
	assert.Equal(t, Miss, result)
	assert.Equal(t, "198.51.100.1", ip)

	ip, result, err = r.Lookup(context.Background(), "example.com")
	require.NoError(t, err)
	assert.Equal(t, Hit, result)
	assert.Equal(t, "198.51.100.1", ip)
	assert.Equal(t, 1, calls, "second lookup should be served from cache")
}

func TestLookupInvalidOnResolveFailure(t *testing.T) {
	r, err := New(8)
	require.NoError(t, err)
	r.lookupHost = func(_ context.Context, host string) ([]string, error) {
		return nil, assertErr{}
	}

	_, result, err := r.Lookup(context.Background(), "nosuchhost.invalid")
	assert.Error(t, err)
	assert.Equal(t, Invalid, result)
}

type assertErr struct{}

func (assertErr) Error() string { return "resolution failed" }
