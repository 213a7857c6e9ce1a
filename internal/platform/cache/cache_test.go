package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	c := NewMemoryCache()
	c.now = func() time.Time { return now }

	_, err := c.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	now = now.Add(time.Minute)
	_, err = c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrMiss, "entry expires at its ttl")

	require.NoError(t, c.Set(ctx, "a", []byte("1"), 0))
	require.NoError(t, c.Set(ctx, "b", []byte("2"), 0))
	require.NoError(t, c.Delete(ctx, "a", "b"))
	_, err = c.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestJSONHelpers(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := NewMemoryCache()

	type payload struct {
		Names []string `json:"names"`
	}
	require.NoError(t, SetJSON(ctx, c, "p", payload{Names: []string{"a", "b"}}, 0))

	var out payload
	require.NoError(t, GetJSON(ctx, c, "p", &out))
	assert.Equal(t, []string{"a", "b"}, out.Names)

	assert.ErrorIs(t, GetJSON(ctx, c, "other", &out), ErrMiss)

	require.NoError(t, c.Set(ctx, "bad", []byte("{"), 0))
	assert.Error(t, GetJSON(ctx, c, "bad", &out))
}
