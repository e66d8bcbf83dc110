package application

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codecraft/backend/internal/features/generation/domain"
)

func TestRegistryCreateAndGet(t *testing.T) {
	reg := NewSessionRegistry(newFakeGenerator(), SessionRegistryOptions{Logger: zerolog.Nop()})

	s, err := reg.Create("")
	require.NoError(t, err)
	assert.Equal(t, "m", s.Orchestrator().Model())

	got, ok := reg.Get(s.ID)
	require.True(t, ok)
	assert.Same(t, s, got)
	assert.Equal(t, 1, reg.Len())
}

func TestRegistryRejectsUnsupportedModel(t *testing.T) {
	gen := newFakeGenerator()
	reg := NewSessionRegistry(gen, SessionRegistryOptions{Logger: zerolog.Nop()})

	_, err := reg.Create("nope")
	var unsupported *domain.UnsupportedModelError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, 0, reg.Len())
	assert.Empty(t, gen.calls())
}

func TestRegistryEvictsLeastRecentlyUsed(t *testing.T) {
	reg := NewSessionRegistry(newFakeGenerator(), SessionRegistryOptions{Size: 1, Logger: zerolog.Nop()})

	first, err := reg.Create("m")
	require.NoError(t, err)
	events := first.Subscribe(context.Background())

	_, err = reg.Create("m2")
	require.NoError(t, err)

	_, ok := reg.Get(first.ID)
	assert.False(t, ok)
	select {
	case _, open := <-events:
		assert.False(t, open)
	case <-time.After(time.Second):
		t.Fatal("evicted session was not closed")
	}
}

func TestRegistryRemove(t *testing.T) {
	reg := NewSessionRegistry(newFakeGenerator(), SessionRegistryOptions{Logger: zerolog.Nop()})
	s, err := reg.Create("m")
	require.NoError(t, err)

	assert.True(t, reg.Remove(s.ID))
	assert.False(t, reg.Remove(s.ID))
}

func TestRegistryGetExtendsTTL(t *testing.T) {
	ttl := 300 * time.Millisecond
	reg := NewSessionRegistry(newFakeGenerator(), SessionRegistryOptions{TTL: ttl, Logger: zerolog.Nop()})
	s, err := reg.Create("m")
	require.NoError(t, err)

	for end := time.Now().Add(2 * ttl); time.Now().Before(end); time.Sleep(60 * time.Millisecond) {
		_, ok := reg.Get(s.ID)
		require.True(t, ok, "session in use expired")
	}
	assert.False(t, s.isClosed())

	// Left alone, it expires and is closed.
	assert.Eventually(t, s.isClosed, 2*time.Second, 20*time.Millisecond)
	_, ok := reg.Get(s.ID)
	assert.False(t, ok)
}
