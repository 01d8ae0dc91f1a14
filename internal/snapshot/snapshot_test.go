package snapshot

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kozaktomas/face-index/internal/identity"
	"github.com/kozaktomas/face-index/internal/store/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func alice() identity.Entry {
	return identity.Entry{Label: "a/b/Alice", Embedding: []float32{0.1, 0.2}}
}
func bob() identity.Entry { return identity.Entry{Label: "c/d/Bob", Embedding: []float32{0.9, 0.8}} }

func TestNewCache_EmptyStore(t *testing.T) {
	c, err := NewCache(context.Background(), mock.NewMockStore(), time.Second, t0)
	require.NoError(t, err)
	assert.Equal(t, 0, c.Current().Len())
	assert.Equal(t, t0, c.Current().LoadedAt)
}

func TestNewCache_LoadErrorIsReturned(t *testing.T) {
	s := mock.NewMockStore()
	s.LoadError = errors.New("disk gone")
	_, err := NewCache(context.Background(), s, time.Second, t0)
	assert.Error(t, err)
}

func TestNewCache_DefaultInterval(t *testing.T) {
	c, err := NewCache(context.Background(), mock.NewMockStore(), 0, t0)
	require.NoError(t, err)
	assert.Equal(t, DefaultRefreshInterval, c.Interval())
}

func TestRefreshIfDue(t *testing.T) {
	ctx := context.Background()
	s := mock.NewMockStore(alice())
	c, err := NewCache(ctx, s, 30*time.Second, t0)
	require.NoError(t, err)
	require.Equal(t, 1, c.Current().Len())

	s.Set(alice(), bob())

	t.Run("not due", func(t *testing.T) {
		refreshed, err := c.RefreshIfDue(ctx, t0.Add(29*time.Second))
		require.NoError(t, err)
		assert.False(t, refreshed)
		assert.Equal(t, 1, c.Current().Len(), "snapshot must not change between refreshes")
	})

	t.Run("due exactly at interval", func(t *testing.T) {
		refreshed, err := c.RefreshIfDue(ctx, t0.Add(30*time.Second))
		require.NoError(t, err)
		assert.True(t, refreshed)
		assert.Equal(t, 2, c.Current().Len())
		assert.Equal(t, t0.Add(30*time.Second), c.LastRefresh())
	})

	t.Run("clock going backwards is not due", func(t *testing.T) {
		refreshed, err := c.RefreshIfDue(ctx, t0)
		require.NoError(t, err)
		assert.False(t, refreshed)
	})
}

func TestRefreshIfDue_HeldSnapshotIsStable(t *testing.T) {
	ctx := context.Background()
	s := mock.NewMockStore(alice())
	c, err := NewCache(ctx, s, time.Second, t0)
	require.NoError(t, err)

	held := c.Current()
	s.Set(bob())
	_, err = c.RefreshIfDue(ctx, t0.Add(time.Second))
	require.NoError(t, err)

	assert.Equal(t, "a/b/Alice", held.Label(0), "a held snapshot is never mutated")
	assert.Equal(t, "c/d/Bob", c.Current().Label(0))
}

func TestRefreshIfDue_FailedLoadKeepsSnapshot(t *testing.T) {
	ctx := context.Background()
	s := mock.NewMockStore(alice())
	c, err := NewCache(ctx, s, time.Second, t0)
	require.NoError(t, err)

	s.LoadError = errors.New("corrupt")
	refreshed, err := c.RefreshIfDue(ctx, t0.Add(2*time.Second))
	assert.Error(t, err)
	assert.False(t, refreshed)
	assert.Equal(t, 1, c.Current().Len())

	// The failed attempt still counts, so the store is not hammered.
	s.LoadError = nil
	refreshed, err = c.RefreshIfDue(ctx, t0.Add(2500*time.Millisecond))
	require.NoError(t, err)
	assert.False(t, refreshed)
}

func TestRefresh_Forced(t *testing.T) {
	ctx := context.Background()
	s := mock.NewMockStore()
	c, err := NewCache(ctx, s, time.Hour, t0)
	require.NoError(t, err)

	s.Set(alice())
	require.NoError(t, c.Refresh(ctx, t0.Add(time.Millisecond)))
	assert.Equal(t, 1, c.Current().Len())
	assert.Equal(t, 2, s.LoadCalls)
}

func TestSnapshot_Labels(t *testing.T) {
	snap := New([]identity.Entry{alice(), bob(), alice()}, t0)
	assert.Equal(t, map[string]int{"a/b/Alice": 2, "c/d/Bob": 1}, snap.Labels())

	var empty *Snapshot
	assert.Equal(t, 0, empty.Len())
	assert.Empty(t, empty.Labels())
}
