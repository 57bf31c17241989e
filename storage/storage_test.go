package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	fs := &FileStore{BaseDir: t.TempDir()}

	require.NoError(t, fs.Save(ctx, "state", []byte(`{"k":1}`)))

	got, err := fs.Load(ctx, "state")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"k":1}`), got)

	require.NoError(t, fs.Delete(ctx, "state"))
	_, err = fs.Load(ctx, "state")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFileStoreEdgeCases(t *testing.T) {
	ctx := context.Background()
	fs := &FileStore{BaseDir: t.TempDir()}

	t.Run("empty key rejected", func(t *testing.T) {
		assert.Error(t, fs.Save(ctx, "", []byte("x")))
		_, err := fs.Load(ctx, "")
		assert.Error(t, err)
	})

	t.Run("missing key is not found", func(t *testing.T) {
		_, err := fs.Load(ctx, "never-written")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("delete of missing key is a no-op", func(t *testing.T) {
		assert.NoError(t, fs.Delete(ctx, "never-written"))
	})

	t.Run("path traversal keys are flattened", func(t *testing.T) {
		require.NoError(t, fs.Save(ctx, "../../escape", []byte("x")))
		got, err := fs.Load(ctx, "escape")
		require.NoError(t, err)
		assert.Equal(t, []byte("x"), got)
	})
}

func TestRunStateSeenURLs(t *testing.T) {
	ctx := context.Background()
	rs := NewRunState(&FileStore{BaseDir: t.TempDir()})

	t.Run("fresh state is empty", func(t *testing.T) {
		urls, err := rs.SeenURLs(ctx)
		require.NoError(t, err)
		assert.Empty(t, urls)
	})

	t.Run("round trip", func(t *testing.T) {
		want := []string{"https://www.tiktok.com/@a/video/1", "https://www.tiktok.com/@b/video/2"}
		require.NoError(t, rs.SaveSeenURLs(ctx, want))

		got, err := rs.SeenURLs(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})
}

func TestRunStateHistory(t *testing.T) {
	ctx := context.Background()
	rs := NewRunState(&FileStore{BaseDir: t.TempDir()})

	t.Run("fresh state has no history", func(t *testing.T) {
		records, err := rs.History(ctx)
		require.NoError(t, err)
		assert.Empty(t, records)
	})

	t.Run("appends accumulate", func(t *testing.T) {
		now := time.Now()
		require.NoError(t, rs.AppendRun(ctx, RunRecord{StartedAt: now, Videos: 3, Keywords: []string{"budgeting"}}))
		require.NoError(t, rs.AppendRun(ctx, RunRecord{StartedAt: now, Videos: 7, Error: "no content"}))

		records, err := rs.History(ctx)
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, 3, records[0].Videos)
		assert.Equal(t, "no content", records[1].Error)
	})
}

func TestRunStateHistoryTrimmed(t *testing.T) {
	ctx := context.Background()
	rs := NewRunState(&FileStore{BaseDir: t.TempDir()})

	for i := 0; i < maxHistory+10; i++ {
		require.NoError(t, rs.AppendRun(ctx, RunRecord{Videos: i}))
	}

	records, err := rs.History(ctx)
	require.NoError(t, err)
	require.Len(t, records, maxHistory)
	// The oldest entries fall off the front.
	assert.Equal(t, 10, records[0].Videos)
	assert.Equal(t, maxHistory+9, records[len(records)-1].Videos)
}
