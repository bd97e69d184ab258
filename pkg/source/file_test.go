package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/milan604/permcatalog/pkg/logger"
)

func TestFileFetcherReadsDocument(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.json"), []byte(`[]`), 0o644))

	data, err := NewFileFetcher(dir).Fetch(context.Background(), "a.json")
	require.NoError(t, err)
	require.Equal(t, `[]`, string(data))
}

func TestFileFetcherMissingDocument(t *testing.T) {
	_, err := NewFileFetcher(t.TempDir()).Fetch(context.Background(), "missing.json")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestFileFetcherStaysInsideDir(t *testing.T) {
	parent := t.TempDir()
	dir := filepath.Join(parent, "data")
	require.NoError(t, os.Mkdir(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(parent, "secret.json"), []byte(`{}`), 0o644))

	_, err := NewFileFetcher(dir).Fetch(context.Background(), "../secret.json")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestFileFetcherWatchDebouncesChanges(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.json")
	require.NoError(t, os.WriteFile(path, []byte(`[]`), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan struct{}, 8)
	done := make(chan error, 1)
	go func() {
		done <- NewFileFetcher(dir).Watch(ctx, []string{"a.json"}, 50*time.Millisecond, logger.NewNop(), func() {
			changed <- struct{}{}
		})
	}()

	// give the watcher time to register
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.json"), []byte(`[]`), 0o644))
	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(path, []byte(`[1]`), 0o644))
	}

	select {
	case <-changed:
	case <-time.After(5 * time.Second):
		t.Fatal("expected a change notification")
	}

	select {
	case <-changed:
		t.Fatal("burst of writes should produce a single notification")
	case <-time.After(200 * time.Millisecond):
	}

	cancel()
	require.NoError(t, <-done)
}
