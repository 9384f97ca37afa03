package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newWatcher(t *testing.T) *Watcher {
	t.Helper()
	w, err := New(context.Background(), 50*time.Millisecond)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })
	return w
}

func waitBatch(t *testing.T, w *Watcher) []string {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	batch, err := w.Wait(ctx)
	require.NoError(t, err)
	return batch
}

func TestWatcher_BatchesChangesInTree(t *testing.T) {
	src := t.TempDir()
	nested := filepath.Join(src, "structra", "impl")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	w := newWatcher(t)
	require.NoError(t, w.Add(src))

	a := filepath.Join(src, "A.java")
	b := filepath.Join(nested, "B.java")
	require.NoError(t, os.WriteFile(a, []byte("class A {}"), 0o644))
	require.NoError(t, os.WriteFile(b, []byte("class B {}"), 0o644))

	batch := waitBatch(t, w)
	assert.Contains(t, batch, a)
	assert.Contains(t, batch, b)
}

func TestWatcher_WatchesSingleFileOnly(t *testing.T) {
	dir := t.TempDir()
	buildFile := filepath.Join(dir, "structra.yaml")
	require.NoError(t, os.WriteFile(buildFile, []byte("project: {}"), 0o644))
	w := newWatcher(t)
	require.NoError(t, w.Add(buildFile))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(buildFile, []byte("project: {group: g}"), 0o644))

	batch := waitBatch(t, w)
	assert.Equal(t, []string{buildFile}, batch)
}

func TestWatcher_IgnoresMissingPaths(t *testing.T) {
	w := newWatcher(t)
	require.NoError(t, w.Add(filepath.Join(t.TempDir(), "src", "main", "java")))
}

func TestWatcher_WaitHonoursContext(t *testing.T) {
	w := newWatcher(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := w.Wait(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestWatcher_WaitAfterClose(t *testing.T) {
	w, err := New(context.Background(), 0)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	_, err = w.Wait(context.Background())
	require.ErrorIs(t, err, ErrClosed)
}

func TestMergeSorted_Dedupes(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, mergeSorted([]string{"b", "a"}, []string{"c", "a"}))
}
