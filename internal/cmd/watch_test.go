package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/harrison/fileslice/internal/config"
	"github.com/harrison/fileslice/internal/cursor"
	"github.com/harrison/fileslice/internal/logger"
	"github.com/harrison/fileslice/internal/watch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syncBuffer is a bytes.Buffer safe for one writer and one reader goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func newWatchEnv(t *testing.T, root, fragment string) (*env, *watch.Watcher) {
	t.Helper()
	c, err := cursor.New(root, cursor.WithPatterns("*.txt"))
	require.NoError(t, err)
	_, err = c.List(fragment)
	require.NoError(t, err)

	w, err := watch.New(c.Position(), c.Patterns())
	require.NoError(t, err)
	w.SetDebounceDelay(20 * time.Millisecond)
	t.Cleanup(func() { w.Close() })

	return &env{cfg: config.DefaultConfig(), log: logger.NewMultiLogger(), cursor: c}, w
}

func TestWatchLoopRelistsOnChange(t *testing.T) {
	root := setupSandbox(t)
	e, w := newWatchEnv(t, root, "")

	ctx, cancel := context.WithCancel(context.Background())
	out := &syncBuffer{}
	done := make(chan error, 1)
	go func() { done <- watchLoop(ctx, e, w, out, false) }()

	require.NoError(t, os.WriteFile(filepath.Join(root, "new.txt"), []byte("x"), 0644))

	assert.Eventually(t, func() bool {
		return strings.Contains(out.String(), "new.txt")
	}, 3*time.Second, 20*time.Millisecond)
	assert.Contains(t, out.String(), "a.txt")
	assert.NotContains(t, out.String(), "b.md")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("watch loop did not stop after cancel")
	}
}

func TestWatchLoopStopsWhenPositionRemoved(t *testing.T) {
	root := setupSandbox(t)
	e, w := newWatchEnv(t, root, "docs")

	out := &syncBuffer{}
	done := make(chan error, 1)
	go func() { done <- watchLoop(context.Background(), e, w, out, false) }()

	require.NoError(t, os.RemoveAll(filepath.Join(root, "docs")))

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("watch loop did not stop after the position was removed")
	}
	assert.Equal(t, root, e.cursor.Position())
}

func TestWatchLoopStopsWhenEmptyPositionRemoved(t *testing.T) {
	root := setupSandbox(t)
	empty := filepath.Join(root, "empty")
	require.NoError(t, os.Mkdir(empty, 0755))
	e, w := newWatchEnv(t, root, "empty")
	require.Equal(t, empty, e.cursor.Position())

	out := &syncBuffer{}
	done := make(chan error, 1)
	go func() { done <- watchLoop(context.Background(), e, w, out, false) }()

	require.NoError(t, os.RemoveAll(empty))

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("watch loop did not stop after the empty position was removed")
	}
	assert.Equal(t, root, e.cursor.Position())
}

func TestWatchLoopStopsWhenPositionRenamed(t *testing.T) {
	root := setupSandbox(t)
	e, w := newWatchEnv(t, root, "docs")

	out := &syncBuffer{}
	done := make(chan error, 1)
	go func() { done <- watchLoop(context.Background(), e, w, out, false) }()

	require.NoError(t, os.Rename(filepath.Join(root, "docs"), filepath.Join(root, "moved")))

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("watch loop did not stop after the position was renamed")
	}
	assert.Equal(t, root, e.cursor.Position())
}

func TestWatchCommandRejectsTraversal(t *testing.T) {
	setupHome(t)
	root := setupSandbox(t)

	_, _, err := runCLI(t, "--root", root, "watch", "..")
	require.Error(t, err)
	assert.Equal(t, cursor.KindAccessDenied, cursor.KindOf(err))
}
