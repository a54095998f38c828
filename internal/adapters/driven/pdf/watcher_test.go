package pdf

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWatcher_DefaultDebounce(t *testing.T) {
	assert.Equal(t, DefaultDebounce, NewWatcher(0).debounce)
	assert.Equal(t, time.Second, NewWatcher(time.Second).debounce)
}

func TestWatcher_ReportsBurstOnce(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "paper.pdf")
	require.NoError(t, os.WriteFile(path, []byte("v1"), 0o600))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	done := make(chan error, 1)
	w := NewWatcher(100 * time.Millisecond)
	go func() { done <- w.Watch(ctx, path, func() { calls.Add(1) }) }()

	// Give the watcher time to register
	time.Sleep(100 * time.Millisecond)
	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(path, []byte("v2"), 0o600))
		time.Sleep(10 * time.Millisecond)
	}

	assert.Eventually(t, func() bool { return calls.Load() == 1 }, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "paper.pdf")
	require.NoError(t, os.WriteFile(path, []byte("v1"), 0o600))

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	var calls atomic.Int32
	go func() {
		time.Sleep(100 * time.Millisecond)
		_ = os.WriteFile(filepath.Join(dir, "other.pdf"), []byte("x"), 0o600)
	}()

	err := NewWatcher(50*time.Millisecond).Watch(ctx, path, func() { calls.Add(1) })

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Zero(t, calls.Load())
}

func TestWatcher_MissingDirectory(t *testing.T) {
	err := NewWatcher(0).Watch(context.Background(), filepath.Join(t.TempDir(), "gone", "x.pdf"), func() {})
	assert.Error(t, err)
}
