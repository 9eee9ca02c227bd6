package watch

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mkdirs(t *testing.T, root string, dirs ...string) {
	t.Helper()
	for _, d := range dirs {
		require.NoError(t, os.MkdirAll(filepath.Join(root, d), 0o755))
	}
}

func TestPaths(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	mkdirs(t, root, ".git/refs/heads", "src/pkg", "node_modules/left-pad", "vendor/x", "docs")

	paths, err := Paths(root)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		root,
		filepath.Join(root, ".git"),
		filepath.Join(root, "docs"),
		filepath.Join(root, "src"),
		filepath.Join(root, "src", "pkg"),
	}, paths)
}

func TestPathsErrors(t *testing.T) {
	t.Parallel()

	_, err := Paths("")
	require.Error(t, err)
	_, err = Paths(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
}

func TestShouldIgnore(t *testing.T) {
	t.Parallel()

	tests := map[string]bool{
		"/repo/.git/index.lock":    true,
		"/repo/.git/HEAD.lock":     true,
		"/repo/.git/fsmonitor.ipc": true,
		"/repo/src/.main.go.swp":   true,
		"/repo/src/main.go~":       true,
		"/repo/.git/index":         false,
		"/repo/src/main.go":        false,
		"/repo/Cargo.lockfile":     false,
	}
	for name, want := range tests {
		assert.Equal(t, want, ShouldIgnore(name), name)
	}
}

func TestWatcherCoalescesEvents(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	mkdirs(t, root, ".git", "src")

	var calls atomic.Int32
	w, err := New(root, 200*time.Millisecond, func() { calls.Add(1) }, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })

	for i := range 5 {
		name := filepath.Join(root, "src", "file.txt")
		require.NoError(t, os.WriteFile(name, []byte{byte('a' + i)}, 0o644))
	}

	require.Eventually(t, func() bool { return calls.Load() >= 1 }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(400 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
}

func TestWatcherFollowsNewDirectories(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	mkdirs(t, root, ".git")

	var calls atomic.Int32
	w, err := New(root, 20*time.Millisecond, func() { calls.Add(1) }, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })

	mkdirs(t, root, "newdir")
	require.Eventually(t, func() bool { return calls.Load() >= 1 }, 2*time.Second, 10*time.Millisecond)

	before := calls.Load()
	require.Eventually(t, func() bool {
		_ = os.WriteFile(filepath.Join(root, "newdir", "f.txt"), []byte("x"), 0o644)
		return calls.Load() > before
	}, 2*time.Second, 50*time.Millisecond)
}

func TestWatcherCloseIsIdempotent(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	w, err := New(root, 0, func() {}, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
}
