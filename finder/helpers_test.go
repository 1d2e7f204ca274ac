package finder

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeTestFile(t *testing.T, path string, size int) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, make([]byte, size), 0o644))
}

func makeTestDirs(t *testing.T, root string, dirs ...string) {
	t.Helper()
	for _, d := range dirs {
		require.NoError(t, os.MkdirAll(filepath.Join(root, d), 0o755))
	}
}

func filePaths(entries []FileEntry) []string {
	paths := make([]string, 0, len(entries))
	for _, e := range entries {
		paths = append(paths, e.Path)
	}
	sort.Strings(paths)
	return paths
}

func folderPaths(folders map[string]FolderEntry) []string {
	paths := make([]string, 0, len(folders))
	for p := range folders {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

func drain(ch chan ProgressData) []ProgressData {
	var out []ProgressData
	for {
		select {
		case p := <-ch:
			out = append(out, p)
		default:
			return out
		}
	}
}

// stopAfterChecks is a context that reports itself cancelled once the
// scan has polled it checks times, so a stop lands at a known point of the walk.
type stopAfterChecks struct {
	context.Context
	mu     sync.Mutex
	checks int
	done   chan struct{}
}

func newStopAfterChecks(checks int) *stopAfterChecks {
	done := make(chan struct{})
	close(done)
	return &stopAfterChecks{Context: context.Background(), checks: checks, done: done}
}

func (c *stopAfterChecks) Done() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.checks > 0 {
		c.checks--
		return nil
	}
	return c.done
}

func (c *stopAfterChecks) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.checks > 0 {
		return nil
	}
	return context.Canceled
}
