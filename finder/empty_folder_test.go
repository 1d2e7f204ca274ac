package finder

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmptyFolder_OutermostOnly(t *testing.T) {
	root := t.TempDir()
	makeTestDirs(t, root, "a", "b/c/d", "e/f")
	writeTestFile(t, filepath.Join(root, "e", "file.txt"), 1)
	writeTestFile(t, filepath.Join(root, "g", "h", "zero"), 0)

	ef := NewEmptyFolder()
	ef.SetIncludedDirectory([]string{root})
	ef.FindEmptyFolders(context.Background(), nil)

	assert.Equal(t, []string{
		filepath.Join(root, "a"),
		filepath.Join(root, "b"),
		filepath.Join(root, "e", "f"),
	}, folderPaths(ef.GetEmptyFolderList()))
	assert.Contains(t, ef.GetTextMessages().CreateMessagesText(), "Found 3 empty folders")

	entry := ef.GetEmptyFolderList()[filepath.Join(root, "b")]
	assert.Equal(t, root, entry.ParentPath)
	assert.NotZero(t, entry.ModifiedDate)
}

func TestEmptyFolder_RootNotReported(t *testing.T) {
	root := t.TempDir()

	ef := NewEmptyFolder()
	ef.SetIncludedDirectory([]string{root})
	ef.FindEmptyFolders(context.Background(), nil)

	assert.Empty(t, ef.GetEmptyFolderList())
}

func TestEmptyFolder_ExcludedChildKeepsParent(t *testing.T) {
	root := t.TempDir()
	makeTestDirs(t, root, "p/node_modules", "q/skipme", "r")

	ef := NewEmptyFolder()
	ef.SetIncludedDirectory([]string{root})
	ef.SetExcludedItems([]string{"*/node_modules"})
	ef.SetExcludedDirectory([]string{filepath.Join(root, "q", "skipme")})
	ef.FindEmptyFolders(context.Background(), nil)

	assert.Equal(t, []string{filepath.Join(root, "r")}, folderPaths(ef.GetEmptyFolderList()))
}

func TestEmptyFolder_NotRecursive(t *testing.T) {
	root := t.TempDir()
	makeTestDirs(t, root, "empty", "deep/inner")

	ef := NewEmptyFolder()
	ef.SetIncludedDirectory([]string{root})
	ef.SetRecursiveSearch(false)
	ef.FindEmptyFolders(context.Background(), nil)

	// "deep" has a subfolder that was not inspected, so it cannot be called empty
	assert.Equal(t, []string{filepath.Join(root, "empty")}, folderPaths(ef.GetEmptyFolderList()))
}

func TestEmptyFolder_Cancelled(t *testing.T) {
	root := t.TempDir()
	makeTestDirs(t, root, "a", "b")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ef := NewEmptyFolder()
	ef.SetIncludedDirectory([]string{root})
	progress := make(chan ProgressData, 16)
	ef.FindEmptyFolders(ctx, progress)

	assert.Empty(t, ef.GetEmptyFolderList())
	assert.Contains(t, ef.GetTextMessages().CreateMessagesText(), "Scan was stopped")

	updates := drain(progress)
	if assert.NotEmpty(t, updates) {
		last := updates[len(updates)-1]
		assert.Equal(t, "Optimizing folders", last.StepName)
		assert.Equal(t, 50, last.AllProgress)
	}
}

func TestEmptyFolder_NestedIncludedDirectories(t *testing.T) {
	tests := []struct {
		name   string
		nested func(root string) []string
	}{
		{"outer first", func(root string) []string { return []string{root, filepath.Join(root, "b", "c")} }},
		{"inner first", func(root string) []string { return []string{filepath.Join(root, "b", "c"), root} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			makeTestDirs(t, root, "b/c", "empty")
			writeTestFile(t, filepath.Join(root, "b", "c", "data.txt"), 1)

			ef := NewEmptyFolder()
			ef.SetIncludedDirectory(tt.nested(root))
			ef.FindEmptyFolders(context.Background(), nil)

			assert.Equal(t, []string{filepath.Join(root, "empty")}, folderPaths(ef.GetEmptyFolderList()))
		})
	}
}

func TestEmptyFolder_NestedIncludedDirectoryIsKept(t *testing.T) {
	root := t.TempDir()
	makeTestDirs(t, root, "b/c")

	for _, recursive := range []bool{true, false} {
		ef := NewEmptyFolder()
		ef.SetIncludedDirectory([]string{root, filepath.Join(root, "b")})
		ef.SetRecursiveSearch(recursive)
		ef.FindEmptyFolders(context.Background(), nil)

		// b is searched itself, so only its empty child may go
		assert.Equal(t, []string{filepath.Join(root, "b", "c")}, folderPaths(ef.GetEmptyFolderList()), "recursive=%v", recursive)
	}
}

func TestEmptyFolder_StoppedMidWalk(t *testing.T) {
	root := t.TempDir()
	makeTestDirs(t, root, "e1", "e2", "e3", "e4", "e5")

	// the root and two of its children are read before the stop
	ctx := newStopAfterChecks(3)
	ef := NewEmptyFolder()
	ef.SetIncludedDirectory([]string{root})
	ef.FindEmptyFolders(ctx, nil)

	// only folders that were actually read can be called empty
	assert.Equal(t, []string{
		filepath.Join(root, "e4"),
		filepath.Join(root, "e5"),
	}, folderPaths(ef.GetEmptyFolderList()))
	text := ef.GetTextMessages().CreateMessagesText()
	assert.Contains(t, text, "Scan was stopped")
	assert.Contains(t, text, "Found 2 empty folders")
}
