package finder

import (
	"context"
	"os"
	"path/filepath"
)

// EmptyFolder finds directories that contain no files at any depth.
// Only the outermost folder of an empty subtree is reported. The included
// directories and the folders above a nested included directory are never reported.
type EmptyFolder struct {
	CommonToolData
	folders      map[string]*FolderEntry
	roots        map[string]bool
	emptyFolders map[string]FolderEntry
}

// NewEmptyFolder creates an empty folder finder with default settings
func NewEmptyFolder() *EmptyFolder {
	return &EmptyFolder{CommonToolData: newCommonToolData()}
}

type folderToVisit struct {
	dirToVisit
	depth int
}

// FindEmptyFolders runs the scan. It blocks until the walk ends or ctx is cancelled.
func (ef *EmptyFolder) FindEmptyFolders(ctx context.Context, progress chan<- ProgressData) {
	ef.folders = make(map[string]*FolderEntry)
	ef.roots = make(map[string]bool)
	ef.emptyFolders = make(map[string]FolderEntry)

	pr := newProgressReporter(progress, 2)
	pr.startStage(0, "Collecting folders")

	// nested included directories are walked as part of their outer one
	for _, dir := range ef.includedDirectories {
		ef.roots[dir] = true
	}
	var stack []folderToVisit
	for _, root := range ef.rootsToVisit() {
		ef.roots[root.path] = true
		ef.addFolder(root.path, "")
		stack = append(stack, folderToVisit{dirToVisit: root})
	}

	checked := 0
	for len(stack) > 0 {
		if isStopped(ctx) {
			// Unvisited folders were never checked, so they cannot be called empty.
			for _, pending := range stack {
				ef.markNotEmpty(pending.path)
			}
			break
		}

		dir := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		checked++
		pr.update(checked, 0)

		entries, err := os.ReadDir(dir.path)
		if err != nil {
			ef.messages.AddWarning("Cannot open dir %s, reason %v", dir.path, err)
			ef.markNotEmpty(dir.path)
			continue
		}

		for _, entry := range entries {
			fullPath := filepath.Join(dir.path, entry.Name())

			if !entry.IsDir() {
				ef.markNotEmpty(dir.path)
				continue
			}

			// An excluded or unreachable subfolder may hold files, so its parent is not empty.
			if ef.excludedItems.IsExcluded(fullPath) || ef.isExcludedDirectory(fullPath) {
				ef.markNotEmpty(dir.path)
				continue
			}
			// A folder holding an included directory is never offered for removal.
			if ef.roots[fullPath] {
				ef.markNotEmpty(dir.path)
			}
			if dir.depth > 0 && !ef.recursiveSearch {
				ef.markNotEmpty(dir.path)
				continue
			}
			next, ok := ef.descend(dir.dirToVisit, fullPath)
			if !ok && ef.recursiveSearch {
				ef.markNotEmpty(dir.path)
				continue
			}
			if !ok {
				// Non-recursive: inspect the direct child without entering deeper.
				next = dirToVisit{path: fullPath, device: dir.device, hasDev: dir.hasDev}
			}
			if _, seen := ef.folders[fullPath]; seen {
				continue
			}
			ef.addFolder(fullPath, dir.path)
			stack = append(stack, folderToVisit{dirToVisit: next, depth: dir.depth + 1})
		}
	}

	pr.startStage(1, "Optimizing folders")
	ef.optimizeFolders()

	if isStopped(ctx) {
		ef.messages.AddMessage("Scan was stopped, results are incomplete")
	}
	ef.messages.AddMessage("Found %d empty folders", len(ef.emptyFolders))
}

func (ef *EmptyFolder) addFolder(path, parent string) {
	var modified uint64
	if info, err := os.Stat(path); err == nil {
		modified = unixSeconds(info.ModTime())
	}
	ef.folders[path] = &FolderEntry{
		Path:         path,
		ParentPath:   parent,
		IsEmpty:      true,
		ModifiedDate: modified,
	}
}

// markNotEmpty flags the folder and all of its recorded ancestors
func (ef *EmptyFolder) markNotEmpty(path string) {
	for path != "" {
		folder, ok := ef.folders[path]
		if !ok || !folder.IsEmpty {
			return
		}
		folder.IsEmpty = false
		path = folder.ParentPath
	}
}

// optimizeFolders keeps only the outermost empty folders
func (ef *EmptyFolder) optimizeFolders() {
	for path, folder := range ef.folders {
		if !folder.IsEmpty || ef.roots[path] {
			continue
		}
		parent, ok := ef.folders[folder.ParentPath]
		if ok && parent.IsEmpty && !ef.roots[folder.ParentPath] {
			continue
		}
		ef.emptyFolders[path] = *folder
	}
}

// GetEmptyFolderList returns the outermost empty folders keyed by path
func (ef *EmptyFolder) GetEmptyFolderList() map[string]FolderEntry {
	return ef.emptyFolders
}
