package finder

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// collectOptions narrows what collectFiles returns
type collectOptions struct {
	// checkSize applies the minimal/maximal file size limits
	checkSize bool
	// extensions, if set, further restricts files to these extensions
	extensions map[string]bool
}

// dirToVisit is one entry of the iterative traversal stack
type dirToVisit struct {
	path   string
	device uint64
	hasDev bool
}

// collectFiles walks all included directories and returns the files that pass
// the configured filters. The walk is iterative so directory depth is not
// bounded by the goroutine stack. On cancellation it returns what it has.
func (c *CommonToolData) collectFiles(ctx context.Context, pr *progressReporter, opts collectOptions) []FileEntry {
	var files []FileEntry
	visited := make(map[string]bool)
	checked := 0

	stack := c.rootsToVisit()
	for len(stack) > 0 {
		if isStopped(ctx) {
			return files
		}

		dir := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if visited[dir.path] {
			continue
		}
		visited[dir.path] = true

		entries, err := os.ReadDir(dir.path)
		if err != nil {
			c.messages.AddWarning("Cannot open dir %s, reason %v", dir.path, err)
			continue
		}

		for _, entry := range entries {
			fullPath := filepath.Join(dir.path, entry.Name())
			if c.excludedItems.IsExcluded(fullPath) {
				continue
			}

			checked++
			pr.update(checked, 0)

			switch {
			case entry.IsDir():
				if next, ok := c.descend(dir, fullPath); ok {
					stack = append(stack, next)
				}
			case entry.Type()&fs.ModeSymlink != 0:
				continue
			case entry.Type().IsRegular():
				if !c.extensionAllowed(fullPath, opts.extensions) {
					continue
				}
				info, err := entry.Info()
				if err != nil {
					c.messages.AddWarning("Cannot read metadata of file %s, reason %v", fullPath, err)
					continue
				}
				size := uint64(info.Size())
				if opts.checkSize && (size < c.minimalFileSize || size > c.maximalFileSize) {
					continue
				}
				files = append(files, FileEntry{
					Path:         fullPath,
					Size:         size,
					ModifiedDate: unixSeconds(info.ModTime()),
				})
			}
		}
	}

	return files
}

// rootsToVisit returns the included directories that exist and are not excluded
func (c *CommonToolData) rootsToVisit() []dirToVisit {
	roots := make([]dirToVisit, 0, len(c.includedDirectories))
	// Reverse order so the stack visits the first included directory first.
	for i := len(c.includedDirectories) - 1; i >= 0; i-- {
		dir := c.includedDirectories[i]
		if c.isExcludedDirectory(dir) || c.excludedItems.IsExcluded(dir) {
			continue
		}
		// a recursive walk of the outer directory already covers it
		if c.recursiveSearch && c.insideOtherIncluded(dir) {
			continue
		}
		info, err := os.Stat(dir)
		if err != nil {
			c.messages.AddWarning("Included directory %s cannot be read, reason %v", dir, err)
			continue
		}
		if !info.IsDir() {
			c.messages.AddWarning("Included path %s is not a directory", dir)
			continue
		}
		dev, ok := deviceID(info)
		roots = append(roots, dirToVisit{path: dir, device: dev, hasDev: ok})
	}
	return roots
}

func (c *CommonToolData) insideOtherIncluded(dir string) bool {
	for _, other := range c.includedDirectories {
		if other != dir && isSubPath(other, dir) {
			return true
		}
	}
	return false
}

// descend decides whether the traversal enters a child directory
func (c *CommonToolData) descend(parent dirToVisit, path string) (dirToVisit, bool) {
	if !c.recursiveSearch || c.isExcludedDirectory(path) {
		return dirToVisit{}, false
	}
	next := dirToVisit{path: path, device: parent.device, hasDev: parent.hasDev}
	if c.excludeOtherFilesystems && parent.hasDev {
		info, err := os.Stat(path)
		if err != nil {
			c.messages.AddWarning("Cannot read metadata of dir %s, reason %v", path, err)
			return dirToVisit{}, false
		}
		if dev, ok := deviceID(info); ok && dev != parent.device {
			return dirToVisit{}, false
		}
	}
	return next, true
}

func (c *CommonToolData) isExcludedDirectory(path string) bool {
	for _, excluded := range c.excludedDirectories {
		if isSubPath(excluded, path) {
			return true
		}
	}
	return false
}

// extensionAllowed applies the allowed/excluded extension lists plus an optional
// finder specific restriction
func (c *CommonToolData) extensionAllowed(path string, restrict map[string]bool) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if c.excludedExtensions[ext] {
		return false
	}
	if len(c.allowedExtensions) > 0 && !c.allowedExtensions[ext] {
		return false
	}
	if restrict != nil && !restrict[ext] {
		return false
	}
	return true
}

func unixSeconds(t time.Time) uint64 {
	sec := t.Unix()
	if sec < 0 {
		return 0
	}
	return uint64(sec)
}
