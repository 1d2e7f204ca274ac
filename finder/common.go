package finder

import (
	"path/filepath"
	"runtime"
	"strings"

	"github.com/adrg/xdg"
)

// CommonData is the configuration surface shared by every finder
type CommonData interface {
	SetIncludedDirectory(dirs []string)
	SetReferenceDirectory(dirs []string)
	SetExcludedDirectory(dirs []string)
	SetRecursiveSearch(recursive bool)
	SetMinimalFileSize(size uint64)
	SetMaximalFileSize(size uint64)
	SetAllowedExtensions(extensions string)
	SetExcludedExtensions(extensions string)
	SetExcludedItems(items []string)
	SetExcludeOtherFilesystems(exclude bool)
	SetUseCache(useCache bool)
	SetSaveAlsoAsJSON(saveAlsoAsJSON bool)
	SetThreadNumber(threads int)
	GetTextMessages() *Messages
}

// CommonToolData holds the settings every finder accepts. Finders embed it.
type CommonToolData struct {
	includedDirectories     []string
	referenceDirectories    []string
	excludedDirectories     []string
	recursiveSearch         bool
	minimalFileSize         uint64
	maximalFileSize         uint64
	allowedExtensions       map[string]bool
	excludedExtensions      map[string]bool
	excludedItems           *ExcludedItems
	excludeOtherFilesystems bool
	useCache                bool
	saveAlsoAsJSON          bool
	threadNumber            int
	cachePath               string
	useReferenceFolders     bool

	messages Messages
}

func newCommonToolData() CommonToolData {
	return CommonToolData{
		recursiveSearch:    true,
		maximalFileSize:    ^uint64(0),
		allowedExtensions:  make(map[string]bool),
		excludedExtensions: make(map[string]bool),
		excludedItems:      NewExcludedItems(),
		useCache:           true,
		threadNumber:       runtime.NumCPU(),
	}
}

func (c *CommonToolData) SetIncludedDirectory(dirs []string) {
	c.includedDirectories = cleanDirectories(dirs)
}

func (c *CommonToolData) SetReferenceDirectory(dirs []string) {
	c.referenceDirectories = cleanDirectories(dirs)
	c.useReferenceFolders = len(c.referenceDirectories) > 0
}

func (c *CommonToolData) SetExcludedDirectory(dirs []string) {
	c.excludedDirectories = cleanDirectories(dirs)
}

func (c *CommonToolData) SetRecursiveSearch(recursive bool) {
	c.recursiveSearch = recursive
}

func (c *CommonToolData) SetMinimalFileSize(size uint64) {
	c.minimalFileSize = size
}

// SetMaximalFileSize sets the upper size bound; 0 means no bound
func (c *CommonToolData) SetMaximalFileSize(size uint64) {
	if size == 0 {
		size = ^uint64(0)
	}
	c.maximalFileSize = size
}

func (c *CommonToolData) SetAllowedExtensions(extensions string) {
	c.allowedExtensions = parseExtensions(extensions)
}

func (c *CommonToolData) SetExcludedExtensions(extensions string) {
	c.excludedExtensions = parseExtensions(extensions)
}

func (c *CommonToolData) SetExcludedItems(items []string) {
	c.excludedItems = NewExcludedItems()
	for _, item := range items {
		if err := c.excludedItems.AddPattern(item); err != nil {
			c.messages.AddWarning("Excluded item %q is not a valid pattern: %v", item, err)
		}
	}
}

func (c *CommonToolData) SetExcludeOtherFilesystems(exclude bool) {
	c.excludeOtherFilesystems = exclude
}

func (c *CommonToolData) SetUseCache(useCache bool) {
	c.useCache = useCache
}

func (c *CommonToolData) SetSaveAlsoAsJSON(saveAlsoAsJSON bool) {
	c.saveAlsoAsJSON = saveAlsoAsJSON
}

// SetThreadNumber limits how many files are processed concurrently; values below 1 mean all CPUs
func (c *CommonToolData) SetThreadNumber(threads int) {
	if threads < 1 {
		threads = runtime.NumCPU()
	}
	c.threadNumber = threads
}

// SetCachePath overrides the cache database location
func (c *CommonToolData) SetCachePath(path string) {
	c.cachePath = path
}

func (c *CommonToolData) GetTextMessages() *Messages {
	return &c.messages
}

// GetUseReference reports whether reference directories were configured
func (c *CommonToolData) GetUseReference() bool {
	return c.useReferenceFolders
}

// Getters used by tests and the settings round trip

func (c *CommonToolData) IncludedDirectories() []string  { return c.includedDirectories }
func (c *CommonToolData) ReferenceDirectories() []string { return c.referenceDirectories }
func (c *CommonToolData) ExcludedDirectories() []string  { return c.excludedDirectories }
func (c *CommonToolData) RecursiveSearch() bool          { return c.recursiveSearch }
func (c *CommonToolData) MinimalFileSize() uint64        { return c.minimalFileSize }
func (c *CommonToolData) MaximalFileSize() uint64        { return c.maximalFileSize }
func (c *CommonToolData) ExcludedItems() []string        { return c.excludedItems.Patterns() }
func (c *CommonToolData) ExcludeOtherFilesystems() bool  { return c.excludeOtherFilesystems }
func (c *CommonToolData) UseCache() bool                 { return c.useCache }
func (c *CommonToolData) SaveAlsoAsJSON() bool           { return c.saveAlsoAsJSON }
func (c *CommonToolData) ThreadNumber() int              { return c.threadNumber }

// AllowedExtensions returns the allowed extensions without leading dots, sorted
func (c *CommonToolData) AllowedExtensions() []string { return sortedKeys(c.allowedExtensions) }

// ExcludedExtensions returns the excluded extensions without leading dots, sorted
func (c *CommonToolData) ExcludedExtensions() []string { return sortedKeys(c.excludedExtensions) }

func (c *CommonToolData) resolveCachePath() string {
	if c.cachePath != "" {
		return c.cachePath
	}
	path, err := xdg.CacheFile(filepath.Join("clutter-finder", "cache.db"))
	if err != nil {
		return filepath.Join(xdg.CacheHome, "clutter-finder", "cache.db")
	}
	return path
}

// isReferencePath reports whether path lies inside one of the reference directories
func (c *CommonToolData) isReferencePath(path string) bool {
	for _, dir := range c.referenceDirectories {
		if isSubPath(dir, path) {
			return true
		}
	}
	return false
}

func cleanDirectories(dirs []string) []string {
	cleaned := make([]string, 0, len(dirs))
	seen := make(map[string]bool)
	for _, dir := range dirs {
		dir = strings.TrimSpace(dir)
		if dir == "" {
			continue
		}
		if abs, err := filepath.Abs(dir); err == nil {
			dir = abs
		}
		dir = filepath.Clean(dir)
		if seen[dir] {
			continue
		}
		seen[dir] = true
		cleaned = append(cleaned, dir)
	}
	return cleaned
}

// parseExtensions turns "jpg, .PNG,gif" into {"jpg", "png", "gif"}
func parseExtensions(extensions string) map[string]bool {
	result := make(map[string]bool)
	for _, ext := range strings.Split(extensions, ",") {
		ext = strings.ToLower(strings.TrimSpace(ext))
		ext = strings.TrimPrefix(ext, ".")
		if ext == "" {
			continue
		}
		result[ext] = true
	}
	return result
}

func isSubPath(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
