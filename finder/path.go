package finder

import (
	"path/filepath"
	"strings"
)

// SplitPath returns the directory and the file name of path
func SplitPath(path string) (directory, file string) {
	path = filepath.Clean(path)
	directory, file = filepath.Split(path)
	if len(directory) > 1 {
		directory = strings.TrimSuffix(directory, string(filepath.Separator))
	}
	return directory, file
}

// SplitPathCompare orders paths by directory first and file name second.
// Directories are compared component by component, so "/a/b/x" sorts
// before "/a-b/x" and all files of one directory stay together.
func SplitPathCompare(a, b string) int {
	dirA, fileA := SplitPath(a)
	dirB, fileB := SplitPath(b)

	if c := compareComponents(dirA, dirB); c != 0 {
		return c
	}
	return strings.Compare(fileA, fileB)
}

func compareComponents(a, b string) int {
	partsA := splitComponents(a)
	partsB := splitComponents(b)

	for i := 0; i < len(partsA) && i < len(partsB); i++ {
		if c := strings.Compare(partsA[i], partsB[i]); c != 0 {
			return c
		}
	}

	switch {
	case len(partsA) < len(partsB):
		return -1
	case len(partsA) > len(partsB):
		return 1
	default:
		return 0
	}
}

func splitComponents(path string) []string {
	parts := strings.Split(filepath.ToSlash(path), "/")
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
