package finder

import (
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// ExcludedItems matches paths against user supplied wildcard patterns
// such as "*/.git/*" or "*.tmp". A '*' matches any run of characters,
// path separators included, and '?' matches a single character.
type ExcludedItems struct {
	patterns []string
	compiled []*regexp.Regexp
}

// NewExcludedItems creates an empty matcher
func NewExcludedItems() *ExcludedItems {
	return &ExcludedItems{}
}

// AddPattern adds a wildcard pattern. Blank patterns are ignored.
func (ei *ExcludedItems) AddPattern(pattern string) error {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return nil
	}

	regex, err := regexp.Compile(wildcardToRegex(filepath.ToSlash(pattern)))
	if err != nil {
		return err
	}

	ei.patterns = append(ei.patterns, pattern)
	ei.compiled = append(ei.compiled, regex)
	return nil
}

// IsExcluded returns true if the path matches any pattern
func (ei *ExcludedItems) IsExcluded(path string) bool {
	if len(ei.compiled) == 0 {
		return false
	}
	slashed := filepath.ToSlash(path)
	for _, regex := range ei.compiled {
		if regex.MatchString(slashed) {
			return true
		}
	}
	return false
}

// Patterns returns the patterns in insertion order
func (ei *ExcludedItems) Patterns() []string {
	out := make([]string, len(ei.patterns))
	copy(out, ei.patterns)
	return out
}

// IsEmpty returns true if no patterns were added
func (ei *ExcludedItems) IsEmpty() bool {
	return len(ei.patterns) == 0
}

// wildcardToRegex converts a wildcard pattern to an anchored regex
func wildcardToRegex(pattern string) string {
	var regex strings.Builder
	regex.WriteString("^")

	for i := 0; i < len(pattern); i++ {
		c := pattern[i]

		switch c {
		case '*':
			regex.WriteString(".*")
		case '?':
			regex.WriteString(".")
		case '.', '+', '^', '$', '(', ')', '[', ']', '{', '}', '|', '\\':
			regex.WriteByte('\\')
			regex.WriteByte(c)
		default:
			regex.WriteByte(c)
		}
	}

	regex.WriteString("$")
	return regex.String()
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
