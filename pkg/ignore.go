package treeutils

import (
	"fmt"
	"path/filepath"
	"regexp"
)

// ExcludeManager holds compiled exclude patterns shared by the differ and the
// duplicate scanner. Patterns are Go regular expressions matched against
// root-relative paths; an excluded name is invisible to classification on
// both sides of a comparison.
type ExcludeManager struct {
	patterns []*regexp.Regexp
}

// NewExcludeManager creates an exclude manager from pattern strings, typically
// gathered from --exclude flags and the [exclude] config section. Invalid
// patterns fail here rather than at match time.
func NewExcludeManager(patterns []string) (*ExcludeManager, error) {
	em := &ExcludeManager{
		patterns: make([]*regexp.Regexp, 0, len(patterns)),
	}
	for _, pattern := range patterns {
		if err := em.AddPattern(pattern); err != nil {
			return nil, err
		}
	}
	return em, nil
}

// AddPattern compiles and adds one exclude pattern
func (em *ExcludeManager) AddPattern(patternStr string) error {
	pattern, err := regexp.Compile(patternStr)
	if err != nil {
		return fmt.Errorf("invalid exclude pattern: %s - %w", patternStr, err)
	}

	em.patterns = append(em.patterns, pattern)
	return nil
}

// ShouldExclude checks if a root-relative path matches any exclude pattern
func (em *ExcludeManager) ShouldExclude(relativePath string) bool {
	if em == nil || len(em.patterns) == 0 {
		return false
	}

	// Normalise path separators to forward slashes for consistent pattern matching
	normalisedPath := filepath.ToSlash(relativePath)

	for _, pattern := range em.patterns {
		if pattern.MatchString(normalisedPath) {
			return true
		}
	}

	return false
}

// HasPatterns returns true if there are any exclude patterns loaded
func (em *ExcludeManager) HasPatterns() bool {
	return em != nil && len(em.patterns) > 0
}

// Patterns returns the source strings of all loaded patterns
func (em *ExcludeManager) Patterns() []string {
	if em == nil {
		return nil
	}
	out := make([]string, len(em.patterns))
	for i, pattern := range em.patterns {
		out[i] = pattern.String()
	}
	return out
}
