// Package pathfilter selects repository paths with gitignore-style globs.
package pathfilter

import (
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

// Filter keeps paths matching any include pattern (all paths when there is
// none) and drops paths matching any exclude pattern.
type Filter struct {
	include gitignore.Matcher
	exclude gitignore.Matcher
}

// New compiles the include and exclude patterns.
func New(include, exclude []string) (*Filter, error) {
	includeMatcher, err := compile(include)
	if err != nil {
		return nil, fmt.Errorf("invalid include pattern: %w", err)
	}
	excludeMatcher, err := compile(exclude)
	if err != nil {
		return nil, fmt.Errorf("invalid exclude pattern: %w", err)
	}
	return &Filter{include: includeMatcher, exclude: excludeMatcher}, nil
}

// Match reports whether the slash-separated path is selected.
func (f *Filter) Match(path string) bool {
	parts := strings.Split(strings.TrimPrefix(path, "/"), "/")
	if f.include != nil && !f.include.Match(parts, false) {
		return false
	}
	if f.exclude != nil && f.exclude.Match(parts, false) {
		return false
	}
	return true
}

func compile(patterns []string) (gitignore.Matcher, error) {
	if len(patterns) == 0 {
		return nil, nil //nolint:nilnil // no patterns means no constraint
	}
	parsed := make([]gitignore.Pattern, 0, len(patterns))
	for _, raw := range patterns {
		pattern := strings.TrimSpace(raw)
		if pattern == "" {
			return nil, fmt.Errorf("empty pattern in %q", patterns)
		}
		parsed = append(parsed, gitignore.ParsePattern(pattern, nil))
	}
	return gitignore.NewMatcher(parsed), nil
}
