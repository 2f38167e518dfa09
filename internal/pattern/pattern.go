// Package pattern matches process executable names against shell-style globs.
//
// Only two wildcards are meaningful: '*' matches any run of characters
// (including none) and '?' matches exactly one character. Every other
// character, including glob syntax such as '[' or '{', is matched literally.
// Matching is anchored to the whole name and case-insensitive.
package pattern

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gobwas/glob"
)

// ErrInvalidPattern is returned when a pattern cannot be compiled.
var ErrInvalidPattern = errors.New("invalid process name pattern")

// Matcher is a compiled process name pattern.
type Matcher struct {
	raw  string
	glob glob.Glob
}

// Compile translates a process name glob into a Matcher.
func Compile(pattern string) (*Matcher, error) {
	if strings.TrimSpace(pattern) == "" {
		return nil, fmt.Errorf("%w: pattern is empty", ErrInvalidPattern)
	}

	g, err := glob.Compile(translate(strings.ToLower(pattern)))
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidPattern, pattern, err)
	}

	return &Matcher{raw: pattern, glob: g}, nil
}

// translate escapes everything except the two supported wildcards.
func translate(pattern string) string {
	var b strings.Builder
	for _, r := range pattern {
		switch r {
		case '*', '?':
			b.WriteRune(r)
		default:
			b.WriteString(glob.QuoteMeta(string(r)))
		}
	}
	return b.String()
}

// Matches reports whether name matches the whole pattern, ignoring case.
func (m *Matcher) Matches(name string) bool {
	return m.glob.Match(strings.ToLower(name))
}

// String returns the pattern as it was given to Compile.
func (m *Matcher) String() string {
	return m.raw
}
