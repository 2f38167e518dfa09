// Package srcfile finds the native source files named on a compiler command line.
package srcfile

import (
	"strings"
)

// sourceExtensions are matched case-insensitively against the end of each argument.
var sourceExtensions = []string{".c", ".cpp", ".cc", ".cxx", ".c++"}

// Tokenize splits a command line on spaces, keeping double-quoted regions
// together. Quote characters toggle the quoted state and are not part of
// the resulting arguments. Backslashes are ordinary characters, so
// `/I"C:\inc\"` closes its quote as a compiler would expect for a path.
func Tokenize(command string) []string {
	var (
		args     []string
		current  strings.Builder
		inQuotes bool
	)

	for _, r := range command {
		switch {
		case r == '"':
			inQuotes = !inQuotes
		case r == ' ' && !inQuotes:
			if current.Len() > 0 {
				args = append(args, current.String())
				current.Reset()
			}
		default:
			current.WriteRune(r)
		}
	}

	if current.Len() > 0 {
		args = append(args, current.String())
	}

	return args
}

// IsSource reports whether arg names a C or C++ translation unit.
func IsSource(arg string) bool {
	lower := strings.ToLower(arg)
	for _, ext := range sourceExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// Extract returns the source files named in command, made absolute against
// dir, in the order they first appear. Case is preserved. A command without
// source files yields an empty slice.
func Extract(command, dir string) []string {
	sources := []string{}
	for _, arg := range Tokenize(command) {
		if !IsSource(arg) {
			continue
		}
		if IsAbs(arg) {
			sources = append(sources, arg)
		} else {
			sources = append(sources, Join(dir, arg))
		}
	}
	return sources
}
