package srcfile

import (
	"path/filepath"
	"strings"
)

// IsAbs reports whether p is absolute in either Windows or slash form.
// Captured paths come from the monitored host, so this must not depend on
// the OS the collector happens to run on.
func IsAbs(p string) bool {
	switch {
	case hasDriveRoot(p):
		return true
	case strings.HasPrefix(p, `\`), strings.HasPrefix(p, "/"):
		// UNC shares, device paths and rooted paths
		return true
	}
	return filepath.IsAbs(p)
}

// Join appends rel to dir using the separator style dir already uses.
// Unlike filepath.Join it does not clean the result, so ".." segments
// survive as the compiler saw them.
func Join(dir, rel string) string {
	if dir == "" {
		return rel
	}
	sep := "/"
	if isWindowsStyle(dir) {
		sep = `\`
	}
	return strings.TrimRight(dir, `\/`) + sep + rel
}

func hasDriveRoot(p string) bool {
	return len(p) >= 3 && isDriveLetter(p[0]) && p[1] == ':' && (p[2] == '\\' || p[2] == '/')
}

func isWindowsStyle(dir string) bool {
	if len(dir) >= 2 && isDriveLetter(dir[0]) && dir[1] == ':' {
		return true
	}
	return strings.Contains(dir, `\`)
}

func isDriveLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
