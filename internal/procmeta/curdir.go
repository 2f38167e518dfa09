package procmeta

import (
	"fmt"
	"strings"
)

// maxCurrentDirBytes bounds the current directory length read from a
// foreign process.
const maxCurrentDirBytes = 32768

// checkCurrentDirLength validates the byte length of a UTF-16 current
// directory string before anything is read from the target process.
func checkCurrentDirLength(length uint16) error {
	switch {
	case length == 0:
		return fmt.Errorf("current directory is empty")
	case length > maxCurrentDirBytes:
		return fmt.Errorf("current directory length %d exceeds %d bytes", length, maxCurrentDirBytes)
	case length%2 != 0:
		return fmt.Errorf("current directory length %d is not a whole number of UTF-16 units", length)
	}
	return nil
}

// trimTrailingSeparator drops a single trailing separator, leaving drive
// roots such as `C:\` intact.
func trimTrailingSeparator(dir string) string {
	if len(dir) == 3 && dir[1] == ':' {
		return dir
	}
	if strings.HasSuffix(dir, `\`) || strings.HasSuffix(dir, "/") {
		return dir[:len(dir)-1]
	}
	return dir
}
