//go:build !windows

package procmeta

import "github.com/sirupsen/logrus"

// OpenHost always fails: recording needs the Windows process APIs.
func OpenHost(_ logrus.FieldLogger) (*Host, error) {
	return nil, ErrUnsupportedPlatform
}
