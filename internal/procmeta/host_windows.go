//go:build windows

package procmeta

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// OpenHost connects to WMI and returns the Windows process sources.
func OpenHost(log logrus.FieldLogger) (*Host, error) {
	wmi, err := NewWMIClient()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to WMI: %w", err)
	}

	return &Host{
		Lister:   Snapshotter{},
		Resolver: NewResolver(wmi, PEBReader{}, log),
		closer:   wmi.Close,
	}, nil
}
