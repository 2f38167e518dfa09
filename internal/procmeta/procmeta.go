package procmeta

import "errors"

// ErrUnsupportedPlatform is returned by OpenHost on hosts without the
// process inspection APIs the recorder relies on.
var ErrUnsupportedPlatform = errors.New("process inspection is only supported on Windows")

// Process identifies one running process instance.
// The pair is used as the dedup key since pids are recycled.
type Process struct {
	PID  uint32
	Name string
}

// ProcessMetadata holds what was resolved for a matched process.
type ProcessMetadata struct {
	PID         uint32
	Name        string
	CommandLine string // Empty when the process could not be queried
	WorkingDir  string
}
