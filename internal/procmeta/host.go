package procmeta

// Lister enumerates running processes.
type Lister interface {
	Processes() ([]Process, error)
}

// Host bundles the OS-facing sources used by the recorder.
type Host struct {
	Lister   Lister
	Resolver *Resolver
	closer   func() error
}

// Close releases the resources held by the host's sources.
func (h *Host) Close() error {
	if h.closer == nil {
		return nil
	}
	return h.closer()
}
