package procmeta

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
)

// CommandLineSource returns the full command line of a process.
// An empty string with a nil error means the process has nothing to report.
type CommandLineSource interface {
	CommandLine(pid uint32) (string, error)
}

// WorkingDirSource returns the current directory of a process.
type WorkingDirSource interface {
	WorkingDir(pid uint32) (string, error)
}

// Resolver combines a command line source and a working directory source.
type Resolver struct {
	commands CommandLineSource
	dirs     WorkingDirSource
	getwd    func() (string, error)
	log      logrus.FieldLogger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithGetwd replaces os.Getwd as the last-resort working directory.
func WithGetwd(getwd func() (string, error)) Option {
	return func(r *Resolver) {
		r.getwd = getwd
	}
}

// NewResolver creates a resolver. dirs may be nil, in which case every
// process gets the fallback directory.
func NewResolver(commands CommandLineSource, dirs WorkingDirSource, log logrus.FieldLogger, opts ...Option) *Resolver {
	r := &Resolver{
		commands: commands,
		dirs:     dirs,
		getwd:    os.Getwd,
		log:      log,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve queries the command line and working directory of p.
// A process with an empty command line is returned without a working
// directory; there is nothing to record for it.
func (r *Resolver) Resolve(p Process) (*ProcessMetadata, error) {
	meta := &ProcessMetadata{PID: p.PID, Name: p.Name}

	cmdline, err := r.commands.CommandLine(p.PID)
	if err != nil {
		return nil, fmt.Errorf("failed to query command line of pid %d: %w", p.PID, err)
	}
	meta.CommandLine = cmdline
	if cmdline == "" {
		return meta, nil
	}

	dir, err := r.workingDir(p.PID)
	if err != nil {
		return nil, err
	}
	meta.WorkingDir = dir
	return meta, nil
}

func (r *Resolver) workingDir(pid uint32) (string, error) {
	if r.dirs != nil {
		dir, err := r.dirs.WorkingDir(pid)
		if err == nil && dir != "" {
			return dir, nil
		}
		r.log.WithField("pid", pid).WithError(err).Debug("Falling back to own working directory")
	}

	dir, err := r.getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}
	return dir, nil
}
