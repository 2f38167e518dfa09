// Package scanner polls the process list and feeds new compiler processes
// into the capture pipeline.
//
// Each tick runs enumerate → filter → dedup → resolve+capture → housekeeping
// serially. Nothing that goes wrong inside a tick stops the loop.
package scanner

import (
	"context"
	"fmt"
	"time"

	"github.com/mrzor/compiler-monitor/internal/metrics"
	"github.com/mrzor/compiler-monitor/internal/procmeta"
	"github.com/sirupsen/logrus"
)

// DefaultInterval is the default pause between two ticks.
const DefaultInterval = 50 * time.Millisecond

// Lister enumerates running processes.
type Lister interface {
	Processes() ([]procmeta.Process, error)
}

// Matcher selects processes by executable name.
type Matcher interface {
	Matches(name string) bool
}

// Resolver fills in the command line and working directory of a process.
type Resolver interface {
	Resolve(p procmeta.Process) (*procmeta.ProcessMetadata, error)
}

// Handler records a resolved process.
type Handler interface {
	HandleProcess(ctx context.Context, meta *procmeta.ProcessMetadata) (int, error)
}

// Config tunes the scan loop.
type Config struct {
	Interval   time.Duration
	MaxTracked int
}

// Scanner drives the capture pipeline from periodic process snapshots.
type Scanner struct {
	lister   Lister
	matcher  Matcher
	resolver Resolver
	handler  Handler
	tracker  *procmeta.Tracker
	cfg      Config
	log      logrus.FieldLogger
}

// New creates a scanner. Zero config values take their defaults.
func New(lister Lister, matcher Matcher, resolver Resolver, handler Handler, cfg Config, log logrus.FieldLogger) *Scanner {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.MaxTracked <= 0 {
		cfg.MaxTracked = procmeta.DefaultMaxTracked
	}

	return &Scanner{
		lister:   lister,
		matcher:  matcher,
		resolver: resolver,
		handler:  handler,
		tracker:  procmeta.NewTracker(),
		cfg:      cfg,
		log:      log,
	}
}

// Tracked returns the number of processes in the current tracking window.
func (s *Scanner) Tracked() int {
	return s.tracker.Len()
}

// Run ticks until ctx is cancelled. Captures are already on disk when a
// tick ends, so stopping needs no flush.
func (s *Scanner) Run(ctx context.Context) error {
	s.log.WithField("interval", s.cfg.Interval).Info("Scanning for compiler processes")

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		if err := s.Tick(ctx); err != nil {
			s.log.WithError(err).Warn("Scan failed")
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Tick runs one scan. Only a failure to enumerate processes is returned;
// per-process failures are logged.
func (s *Scanner) Tick(ctx context.Context) error {
	procs, err := s.lister.Processes()
	if err != nil {
		metrics.ScanErrors.Inc()
		return fmt.Errorf("failed to list processes: %w", err)
	}

	for _, p := range procs {
		if ctx.Err() != nil {
			break
		}
		if !s.matcher.Matches(p.Name) || !s.tracker.Observe(p) {
			continue
		}
		s.handle(ctx, p)
	}

	if s.tracker.Prune(s.cfg.MaxTracked) {
		s.log.WithField("limit", s.cfg.MaxTracked).Info("Reset known process set")
	}
	return nil
}

func (s *Scanner) handle(ctx context.Context, p procmeta.Process) {
	metrics.ProcessesMatched.Inc()
	log := s.log.WithFields(logrus.Fields{"pid": p.PID, "name": p.Name})
	log.Info("Detected compiler process")

	meta, err := s.resolver.Resolve(p)
	if err != nil {
		// Usually the process exited before it could be queried.
		metrics.ResolveFailures.Inc()
		log.WithError(err).Debug("Could not resolve process")
		return
	}
	if meta.CommandLine == "" {
		metrics.ResolveFailures.Inc()
		log.Debug("Process has no command line")
		return
	}

	if _, err := s.handler.HandleProcess(ctx, meta); err != nil {
		log.WithError(err).Warn("Capture incomplete")
	}
}
