package capture

import (
	"context"
	"errors"
	"fmt"

	"github.com/mrzor/compiler-monitor/internal/compiledb"
	"github.com/mrzor/compiler-monitor/internal/procmeta"
	"github.com/mrzor/compiler-monitor/internal/srcfile"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Expander inlines response files referenced by a command line.
type Expander interface {
	Expand(command, dir string) string
}

// Persister stores one capture record.
type Persister interface {
	Persist(cmd compiledb.Command) (string, error)
}

// Processor runs the capture pipeline for resolved processes.
type Processor struct {
	expander  Expander
	persister Persister
	filter    *Filter
	tracer    trace.Tracer
	log       logrus.FieldLogger
}

// NewProcessor creates a processor. filter may be nil.
func NewProcessor(expander Expander, persister Persister, filter *Filter, tracer trace.Tracer, log logrus.FieldLogger) *Processor {
	return &Processor{
		expander:  expander,
		persister: persister,
		filter:    filter,
		tracer:    tracer,
		log:       log,
	}
}

// HandleProcess records one capture per source file compiled by meta and
// returns how many were written. Persist failures are joined; the records
// that could be written stay written.
func (p *Processor) HandleProcess(ctx context.Context, meta *procmeta.ProcessMetadata) (int, error) {
	_, span := p.tracer.Start(ctx, "capture", trace.WithAttributes(
		attribute.Int("process.pid", int(meta.PID)),
		attribute.String("process.executable.name", meta.Name),
	))
	defer span.End()

	log := p.log.WithFields(logrus.Fields{"pid": meta.PID, "name": meta.Name})

	if meta.CommandLine == "" {
		log.Debug("No command line, nothing to capture")
		return 0, nil
	}

	command := p.expander.Expand(meta.CommandLine, meta.WorkingDir)
	files := srcfile.Extract(command, meta.WorkingDir)
	span.SetAttributes(attribute.Int("compiler_monitor.files", len(files)))

	if len(files) == 0 {
		log.WithField("command", command).Warn("No source files in command line")
		return 0, nil
	}

	allowed, err := p.filter.Allow(meta, command, files, srcfile.Tokenize(command))
	if err != nil {
		log.WithError(err).Warn("Filter failed, capturing anyway")
		allowed = true
	}
	if !allowed {
		log.WithField("filter", p.filter.String()).Info("Capture skipped by filter")
		span.SetAttributes(attribute.Bool("compiler_monitor.filtered", true))
		return 0, nil
	}

	var errs []error
	written := 0
	for _, file := range files {
		path, err := p.persister.Persist(compiledb.Command{
			Directory: meta.WorkingDir,
			Command:   command,
			File:      file,
		})
		if err != nil {
			log.WithError(err).WithField("file", file).Error("Could not write capture record")
			errs = append(errs, fmt.Errorf("failed to persist %s: %w", file, err))
			continue
		}
		log.WithFields(logrus.Fields{"file": file, "record": path}).Debug("Wrote capture record")
		written++
	}

	if written > 0 {
		log.WithField("directory", meta.WorkingDir).Infof("Captured %d source file(s)", written)
	}

	if err := errors.Join(errs...); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "capture incomplete")
		return written, err
	}
	return written, nil
}
