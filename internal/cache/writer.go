// Package cache persists captures into the cache directory shared with the
// collector.
//
// Every capture record and every archived response file gets its own file,
// named by a zero-padded sequence number. The two sequences are independent
// and resume from the highest number already present when a Writer starts,
// so restarting the recorder never overwrites earlier captures. Two writers
// started at the same moment against the same directory can still collide.
package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/mrzor/compiler-monitor/internal/compiledb"
	"github.com/mrzor/compiler-monitor/internal/metrics"
	"github.com/sirupsen/logrus"
)

// Writer allocates sequence numbers and writes files into one cache directory.
// It is safe for concurrent use.
type Writer struct {
	dir string
	log logrus.FieldLogger

	mu          sync.Mutex
	commandSeq  uint64
	responseSeq uint64
}

// NewWriter creates dir if needed and resumes both sequences from its contents.
func NewWriter(dir string, log logrus.FieldLogger) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	w := &Writer{dir: dir, log: log}
	if err := w.resume(); err != nil {
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"cache_dir":     dir,
		"next_command":  compiledb.CommandFileName(w.commandSeq + 1),
		"next_response": compiledb.ResponseFileName(w.responseSeq + 1),
	}).Debug("Cache writer ready")

	return w, nil
}

func (w *Writer) resume() error {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return fmt.Errorf("failed to read cache directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if seq, ok := compiledb.ParseCommandSeq(entry.Name()); ok && seq > w.commandSeq {
			w.commandSeq = seq
		}
		if seq, ok := compiledb.ParseResponseSeq(entry.Name()); ok && seq > w.responseSeq {
			w.responseSeq = seq
		}
	}
	return nil
}

// Dir returns the cache directory.
func (w *Writer) Dir() string {
	return w.dir
}

// Persist writes cmd as the next command record and returns its path.
func (w *Writer) Persist(cmd compiledb.Command) (string, error) {
	var b strings.Builder
	enc := json.NewEncoder(&b)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(cmd); err != nil {
		return "", fmt.Errorf("failed to serialize command: %w", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	// The directory may have been removed while recording.
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		metrics.CaptureWriteFailures.Inc()
		return "", fmt.Errorf("failed to create cache directory: %w", err)
	}

	w.commandSeq++
	path := filepath.Join(w.dir, compiledb.CommandFileName(w.commandSeq))
	if err := compiledb.WriteFileAtomic(path, []byte(b.String())); err != nil {
		metrics.CaptureWriteFailures.Inc()
		return "", err
	}

	metrics.CapturesWritten.Inc()
	return path, nil
}

// ArchiveResponse writes the decoded text of a response file and returns its path.
func (w *Writer) ArchiveResponse(text string) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create cache directory: %w", err)
	}

	w.responseSeq++
	path := filepath.Join(w.dir, compiledb.ResponseFileName(w.responseSeq))
	if err := compiledb.WriteFileAtomic(path, []byte(text)); err != nil {
		return "", err
	}

	metrics.ResponseFilesArchived.Inc()
	return path, nil
}
