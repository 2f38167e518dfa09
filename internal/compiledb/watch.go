package compiledb

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// DefaultDebounce is how long Watch waits after the last record event
// before rewriting the database.
const DefaultDebounce = 250 * time.Millisecond

// Refresh collects dir and writes the database to output.
// It returns the number of commands written.
func Refresh(dir, output string, opts Options) (int, error) {
	commands, err := Collect(dir, opts)
	if err != nil {
		return 0, err
	}
	if err := WriteFile(output, commands); err != nil {
		return 0, err
	}
	return len(commands), nil
}

// Watch writes the database once, then rewrites it whenever a record lands
// in dir, until ctx is cancelled. Records are renamed into place by the
// writer, so a create event always refers to a complete file.
func Watch(ctx context.Context, dir, output string, opts Options, debounce time.Duration, log logrus.FieldLogger) error {
	if sameDir(dir, filepath.Dir(output)) && filepath.Ext(output) == RecordExt {
		// Each rewrite would be picked up as a record.
		return fmt.Errorf("output %s must not be a %s file inside the cache directory", output, RecordExt)
	}

	if err := checkDir(dir); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() {
		if err := watcher.Close(); err != nil {
			log.WithError(err).Warn("Error closing watcher")
		}
	}()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	// Watch before the first write so no record slips in between.
	if _, err := Refresh(dir, output, opts); err != nil {
		return err
	}

	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	timer := time.NewTimer(debounce)
	timer.Stop()

	log.WithField("cache_dir", dir).Info("Watching for new records")

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if isRecordEvent(event) {
				timer.Reset(debounce)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.WithError(err).Warn("Watcher error")

		case <-timer.C:
			n, err := Refresh(dir, output, opts)
			if err != nil {
				// A record may be mid-rename; the next event retries.
				log.WithError(err).Warn("Could not refresh compilation database")
				continue
			}
			log.WithField("output", output).Infof("Wrote %d command(s)", n)
		}
	}
}

func sameDir(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}

func isRecordEvent(event fsnotify.Event) bool {
	name := filepath.Base(event.Name)
	if strings.HasPrefix(name, ".") || filepath.Ext(name) != RecordExt {
		return false
	}
	return event.Has(fsnotify.Create) || event.Has(fsnotify.Write)
}
