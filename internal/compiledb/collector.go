package compiledb

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// ErrCacheDirMissing is returned when collecting from a directory that does not exist.
var ErrCacheDirMissing = errors.New("cache directory does not exist")

// Options tunes collection.
type Options struct {
	// Latest keeps only the most recent record per source file.
	Latest bool
}

// Collect reads every capture record in dir and returns them sorted by
// source file. A record that cannot be read or parsed fails the whole
// collection: a partial database is worse than none.
func Collect(dir string, opts Options) ([]Command, error) {
	if err := checkDir(dir); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read cache directory: %w", err)
	}

	type record struct {
		seq uint64
		cmd Command
	}

	records := make([]record, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != RecordExt {
			continue
		}

		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}

		var cmd Command
		if err := json.Unmarshal(data, &cmd); err != nil {
			return nil, fmt.Errorf("failed to parse JSON from %s: %w", path, err)
		}

		seq, _ := ParseCommandSeq(name)
		records = append(records, record{seq: seq, cmd: cmd})
	}

	if opts.Latest {
		latest := make(map[string]int, len(records))
		kept := records[:0]
		for _, r := range records {
			if i, seen := latest[r.cmd.File]; seen {
				if r.seq >= kept[i].seq {
					kept[i] = r
				}
				continue
			}
			latest[r.cmd.File] = len(kept)
			kept = append(kept, r)
		}
		records = kept
	}

	commands := make([]Command, 0, len(records))
	for _, r := range records {
		commands = append(commands, r.cmd)
	}

	// Directory listing order is already stable, so equal files keep
	// capture order.
	slices.SortStableFunc(commands, func(a, b Command) int {
		return strings.Compare(a.File, b.File)
	})

	return commands, nil
}

func checkDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrCacheDirMissing, dir)
		}
		return fmt.Errorf("failed to stat cache directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrCacheDirMissing, dir)
	}
	return nil
}

// Encode writes commands as an indented JSON array.
func Encode(w io.Writer, commands []Command) error {
	if commands == nil {
		commands = []Command{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(commands); err != nil {
		return fmt.Errorf("failed to serialize commands: %w", err)
	}
	return nil
}

// WriteFile replaces path with the encoded database.
func WriteFile(path string, commands []Command) error {
	var b strings.Builder
	if err := Encode(&b, commands); err != nil {
		return err
	}
	return WriteFileAtomic(path, []byte(b.String()))
}
