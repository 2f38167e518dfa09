package capture

import (
	"errors"
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/mrzor/compiler-monitor/internal/procmeta"
)

// ErrInvalidFilter is returned when a filter expression does not compile.
var ErrInvalidFilter = errors.New("invalid filter expression")

// Filter decides whether a capture is recorded.
//
// Expressions see:
//   - name: executable name
//   - pid: process id
//   - command: expanded command line
//   - directory: working directory
//   - files: source files found in the command
//   - args: tokenized command line
type Filter struct {
	source  string
	program *vm.Program
}

func filterEnv(meta *procmeta.ProcessMetadata, command string, files, args []string) map[string]interface{} {
	return map[string]interface{}{
		"name":      meta.Name,
		"pid":       int(meta.PID),
		"command":   command,
		"directory": meta.WorkingDir,
		"files":     files,
		"args":      args,
	}
}

// NewFilter compiles source. An empty source yields a nil Filter, which
// allows everything.
func NewFilter(source string) (*Filter, error) {
	if source == "" {
		return nil, nil
	}

	env := filterEnv(&procmeta.ProcessMetadata{}, "", []string{}, []string{})
	program, err := expr.Compile(source, expr.Env(env), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrInvalidFilter, source, err)
	}

	return &Filter{source: source, program: program}, nil
}

// String returns the expression source.
func (f *Filter) String() string {
	if f == nil {
		return ""
	}
	return f.source
}

// Allow evaluates the filter for one capture.
func (f *Filter) Allow(meta *procmeta.ProcessMetadata, command string, files, args []string) (bool, error) {
	if f == nil {
		return true, nil
	}

	output, err := expr.Run(f.program, filterEnv(meta, command, files, args))
	if err != nil {
		return false, fmt.Errorf("failed to evaluate filter: %w", err)
	}

	allowed, ok := output.(bool)
	if !ok {
		return false, fmt.Errorf("filter returned %T, want bool", output)
	}
	return allowed, nil
}
