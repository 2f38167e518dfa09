// Package rspfile expands "@file" response file references on compiler
// command lines.
//
// Build systems pass long argument lists through response files and often
// delete them as soon as the compiler exits. The expander reads each
// referenced file while it still exists, archives a copy, and splices its
// flattened contents back into the command line so the recorded command is
// self-contained:
//
//	cl.exe @C:\Temp\abc123.rsp /Fo"out.obj"
//	        │
//	        ├── read + Decode ──→ Archiver (response_NNNNNN.rsp)
//	        └── Normalize ─────→ cl.exe /I "C:\inc" /DX=1 /Fo"out.obj"
//
// A response file that cannot be read is logged and its token is left in
// place; expansion never fails the capture as a whole.
package rspfile

import (
	"os"
	"regexp"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/mrzor/compiler-monitor/internal/srcfile"
	"github.com/sirupsen/logrus"
)

// tokenPattern matches an "@path" argument at the start of the command or
// after whitespace.
var tokenPattern = regexp.MustCompile(`(^|\s)@\S+`)

// Archiver stores a decoded copy of a response file before it disappears.
type Archiver interface {
	ArchiveResponse(text string) (string, error)
}

// Expander replaces response file references with their contents.
type Expander struct {
	archiver Archiver
	log      logrus.FieldLogger
	readFile func(string) ([]byte, error)
}

// NewExpander creates an expander that archives through archiver.
// A nil archiver disables archiving.
func NewExpander(archiver Archiver, log logrus.FieldLogger) *Expander {
	return &Expander{
		archiver: archiver,
		log:      log,
		readFile: os.ReadFile,
	}
}

// Expand returns command with every readable "@path" token replaced by the
// normalized contents of the file it names. Relative paths are resolved
// against dir.
func (e *Expander) Expand(command, dir string) string {
	refs := References(command)
	if len(refs) == 0 {
		return command
	}

	expansions := make(map[string]string, len(refs))
	for _, ref := range refs {
		if _, done := expansions[ref]; done {
			continue
		}

		text, ok := e.load(ref, dir)
		if !ok {
			continue
		}
		expansions[ref] = Normalize(text)
	}

	return tokenPattern.ReplaceAllStringFunc(command, func(match string) string {
		at := strings.IndexByte(match, '@')
		if expanded, ok := expansions[match[at+1:]]; ok {
			return match[:at] + expanded
		}
		return match
	})
}

// load reads, decodes and archives one response file.
func (e *Expander) load(ref, dir string) (string, bool) {
	path := resolve(ref, dir)
	log := e.log.WithField("response_file", path)

	data, err := e.readFile(path)
	if err != nil {
		log.WithError(err).Warn("Could not read response file")
		return "", false
	}

	text := Decode(data)

	if e.archiver != nil {
		archived, err := e.archiver.ArchiveResponse(text)
		if err != nil {
			// The expansion is still usable without the archived copy.
			log.WithError(err).Warn("Could not archive response file")
		} else {
			log.WithField("archive", archived).Debugf("Archived response file (%s)", humanize.Bytes(uint64(len(data))))
		}
	}

	log.Info("Inlined response file")
	return text, true
}

// References lists the paths of all "@path" tokens in command, in order.
func References(command string) []string {
	matches := tokenPattern.FindAllString(command, -1)
	refs := make([]string, 0, len(matches))
	for _, match := range matches {
		at := strings.IndexByte(match, '@')
		refs = append(refs, match[at+1:])
	}
	return refs
}

func resolve(ref, dir string) string {
	path := strings.Trim(ref, `"`)
	if srcfile.IsAbs(path) {
		return path
	}
	return srcfile.Join(dir, path)
}
