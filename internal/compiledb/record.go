// Package compiledb defines the capture record format and aggregates records
// into a JSON Compilation Database.
//
// The recorder writes one record per compiled source file into a cache
// directory. Collection is a separate step: it reads every record, orders
// them by source file and writes the database consumed by clangd and other
// tools. The file system is the only link between the two steps.
package compiledb

import (
	"fmt"
	"regexp"
	"strconv"
)

// RecordExt is the file extension of capture records.
const RecordExt = ".json"

// Command is one entry of a JSON Compilation Database, and the unit the
// recorder persists: one source file compiled by one process invocation.
type Command struct {
	Directory string `json:"directory"`
	Command   string `json:"command"`
	File      string `json:"file"`
}

var (
	commandNamePattern  = regexp.MustCompile(`^command_(\d+)\.json$`)
	responseNamePattern = regexp.MustCompile(`^response_(\d+)\.rsp$`)
)

// CommandFileName returns the cache file name for command record seq.
func CommandFileName(seq uint64) string {
	return fmt.Sprintf("command_%06d%s", seq, RecordExt)
}

// ResponseFileName returns the cache file name for archived response file seq.
func ResponseFileName(seq uint64) string {
	return fmt.Sprintf("response_%06d.rsp", seq)
}

// ParseCommandSeq extracts the sequence number from a command record name.
func ParseCommandSeq(name string) (uint64, bool) {
	return parseSeq(commandNamePattern, name)
}

// ParseResponseSeq extracts the sequence number from an archived response file name.
func ParseResponseSeq(name string) (uint64, bool) {
	return parseSeq(responseNamePattern, name)
}

func parseSeq(re *regexp.Regexp, name string) (uint64, bool) {
	m := re.FindStringSubmatch(name)
	if m == nil {
		return 0, false
	}
	seq, err := strconv.ParseUint(m[1], 10, 64)
	if err != nil {
		return 0, false
	}
	return seq, true
}
