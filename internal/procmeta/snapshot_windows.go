//go:build windows

package procmeta

import (
	"errors"
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

// Snapshotter lists processes from a Toolhelp snapshot.
type Snapshotter struct{}

// Processes returns every process in a fresh snapshot.
func (Snapshotter) Processes() ([]Process, error) {
	snap, err := windows.CreateToolhelp32Snapshot(windows.TH32CS_SNAPPROCESS, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to create process snapshot: %w", err)
	}
	defer windows.CloseHandle(snap) //nolint:errcheck // Snapshot handle, nothing to flush

	var entry windows.ProcessEntry32
	entry.Size = uint32(unsafe.Sizeof(entry))

	if err := windows.Process32First(snap, &entry); err != nil {
		return nil, fmt.Errorf("failed to read first process: %w", err)
	}

	var procs []Process
	for {
		procs = append(procs, Process{
			PID:  entry.ProcessID,
			Name: windows.UTF16ToString(entry.ExeFile[:]),
		})

		err := windows.Process32Next(snap, &entry)
		if errors.Is(err, windows.ERROR_NO_MORE_FILES) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read next process: %w", err)
		}
	}

	return procs, nil
}
