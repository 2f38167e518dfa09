//go:build windows

package procmeta

import (
	"errors"
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

// PEBReader reads a process's current directory out of its own process
// parameters. Every pointer and length read from the target is untrusted.
type PEBReader struct{}

// WorkingDir returns the current directory of pid.
func (PEBReader) WorkingDir(pid uint32) (string, error) {
	h, err := windows.OpenProcess(windows.PROCESS_QUERY_INFORMATION|windows.PROCESS_VM_READ, false, pid)
	if err != nil {
		return "", fmt.Errorf("failed to open process %d: %w", pid, err)
	}
	defer windows.CloseHandle(h) //nolint:errcheck // Read-only handle

	var info windows.PROCESS_BASIC_INFORMATION
	var retLen uint32
	if err := windows.NtQueryInformationProcess(h, windows.ProcessBasicInformation,
		unsafe.Pointer(&info), uint32(unsafe.Sizeof(info)), &retLen); err != nil {
		return "", fmt.Errorf("failed to query basic information: %w", err)
	}
	if info.PebBaseAddress == nil {
		return "", errors.New("process has no PEB")
	}

	// Only the prefix up to the needed field is read, which keeps working
	// if the target's structure is longer than ours.
	var peb windows.PEB
	pebSize := unsafe.Offsetof(peb.ProcessParameters) + unsafe.Sizeof(peb.ProcessParameters)
	if err := readMemory(h, uintptr(unsafe.Pointer(info.PebBaseAddress)), unsafe.Pointer(&peb), pebSize); err != nil {
		return "", fmt.Errorf("failed to read PEB: %w", err)
	}
	if peb.ProcessParameters == nil {
		return "", errors.New("process has no process parameters")
	}

	var params windows.RTL_USER_PROCESS_PARAMETERS
	paramsSize := unsafe.Offsetof(params.CurrentDirectory) + unsafe.Sizeof(params.CurrentDirectory)
	if err := readMemory(h, uintptr(unsafe.Pointer(peb.ProcessParameters)), unsafe.Pointer(&params), paramsSize); err != nil {
		return "", fmt.Errorf("failed to read process parameters: %w", err)
	}

	dosPath := params.CurrentDirectory.DosPath
	if err := checkCurrentDirLength(dosPath.Length); err != nil {
		return "", err
	}
	if dosPath.Buffer == nil {
		return "", errors.New("current directory buffer is null")
	}

	buf := make([]uint16, dosPath.Length/2)
	if err := readMemory(h, uintptr(unsafe.Pointer(dosPath.Buffer)), unsafe.Pointer(&buf[0]), uintptr(dosPath.Length)); err != nil {
		return "", fmt.Errorf("failed to read current directory: %w", err)
	}

	return trimTrailingSeparator(windows.UTF16ToString(buf)), nil
}

func readMemory(h windows.Handle, addr uintptr, dst unsafe.Pointer, size uintptr) error {
	var n uintptr
	if err := windows.ReadProcessMemory(h, addr, (*byte)(dst), size, &n); err != nil {
		return err
	}
	if n != size {
		return fmt.Errorf("short read at %#x: got %d of %d bytes", addr, n, size)
	}
	return nil
}
