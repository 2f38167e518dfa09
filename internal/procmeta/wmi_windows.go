//go:build windows

package procmeta

import (
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/go-ole/go-ole"
	"github.com/go-ole/go-ole/oleutil"
)

// sFalse is returned by CoInitializeEx when COM is already initialized on the thread.
const sFalse = 0x00000001

var errWMIClosed = errors.New("wmi client closed")

type wmiRequest struct {
	pid   uint32
	reply chan wmiResult
}

type wmiResult struct {
	cmdline string
	err     error
}

// WMIClient queries Win32_Process through one long-lived WMI connection.
// COM objects are bound to the thread that created them, so every query
// runs on a single locked goroutine.
type WMIClient struct {
	requests  chan wmiRequest
	done      chan struct{}
	closeOnce sync.Once
}

// NewWMIClient connects to ROOT\CIMV2.
func NewWMIClient() (*WMIClient, error) {
	c := &WMIClient{
		requests: make(chan wmiRequest),
		done:     make(chan struct{}),
	}

	ready := make(chan error, 1)
	go c.serve(ready)
	if err := <-ready; err != nil {
		return nil, err
	}
	return c, nil
}

// CommandLine returns the CommandLine property of pid, or "" when the
// process is gone or the property is not a string.
func (c *WMIClient) CommandLine(pid uint32) (string, error) {
	reply := make(chan wmiResult, 1)
	select {
	case c.requests <- wmiRequest{pid: pid, reply: reply}:
	case <-c.done:
		return "", errWMIClosed
	}
	res := <-reply
	return res.cmdline, res.err
}

// Close stops the query goroutine and releases the connection.
func (c *WMIClient) Close() error {
	c.closeOnce.Do(func() { close(c.done) })
	return nil
}

func (c *WMIClient) serve(ready chan<- error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	service, release, err := connectWMI()
	ready <- err
	if err != nil {
		return
	}
	defer release()

	for {
		select {
		case <-c.done:
			return
		case req := <-c.requests:
			cmdline, err := queryCommandLine(service, req.pid)
			req.reply <- wmiResult{cmdline: cmdline, err: err}
		}
	}
}

func connectWMI() (*ole.IDispatch, func(), error) {
	if err := ole.CoInitializeEx(0, ole.COINIT_MULTITHREADED); err != nil {
		var oleErr *ole.OleError
		if !errors.As(err, &oleErr) || (oleErr.Code() != ole.S_OK && oleErr.Code() != sFalse) {
			return nil, nil, fmt.Errorf("failed to initialize COM: %w", err)
		}
	}

	unknown, err := oleutil.CreateObject("WbemScripting.SWbemLocator")
	if err != nil {
		ole.CoUninitialize()
		return nil, nil, fmt.Errorf("failed to create WMI locator: %w", err)
	}
	if unknown == nil {
		ole.CoUninitialize()
		return nil, nil, errors.New("failed to create WMI locator: nil object")
	}

	locator, err := unknown.QueryInterface(ole.IID_IDispatch)
	if err != nil {
		unknown.Release()
		ole.CoUninitialize()
		return nil, nil, fmt.Errorf("failed to query WMI locator: %w", err)
	}

	serviceRaw, err := oleutil.CallMethod(locator, "ConnectServer", nil, `ROOT\CIMV2`)
	if err != nil {
		locator.Release()
		unknown.Release()
		ole.CoUninitialize()
		return nil, nil, fmt.Errorf("failed to connect to WMI service: %w", err)
	}
	service := serviceRaw.ToIDispatch()

	release := func() {
		service.Release()
		locator.Release()
		unknown.Release()
		ole.CoUninitialize()
	}
	return service, release, nil
}

func queryCommandLine(service *ole.IDispatch, pid uint32) (string, error) {
	query := fmt.Sprintf("SELECT CommandLine FROM Win32_Process WHERE ProcessId = %d", pid)
	resultRaw, err := oleutil.CallMethod(service, "ExecQuery", query)
	if err != nil {
		return "", fmt.Errorf("failed to run WMI query: %w", err)
	}
	result := resultRaw.ToIDispatch()
	defer result.Release()

	var cmdline string
	err = oleutil.ForEach(result, func(v *ole.VARIANT) error {
		item := v.ToIDispatch()
		defer item.Release()

		prop, err := item.GetProperty("CommandLine")
		if err != nil {
			return nil
		}
		defer prop.Clear() //nolint:errcheck // Nothing to recover

		if s, ok := prop.Value().(string); ok && cmdline == "" {
			cmdline = s
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to read WMI result: %w", err)
	}
	return cmdline, nil
}
