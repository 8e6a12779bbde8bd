//go:build windows

package cpu

import (
	"runtime"
	"syscall"
)

var (
	kernel32              = syscall.NewLazyDLL("kernel32.dll")
	setThreadAffinityMask = kernel32.NewProc("SetThreadAffinityMask")
	getCurrentThread      = kernel32.NewProc("GetCurrentThread")
)

// setAffinity restricts the current OS thread to a single CPU core.
// Must be called after runtime.LockOSThread().
func setAffinity(core int) error {
	numCPU := runtime.NumCPU()
	if core < 0 || core >= numCPU {
		core = ((core % numCPU) + numCPU) % numCPU
	}

	handle, _, _ := getCurrentThread.Call()

	// Bit N of the mask selects CPU N.
	mask := uintptr(1 << core)

	prev, _, err := setThreadAffinityMask.Call(handle, mask)
	if prev == 0 {
		return err
	}
	return nil
}

// PinDispatcher locks the calling goroutine to an OS thread and pins that
// thread to the given core, keeping the device dispatcher on one CPU for
// stable I/O latency. The returned cleanup releases the thread lock.
func PinDispatcher(core int) func() {
	runtime.LockOSThread()
	_ = setAffinity(core)

	return func() {
		runtime.UnlockOSThread()
	}
}
