//go:build linux

package cpu

import (
	"runtime"

	"golang.org/x/sys/unix"
)

// setAffinity restricts the current OS thread to a single CPU core.
// Must be called after runtime.LockOSThread().
//
// core values outside [0, runtime.NumCPU()-1] wrap around.
func setAffinity(core int) error {
	numCPU := runtime.NumCPU()
	if core < 0 || core >= numCPU {
		core = ((core % numCPU) + numCPU) % numCPU
	}

	var mask unix.CPUSet
	mask.Zero()
	mask.Set(core)

	return unix.SchedSetaffinity(0, &mask) // 0 = current thread
}

// PinDispatcher locks the calling goroutine to an OS thread and pins that
// thread to the given core, keeping the device dispatcher on one CPU for
// stable I/O latency. The returned cleanup releases the thread lock; the
// kernel affinity mask dies with the thread.
func PinDispatcher(core int) func() {
	runtime.LockOSThread()
	_ = setAffinity(core)

	return func() {
		runtime.UnlockOSThread()
	}
}
