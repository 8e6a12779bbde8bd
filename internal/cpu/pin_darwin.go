//go:build darwin

package cpu

import "runtime"

// PinDispatcher locks the calling goroutine to an OS thread.
// CPU pinning is not available on macOS.
func PinDispatcher(core int) func() {
	runtime.LockOSThread()

	return func() {
		runtime.UnlockOSThread()
	}
}
