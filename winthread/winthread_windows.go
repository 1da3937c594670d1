//go:build windows

package winthread

import (
	"fmt"
	"runtime"
	"sync"

	"golang.org/x/sys/windows"

	"github.com/intuitionamiga/jackasio/symtab"
)

// newCreator spawns a real Win32 thread via windows.CreateThread, running
// start on it at THREAD_PRIORITY_TIME_CRITICAL — the Go equivalent of
// wineasio's SCHED_FIFO priority 86 win32_callback thread (asio.c).
func newCreator() symtab.ThreadCreator {
	return func(start func(arg uintptr), arg uintptr) error {
		var wg sync.WaitGroup
		wg.Add(1)

		cb := windows.NewCallback(func(a uintptr) uintptr {
			runtime.LockOSThread()
			wg.Done()
			start(a)
			return 0
		})

		var tid uint32
		handle, err := windows.CreateThread(nil, 0, cb, arg, 0, &tid)
		if err != nil {
			return fmt.Errorf("winthread: CreateThread failed: %w", err)
		}
		defer windows.CloseHandle(handle)

		// Non-fatal: the thread still runs, just not at realtime
		// priority, if this fails.
		_ = windows.SetThreadPriority(handle, windows.THREAD_PRIORITY_TIME_CRITICAL)

		wg.Wait()
		return nil
	}
}
