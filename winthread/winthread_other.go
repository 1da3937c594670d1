//go:build !windows

package winthread

import (
	"log"
	"runtime"
	"sync"

	"github.com/intuitionamiga/jackasio/symtab"
)

var warnOnce sync.Once

// newCreator stands in for the real Win32 thread on non-windows hosts: a
// locked-OS-thread goroutine. There is no realtime scheduling class to
// request here without elevated privileges, so the priority request is a
// logged no-op (once), matching §7's "internal realtime paths never
// propagate errors to the guest".
func newCreator() symtab.ThreadCreator {
	return func(start func(arg uintptr), arg uintptr) error {
		warnOnce.Do(func() {
			log.Printf("winthread: no realtime thread-priority class available on %s, continuing at default priority", runtime.GOOS)
		})
		started := make(chan struct{})
		go func() {
			runtime.LockOSThread()
			defer runtime.UnlockOSThread()
			close(started)
			start(arg)
		}()
		<-started
		return nil
	}
}
