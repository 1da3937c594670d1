// Package winthread implements the driver's thread creator: it starts a
// routine on an OS-visible thread that belongs to the guest process, so
// the guest's Win32-context system calls can safely run on it.
// bridge.NewDriver takes the creator and runs the guest callback loop on
// it. The creator is not installed as the backend's own thread-creation
// hook (symtab.Table.SetThreadCreator is not called), so the backend still
// creates its process-callback thread itself.
package winthread

import "github.com/intuitionamiga/jackasio/symtab"

// Creator returns a symtab.ThreadCreator bound to the real native-thread
// path on windows (winthread_windows.go) and to a goroutine +
// runtime.LockOSThread stand-in everywhere else (winthread_other.go) —
// JACK itself only runs on Linux/macOS hosts in practice, but the bridge
// must still build and test there.
func Creator() symtab.ThreadCreator {
	return newCreator()
}
