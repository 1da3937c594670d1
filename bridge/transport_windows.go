//go:build windows

package bridge

import "golang.org/x/sys/windows"

// DefaultWallClock backs WallClock with GetTickCount64 on windows, matching
// the original wineasio's timeGetTime() millisecond source.
func DefaultWallClock() uint64 {
	return windows.GetTickCount64()
}
