//go:build !windows

package bridge

import "time"

// DefaultWallClock falls back to time.Now on non-windows hosts (the
// bridge must still build and test there even though the guest side is
// Windows-only in production).
func DefaultWallClock() uint64 {
	return uint64(time.Now().UnixMilli())
}
