//go:build !windows

package bridge

// hideHostConsole is a no-op off Windows: there is no console window to
// suppress.
func hideHostConsole() {}
