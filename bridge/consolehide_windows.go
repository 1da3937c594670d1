//go:build windows

package bridge

import (
	"sync"

	"github.com/ebitengine/hideconsole"
)

var hideConsoleOnce sync.Once

// hideHostConsole suppresses the console window flash a guest host process
// would otherwise show the first time this driver loads into it.
func hideHostConsole() {
	hideConsoleOnce.Do(func() {
		if err := hideconsole.Hide(); err != nil {
			debugLog("jackasio: hideconsole: %v", err)
		}
	})
}
