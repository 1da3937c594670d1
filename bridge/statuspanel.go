package bridge

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// renderStatusPanel prints a plain-text status readout sized to the
// terminal width, the fallback ControlPanel uses when no external GUI
// binary is configured, adapted from terminal_host.go's small console
// surface to a read-only status view instead of raw keyboard input.
func (d *Driver) renderStatusPanel(w io.Writer) {
	width := 60
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		if cols, _, err := term.GetSize(int(f.Fd())); err == nil && cols > 0 {
			width = cols
		}
	}

	d.mu.Lock()
	state := d.state
	sr := d.sampleRate
	bf := d.bufferFrames
	clientName := d.cfg.ClientName
	d.mu.Unlock()

	rule := dashes(width)
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "jackasio control panel -- client %q\n", clientName)
	fmt.Fprintf(w, "state: %s  sample rate: %.0f Hz  buffer: %d frames\n", state, sr, bf)
	in, out := d.GetChannels()
	fmt.Fprintf(w, "channels: %d in / %d out\n", in, out)
	fmt.Fprintln(w, rule)
}

func dashes(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = '-'
	}
	return string(b)
}
