package bridge

import (
	"log"

	"github.com/intuitionamiga/jackasio/symtab"
)

// AutoConnect wires driver ports to physical hardware ports on activation,
// following JackBridge.c's enumerate-then-connect pattern exactly (§4.H):
// physical *output* ports (capture sources) feed the driver's *inputs*,
// and physical *input* ports (playback sinks) are fed by the driver's
// *outputs*. At most min(#physical ports, #driver ports) connections are
// made per direction; jack_connect failures are logged, never fatal.
func AutoConnect(tab *symtab.Table, client uintptr, ch *Channels) {
	connectDirection(tab, client, ch.Inputs, symtab.PortIsOutput|symtab.PortIsPhysical, false)
	connectDirection(tab, client, ch.Outputs, symtab.PortIsInput|symtab.PortIsPhysical, true)
}

func connectDirection(tab *symtab.Table, client uintptr, channels []IOChannel, flags uint64, driverIsSource bool) {
	physical, ok := tab.GetPorts(client, symtab.PortTypeAudio, flags)
	if !ok {
		return
	}
	n := len(physical)
	if len(channels) < n {
		n = len(channels)
	}
	for k := 0; k < n; k++ {
		if channels[k].Port == 0 {
			continue
		}
		src, dst := physical[k], channels[k].PortName
		if driverIsSource {
			src, dst = channels[k].PortName, physical[k]
		}
		if !tab.Connect(client, src, dst) {
			log.Printf("jackasio: auto-connect %s -> %s failed", src, dst)
		}
	}
}
