package bridge

import (
	"fmt"

	"github.com/intuitionamiga/jackasio/symtab"
)

// IOChannel is one guest-visible channel, input or output.
type IOChannel struct {
	Active   bool
	Port     uintptr
	PortName string

	// staging holds the two double-buffered halves, each holding
	// buffer_size frames encoded in the guest's advertised sample format
	// (the converter runs on the backend<->staging boundary, never on
	// staging<->guest). Zero-length until Activate sizes them.
	staging [2][]byte
}

// Staging returns the byte slice for half idx of this channel — the
// region the rendezvous core and the guest's callback operate on for one
// cycle. Exported so callback shims in cmd/ and tests can reach it.
func (c *IOChannel) Staging(idx int) []byte { return c.staging[idx] }

// Channels is the fixed-capacity channel set allocated once at open and
// freed only on driver drop (§4.B).
type Channels struct {
	Inputs  []IOChannel
	Outputs []IOChannel
}

// AllocateChannels registers nIn input ports and nOut output ports with the
// backend, named "<prefix>in_<k>"/"<prefix>out_<k>" (1-indexed in the
// name), leaving their staging empty until Activate sizes it. Port
// registration failures are not fatal per §4.A's null-safety contract — a
// channel with Port == 0 is simply left unusable, and the cycle copy and
// auto-connect paths skip it.
func AllocateChannels(tab *symtab.Table, client uintptr, nIn, nOut int, prefix string) *Channels {
	c := &Channels{
		Inputs:  make([]IOChannel, nIn),
		Outputs: make([]IOChannel, nOut),
	}
	for k := 0; k < nIn; k++ {
		name := fmt.Sprintf("%sin_%d", prefix, k+1)
		port, _ := tab.PortRegister(client, name, true)
		c.Inputs[k] = IOChannel{Port: port, PortName: name}
	}
	for k := 0; k < nOut; k++ {
		name := fmt.Sprintf("%sout_%d", prefix, k+1)
		port, _ := tab.PortRegister(client, name, false)
		c.Outputs[k] = IOChannel{Port: port, PortName: name}
	}
	return c
}

// ChannelRef selects one channel by direction and index, the shape
// CreateBuffers' infos[] takes.
type ChannelRef struct {
	IsInput bool
	Index   int
}

// Activate marks exactly the requested channels active and allocates their
// staging at bufferFrames per half; all other channels are reset to
// inactive with empty staging. It is the only mutation of the active flag
// (§4.B) and runs only in Initialized state, before any cycle can touch
// the channel set.
func (c *Channels) Activate(requested []ChannelRef, bufferFrames int, format SampleFormat) error {
	for i := range c.Inputs {
		c.Inputs[i].Active = false
		c.Inputs[i].staging[0] = nil
		c.Inputs[i].staging[1] = nil
	}
	for i := range c.Outputs {
		c.Outputs[i].Active = false
		c.Outputs[i].staging[0] = nil
		c.Outputs[i].staging[1] = nil
	}
	width := bufferFrames * BytesPerSample(format)
	for _, r := range requested {
		set := c.Outputs
		if r.IsInput {
			set = c.Inputs
		}
		if r.Index < 0 || r.Index >= len(set) {
			return newErr("activate", KindInvalidParameter, fmt.Errorf("channel index %d out of range", r.Index))
		}
		set[r.Index].Active = true
		set[r.Index].staging[0] = make([]byte, width)
		set[r.Index].staging[1] = make([]byte, width)
	}
	return nil
}

// ActiveCounts returns active_inputs, active_outputs.
func (c *Channels) ActiveCounts() (in, out int) {
	for _, ch := range c.Inputs {
		if ch.Active {
			in++
		}
	}
	for _, ch := range c.Outputs {
		if ch.Active {
			out++
		}
	}
	return in, out
}
