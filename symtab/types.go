package symtab

import "runtime"

func hostGOOS() string { return runtime.GOOS }

// Port flag bits, matching the JACK C API's jack_port_flags.
const (
	PortIsInput    uint64 = 0x1
	PortIsOutput   uint64 = 0x2
	PortIsPhysical uint64 = 0x4
	PortIsTerminal uint64 = 0x10
)

// PortTypeAudio is the well-known JACK audio port type string.
const PortTypeAudio = "32 bit float mono audio"

// LatencyCallbackMode mirrors jack_latency_callback_mode_t.
type LatencyCallbackMode int32

const (
	CaptureLatency  LatencyCallbackMode = 0
	PlaybackLatency LatencyCallbackMode = 1
)

// TransportState mirrors jack_transport_state_t.
type TransportState int32

const (
	TransportStopped  TransportState = 0
	TransportRolling  TransportState = 1
	TransportStarting TransportState = 3
)

// LatencyRange mirrors jack_latency_range_t.
type LatencyRange struct {
	Min uint32
	Max uint32
}

// ClientOptions mirrors a tiny subset of jack_options_t the bridge needs.
type ClientOptions int32

const (
	OptionsNone       ClientOptions = 0
	OptionsNoStartServer ClientOptions = 1
)

// ProcessFunc is the Go-side shape of the cycle callback. Returning
// non-zero aborts the client, matching the JACK convention that a cycle
// callback returns non-zero exactly once to signal failure.
type ProcessFunc func(nframes uint32) int32

// BufferSizeFunc, SampleRateFunc and LatencyFunc mirror their JACK
// callback counterparts.
type BufferSizeFunc func(nframes uint32) int32
type SampleRateFunc func(nframes uint32) int32
type LatencyFunc func(mode LatencyCallbackMode)
type ShutdownFunc func()

// ThreadCreator is the Go-side shape of a JACK thread-creator callback:
// given a start routine and its argument, produce a native thread and
// report success. See package winthread for the real implementation.
type ThreadCreator func(start func(arg uintptr), arg uintptr) error
