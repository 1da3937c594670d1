// Package bridge implements the guest-facing driver façade and its
// realtime rendezvous core: client lifecycle, buffer negotiation, the
// cycle handoff, and auto-connection to hardware.
package bridge

import (
	"fmt"
	"log"
	"math/bits"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"

	"github.com/intuitionamiga/jackasio/symtab"
)

const (
	DriverName    = "jackasio"
	DriverVersion = 1

	minBufferFrames = 16
	maxBufferFrames = 8192
)

func init() {
	if os.Getenv("JACKASIO_DEBUG") != "" {
		debugLog = log.Printf
	}
}

var debugLog = func(string, ...interface{}) {}

// DriverConfig is the resolved configuration (§6) a Driver is constructed
// with; config.Source produces one of these.
type DriverConfig struct {
	ClientName          string
	PortPrefix          string
	NumInputs           int
	NumOutputs          int
	FixedBufferSize     bool
	PreferredBufferSize int
	AutostartServer     bool
	ConnectToHardware   bool
	Format              SampleFormat
	HighResClock        bool
	ControlPanelCommand string
}

// ClockSource is the single entry §4.F's get_clock_sources always reports.
type ClockSource struct {
	Index int
	Name  string
}

// ChannelInfo is the per-channel report §4.F's get_channel_info returns.
type ChannelInfo struct {
	Group    int
	Active   bool
	Format   SampleFormat
	PortName string
}

// Selector enumerates the future() extension points of §4.F.
type Selector int

const (
	SelEnableTimeCodeRead Selector = iota
	SelDisableTimeCodeRead
	SelCanTimeInfo
	SelCanTimeCode
	SelSetInputMonitor
	SelTransportControl
	SelSetInputGain
	SelGetInputGain
	SelSetOutputGain
	SelGetOutputGain
	SelSetInputMeter
	SelGetInputMeter
	SelIOFormat
)

// Driver is the COM-equivalent façade object of §3/§4.F: at most one
// useful instance per process, ref-counted, mutated only through the
// operations below.
type Driver struct {
	mu sync.Mutex

	cfg DriverConfig
	tab *symtab.Table

	refCount atomic.Int32

	state   State
	client  uintptr

	sampleRate   float64
	bufferFrames int

	channels   *Channels
	rendezvous *Rendezvous
	transport  *Transport

	timeInfoMode    bool
	timeCodeEnabled atomic.Bool

	errMsg string

	threadCreator symtab.ThreadCreator
}

// NewDriver constructs a Driver in the Loaded state, ref count 1.
func NewDriver(cfg DriverConfig, tab *symtab.Table, threadCreator symtab.ThreadCreator) *Driver {
	if cfg.PreferredBufferSize == 0 {
		cfg.PreferredBufferSize = 1024
	}
	d := &Driver{cfg: cfg, tab: tab, state: Loaded, threadCreator: threadCreator}
	d.refCount.Store(1)
	return d
}

// AddRef/Release implement the COM reference discipline of §3's Lifecycle
// and invariant 7: the last Release runs teardown exactly once.
func (d *Driver) AddRef() int32 { return d.refCount.Add(1) }

func (d *Driver) Release() int32 {
	n := d.refCount.Add(-1)
	if n == 0 {
		d.teardown()
	}
	return n
}

// teardown runs the reverse-edge sequence invariant 7 requires: cycles
// stopped -> client deactivated -> ports unregistered -> semaphores
// destroyed -> guest thread joined -> client closed -> symbol table left
// alone for the process lifetime.
func (d *Driver) teardown() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state == Running {
		d.stopLocked()
	}
	if d.state >= Prepared {
		d.disposeBuffersLocked()
	}
	if d.channels != nil {
		for i := range d.channels.Inputs {
			d.tab.PortUnregister(d.client, d.channels.Inputs[i].Port)
		}
		for i := range d.channels.Outputs {
			d.tab.PortUnregister(d.client, d.channels.Outputs[i].Port)
		}
	}
	if d.rendezvous != nil {
		d.rendezvous.Terminate()
		<-d.rendezvous.Stopped()
	}
	if d.client != 0 {
		d.tab.ClientClose(d.client)
		d.client = 0
	}
	d.state = Loaded
}

func (d *Driver) fail(op string, kind Kind, cause error) error {
	e := newErr(op, kind, cause)
	d.errMsg = e.Error()
	return e
}

// Open transitions Loaded -> Initialized (§4.F open).
func (d *Driver) Open(guestExeBaseName string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := transition(d.state, opOpen); !ok {
		return d.fail("open", KindWrongState, nil)
	}

	if !d.tab.Available() {
		return d.fail("open", KindUnavailable, d.tab.LoadError())
	}

	hideHostConsole()

	name := d.cfg.ClientName
	if name == "" {
		name = guestExeBaseName
	}
	opts := symtab.OptionsNoStartServer
	if d.cfg.AutostartServer {
		opts = symtab.OptionsNone
	}

	client, ok := d.tab.ClientOpen(name, opts)
	if !ok {
		return d.fail("open", KindUnavailable, fmt.Errorf("jack_client_open failed"))
	}
	d.client = client

	sr, _ := d.tab.GetSampleRate(client)
	if sr == 0 {
		sr = 48000
	}
	d.sampleRate = float64(sr)
	bs, _ := d.tab.GetBufferSize(client)
	if bs == 0 {
		bs = uint32(d.cfg.PreferredBufferSize)
	}
	d.bufferFrames = int(bs)

	d.channels = AllocateChannels(d.tab, client, d.cfg.NumInputs, d.cfg.NumOutputs, d.cfg.PortPrefix)

	clock := WallClock(DefaultWallClock)
	if d.cfg.HighResClock {
		clock = HighResClock
	}
	d.transport = NewTransport(d.sampleRate, clock, func() bool {
		st, ok := d.tab.TransportQuery(d.client)
		return ok && st == symtab.TransportRolling
	})

	d.rendezvous = NewRendezvous(func() bool {
		d.mu.Lock()
		running := d.state == Running
		d.mu.Unlock()
		return running
	}, func() TimeInfo {
		return d.transport.BuildTimeInfo(d.timeCodeEnabled.Load())
	})

	d.tab.SetProcessCallback(client, d.processCallback)
	d.tab.SetBufferSizeCallback(client, func(n uint32) int32 {
		d.mu.Lock()
		d.bufferFrames = int(n)
		d.mu.Unlock()
		return 0
	})
	d.tab.SetSampleRateCallback(client, func(n uint32) int32 {
		d.mu.Lock()
		d.sampleRate = float64(n)
		d.mu.Unlock()
		return 0
	})
	d.tab.SetLatencyCallback(client, func(symtab.LatencyCallbackMode) {})
	d.tab.OnShutdown(client, func() {
		cb := d.rendezvous.callbacks.Load()
		if cb != nil && cb.Shutdown != nil {
			cb.Shutdown("backend shutdown")
		}
	})

	if d.threadCreator != nil {
		if err := d.threadCreator(func(arg uintptr) { d.rendezvous.GuestLoop() }, 0); err != nil {
			return d.fail("open", KindUnavailable, err)
		}
	} else {
		go d.rendezvous.GuestLoop()
	}
	<-d.rendezvous.Started()

	d.state = Initialized
	return nil
}

func (d *Driver) processCallback(nframes uint32) int32 {
	return d.rendezvous.Cycle(nframes,
		func(bi int) { d.copyInputs(bi, nframes) },
		func(bi int) { d.copyOutputs(bi, nframes) },
		func(bi int) { d.silenceOutputs(nframes) },
		func(n uint32) { d.transport.Advance(n) },
	)
}

func (d *Driver) copyInputs(bi int, nframes uint32) {
	for i := range d.channels.Inputs {
		ch := &d.channels.Inputs[i]
		if !ch.Active || ch.Port == 0 {
			continue
		}
		buf, ok := d.tab.PortGetBuffer(ch.Port, nframes)
		if !ok {
			continue
		}
		FromBackend(d.cfg.Format, buf, ch.staging[bi])
	}
}

func (d *Driver) copyOutputs(bi int, nframes uint32) {
	for i := range d.channels.Outputs {
		ch := &d.channels.Outputs[i]
		buf, ok := d.tab.PortGetBuffer(ch.Port, nframes)
		if !ok {
			continue
		}
		if !ch.Active {
			for j := range buf {
				buf[j] = 0
			}
			continue
		}
		ToBackend(d.cfg.Format, ch.staging[bi], buf)
	}
}

// silenceOutputs overwrites every output backend buffer with zeroes,
// active or not: the path the not-running branch of a cycle uses
// unconditionally, so a stopped-but-still-activated client never plays a
// frozen loop of the last real buffer.
func (d *Driver) silenceOutputs(nframes uint32) {
	for i := range d.channels.Outputs {
		ch := &d.channels.Outputs[i]
		buf, ok := d.tab.PortGetBuffer(ch.Port, nframes)
		if !ok {
			continue
		}
		for j := range buf {
			buf[j] = 0
		}
	}
}

func (d *Driver) GetDriverName() string   { return DriverName }
func (d *Driver) GetDriverVersion() int   { return DriverVersion }
func (d *Driver) GetErrorMessage() string { return d.errMsg }

func (d *Driver) GetChannels() (in, out int) {
	return d.cfg.NumInputs, d.cfg.NumOutputs
}

func (d *Driver) GetLatencies() (in, out uint32, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state < Initialized {
		return 0, 0, d.fail("get_latencies", KindWrongState, nil)
	}
	for _, ch := range d.channels.Inputs {
		if ch.Port == 0 {
			continue
		}
		r, ok := d.tab.PortGetLatencyRange(ch.Port, symtab.CaptureLatency)
		if ok && r.Max > in {
			in = r.Max
		}
	}
	for _, ch := range d.channels.Outputs {
		if ch.Port == 0 {
			continue
		}
		r, ok := d.tab.PortGetLatencyRange(ch.Port, symtab.PlaybackLatency)
		if ok && r.Max > out {
			out = r.Max
		}
	}
	return in, out, nil
}

func (d *Driver) GetBufferSize() (min, max, pref, gran int, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state < Initialized {
		return 0, 0, 0, 0, d.fail("get_buffer_size", KindWrongState, nil)
	}
	if d.cfg.FixedBufferSize {
		return d.bufferFrames, d.bufferFrames, d.bufferFrames, 0, nil
	}
	return minBufferFrames, maxBufferFrames, d.cfg.PreferredBufferSize, -1, nil
}

func (d *Driver) CanSampleRate(sr float64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return sr == d.sampleRate
}

func (d *Driver) GetSampleRate() (float64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state < Initialized {
		return 0, d.fail("get_sample_rate", KindWrongState, nil)
	}
	return d.sampleRate, nil
}

func (d *Driver) SetSampleRate(sr float64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state < Initialized {
		return d.fail("set_sample_rate", KindWrongState, nil)
	}
	if sr != d.sampleRate {
		return d.fail("set_sample_rate", KindNoClock, nil)
	}
	return nil
}

func (d *Driver) GetClockSources() []ClockSource {
	return []ClockSource{{Index: 0, Name: "Internal"}}
}

func (d *Driver) GetSamplePosition() (pos, stamp uint64, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state < Prepared {
		return 0, 0, d.fail("get_sample_position", KindWrongState, nil)
	}
	pos, stamp = d.transport.Position()
	return pos, stamp, nil
}

func (d *Driver) GetChannelInfo(index int, isInput bool) (ChannelInfo, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state < Initialized {
		return ChannelInfo{}, d.fail("get_channel_info", KindWrongState, nil)
	}
	set := d.channels.Outputs
	if isInput {
		set = d.channels.Inputs
	}
	if index < 0 || index >= len(set) {
		return ChannelInfo{}, d.fail("get_channel_info", KindInvalidParameter, nil)
	}
	ch := set[index]
	return ChannelInfo{Group: 0, Active: ch.Active, Format: d.cfg.Format, PortName: ch.PortName}, nil
}

// CreateBuffers transitions Initialized -> Prepared (§4.F create_buffers).
func (d *Driver) CreateBuffers(infos []ChannelRef, bufferSize int, cb *Callbacks, timeInfoMode, timeCodeEnabled bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	next, ok := transition(d.state, opAllocBuffers)
	if !ok {
		return d.fail("create_buffers", KindWrongState, nil)
	}
	if cb == nil {
		return d.fail("create_buffers", KindInvalidParameter, fmt.Errorf("notification callback required"))
	}
	for _, r := range infos {
		set := d.channels.Outputs
		if r.IsInput {
			set = d.channels.Inputs
		}
		if r.Index < 0 || r.Index >= len(set) {
			return d.fail("create_buffers", KindInvalidParameter, fmt.Errorf("channel %d out of range", r.Index))
		}
	}

	if d.cfg.FixedBufferSize {
		if bufferSize != d.bufferFrames {
			return d.fail("create_buffers", KindInvalidMode, fmt.Errorf("fixed buffer size %d requested, have %d", bufferSize, d.bufferFrames))
		}
	} else {
		if bufferSize < minBufferFrames || bufferSize > maxBufferFrames || bits.OnesCount(uint(bufferSize)) != 1 {
			return d.fail("create_buffers", KindInvalidMode, fmt.Errorf("buffer size %d is not a power of two in [%d,%d]", bufferSize, minBufferFrames, maxBufferFrames))
		}
		if !d.tab.SetBufferSize(d.client, uint32(bufferSize)) {
			return d.fail("create_buffers", KindHardwareMalfunction, fmt.Errorf("backend refused buffer size %d", bufferSize))
		}
		d.bufferFrames = bufferSize
	}

	in, out := 0, 0
	for _, r := range infos {
		if r.IsInput {
			in++
		} else {
			out++
		}
	}
	if in+out < 1 {
		return d.fail("create_buffers", KindInvalidParameter, fmt.Errorf("at least one active channel required"))
	}

	if err := d.channels.Activate(infos, d.bufferFrames, d.cfg.Format); err != nil {
		return err
	}

	d.timeInfoMode = timeInfoMode
	d.timeCodeEnabled.Store(timeCodeEnabled)
	d.rendezvous.SetCallbacks(cb, timeInfoMode, timeCodeEnabled)

	if !d.tab.Activate(d.client) {
		d.channels.Activate(nil, 0, d.cfg.Format)
		d.rendezvous.SetCallbacks(nil, false, false)
		d.timeInfoMode = false
		d.timeCodeEnabled.Store(false)
		return d.fail("create_buffers", KindUnavailable, fmt.Errorf("jack_activate failed"))
	}

	if d.cfg.ConnectToHardware {
		AutoConnect(d.tab, d.client, d.channels)
	}

	d.state = next
	return nil
}

func (d *Driver) DisposeBuffers() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	next, ok := transition(d.state, opFreeBuffers)
	if !ok {
		return d.fail("dispose_buffers", KindWrongState, nil)
	}
	d.disposeBuffersLocked()
	d.state = next
	return nil
}

func (d *Driver) disposeBuffersLocked() {
	d.tab.Deactivate(d.client)
	d.channels.Activate(nil, 0, d.cfg.Format)
}

func (d *Driver) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	next, ok := transition(d.state, opStart)
	if !ok {
		return d.fail("start", KindWrongState, nil)
	}
	for _, set := range [][]IOChannel{d.channels.Inputs, d.channels.Outputs} {
		for i := range set {
			clear(set[i].staging[0])
			clear(set[i].staging[1])
		}
	}
	d.transport.Reset()
	d.rendezvous.Prime()
	d.state = next
	return nil
}

func (d *Driver) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := transition(d.state, opStop); !ok {
		return d.fail("stop", KindWrongState, nil)
	}
	d.stopLocked()
	return nil
}

func (d *Driver) stopLocked() {
	d.tab.Deactivate(d.client)
	d.state = Prepared
}

// ControlPanel spawns the configured settings GUI, if any; it never fails
// the caller (§4.F).
func (d *Driver) ControlPanel() {
	if d.cfg.ControlPanelCommand == "" {
		d.renderStatusPanel(os.Stdout)
		return
	}
	cmd := exec.Command(d.cfg.ControlPanelCommand)
	if err := cmd.Start(); err != nil {
		debugLog("jackasio: control panel spawn failed: %v", err)
	}
}

// Future implements the generic extension call of §4.F.
func (d *Driver) Future(sel Selector, _ interface{}) error {
	switch sel {
	case SelEnableTimeCodeRead:
		d.timeCodeEnabled.Store(true)
		return nil
	case SelDisableTimeCodeRead:
		d.timeCodeEnabled.Store(false)
		return nil
	case SelCanTimeInfo, SelCanTimeCode:
		return nil
	default:
		return d.fail("future", KindNotSupported, nil)
	}
}

// OutputReady always reports not-supported (§4.F).
func (d *Driver) OutputReady() error {
	return d.fail("output_ready", KindNotSupported, nil)
}

// State reports the current lifecycle state, for tests and diagnostics.
func (d *Driver) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}
