// Package symtab loads the JACK client library at runtime and exposes a
// null-safe table of its entry points. Every field may be absent: the
// guest process may not have a JACK installation at all, and crashing or
// refusing to load for that reason is not acceptable. Absence degrades
// individual operations to a documented fallback instead.
package symtab

import (
	"fmt"
	"sync"

	"github.com/ebitengine/purego"
)

// candidate shared-library names to try, in order, per host platform.
var candidates = map[string][]string{
	"linux":   {"libjack.so.0", "libjack.so"},
	"darwin":  {"libjack.0.dylib", "libjack.dylib"},
	"windows": {"libjack64.dll", "libjack.dll"},
}

// Table is the process-wide JACK symbol table. Populated once, lazily, on
// first access; never freed, so it stays valid across the lifetime of
// every driver instance the process creates.
type Table struct {
	handle    uintptr
	available bool
	loadErr   error

	clientOpen            func(name *byte, options int32, status *int32, busName *byte) uintptr
	clientClose           func(client uintptr) int32
	clientNameSize        func() int32
	getClientName         func(client uintptr) *byte
	activate               func(client uintptr) int32
	deactivate             func(client uintptr) int32
	isRealtime             func(client uintptr) int32
	getSampleRate          func(client uintptr) uint32
	getBufferSize          func(client uintptr) uint32
	setBufferSize          func(client uintptr, nframes uint32) int32
	setBufferSizeCallback  func(client uintptr, cb uintptr, arg uintptr) int32
	setLatencyCallback     func(client uintptr, cb uintptr, arg uintptr) int32
	setProcessCallback     func(client uintptr, cb uintptr, arg uintptr) int32
	setSampleRateCallback  func(client uintptr, cb uintptr, arg uintptr) int32
	setThreadCreator       func(creator uintptr) int32
	onShutdown             func(client uintptr, cb uintptr, arg uintptr)
	portRegister           func(client uintptr, name *byte, portType *byte, flags uint64, bufSize uint64) uintptr
	portUnregister         func(client uintptr, port uintptr) int32
	portName               func(port uintptr) *byte
	portGetBuffer          func(port uintptr, nframes uint32) uintptr
	portGetLatencyRange    func(port uintptr, mode int32, rangeOut *[2]uint32)
	portByName             func(client uintptr, name *byte) uintptr
	portType               func(port uintptr) *byte
	getPorts               func(client uintptr, namePattern, typePattern *byte, flags uint64) uintptr
	connect                func(client uintptr, src, dst *byte) int32
	transportQuery         func(client uintptr, pos uintptr) int32
	clientFree             func(ptrs uintptr)
}

var (
	singleton Table
	loadOnce  sync.Once
)

// Load resolves the process-wide table if it has not been resolved yet and
// returns it. Safe to call from any number of goroutines; the underlying
// dlopen happens exactly once.
func Load() *Table {
	loadOnce.Do(func() {
		singleton.load()
	})
	return &singleton
}

func (t *Table) load() {
	names := candidates[hostGOOS()]
	var lastErr error
	for _, name := range names {
		h, err := purego.Dlopen(name, purego.RTLD_NOW|purego.RTLD_GLOBAL)
		if err != nil {
			lastErr = err
			continue
		}
		t.handle = h
		t.available = true
		break
	}
	if !t.available {
		t.loadErr = fmt.Errorf("symtab: no JACK client library found: %w", lastErr)
		return
	}

	t.bind("jack_client_open", &t.clientOpen)
	t.bind("jack_client_close", &t.clientClose)
	t.bind("jack_client_name_size", &t.clientNameSize)
	t.bind("jack_get_client_name", &t.getClientName)
	t.bind("jack_activate", &t.activate)
	t.bind("jack_deactivate", &t.deactivate)
	t.bind("jack_is_realtime", &t.isRealtime)
	t.bind("jack_get_sample_rate", &t.getSampleRate)
	t.bind("jack_get_buffer_size", &t.getBufferSize)
	t.bind("jack_set_buffer_size", &t.setBufferSize)
	t.bind("jack_set_buffer_size_callback", &t.setBufferSizeCallback)
	t.bind("jack_set_latency_callback", &t.setLatencyCallback)
	t.bind("jack_set_process_callback", &t.setProcessCallback)
	t.bind("jack_set_sample_rate_callback", &t.setSampleRateCallback)
	t.bind("jack_set_thread_creator", &t.setThreadCreator)
	t.bind("jack_on_shutdown", &t.onShutdown)
	t.bind("jack_port_register", &t.portRegister)
	t.bind("jack_port_unregister", &t.portUnregister)
	t.bind("jack_port_name", &t.portName)
	t.bind("jack_port_get_buffer", &t.portGetBuffer)
	t.bind("jack_port_get_latency_range", &t.portGetLatencyRange)
	t.bind("jack_port_by_name", &t.portByName)
	t.bind("jack_port_type", &t.portType)
	t.bind("jack_get_ports", &t.getPorts)
	t.bind("jack_connect", &t.connect)
	t.bind("jack_transport_query", &t.transportQuery)
	t.bind("jack_client_free", &t.clientFree)
}

// bind resolves one symbol and registers it into fptr, leaving fptr nil
// (its zero value) when the symbol is absent instead of panicking —
// purego.RegisterLibFunc would otherwise abort the process on a missing
// optional entry point.
func (t *Table) bind(name string, fptr interface{}) {
	if _, err := purego.Dlsym(t.handle, name); err != nil {
		return
	}
	purego.RegisterLibFunc(fptr, t.handle, name)
}

// Available reports whether the backend library was found and opened.
func (t *Table) Available() bool { return t.available }

// LoadError is the reason the library could not be opened, or nil.
func (t *Table) LoadError() error { return t.loadErr }
