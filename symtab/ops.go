package symtab

import (
	"unsafe"

	"github.com/ebitengine/purego"
)

// cstr returns a NUL-terminated byte pointer for s. The caller must keep s
// (or the returned pointer) alive only for the duration of the call that
// consumes it — these are scratch conversions, never retained.
func cstr(s string) *byte {
	b := append([]byte(s), 0)
	return &b[0]
}

func goStr(p *byte) string {
	if p == nil {
		return ""
	}
	n := 0
	for {
		c := *(*byte)(unsafe.Pointer(uintptr(unsafe.Pointer(p)) + uintptr(n)))
		if c == 0 {
			break
		}
		n++
	}
	return string(unsafe.Slice(p, n))
}

// ClientOpen opens a JACK client with the given name. ok is false (and the
// handle zero) if the symbol is missing or the open call itself failed.
func (t *Table) ClientOpen(name string, opts ClientOptions) (client uintptr, ok bool) {
	if t.clientOpen == nil {
		return 0, false
	}
	var status int32
	client = t.clientOpen(cstr(name), int32(opts), &status, nil)
	return client, client != 0
}

func (t *Table) ClientClose(client uintptr) bool {
	if t.clientClose == nil || client == 0 {
		return false
	}
	return t.clientClose(client) == 0
}

func (t *Table) ClientFree(ptr uintptr) {
	if t.clientFree == nil || ptr == 0 {
		return
	}
	t.clientFree(ptr)
}

func (t *Table) GetClientName(client uintptr) (string, bool) {
	if t.getClientName == nil || client == 0 {
		return "", false
	}
	p := t.getClientName(client)
	return goStr(p), p != nil
}

func (t *Table) Activate(client uintptr) bool {
	if t.activate == nil || client == 0 {
		return false
	}
	return t.activate(client) == 0
}

func (t *Table) Deactivate(client uintptr) bool {
	if t.deactivate == nil || client == 0 {
		return false
	}
	return t.deactivate(client) == 0
}

func (t *Table) IsRealtime(client uintptr) bool {
	if t.isRealtime == nil || client == 0 {
		return false
	}
	return t.isRealtime(client) != 0
}

// GetSampleRate returns 0, false when the symbol is missing.
func (t *Table) GetSampleRate(client uintptr) (uint32, bool) {
	if t.getSampleRate == nil || client == 0 {
		return 0, false
	}
	return t.getSampleRate(client), true
}

func (t *Table) GetBufferSize(client uintptr) (uint32, bool) {
	if t.getBufferSize == nil || client == 0 {
		return 0, false
	}
	return t.getBufferSize(client), true
}

func (t *Table) SetBufferSize(client uintptr, nframes uint32) bool {
	if t.setBufferSize == nil || client == 0 {
		return false
	}
	return t.setBufferSize(client, nframes) == 0
}

func (t *Table) SetProcessCallback(client uintptr, fn ProcessFunc) bool {
	if t.setProcessCallback == nil || client == 0 || fn == nil {
		return false
	}
	cb := purego.NewCallback(func(nframes uint32, _ uintptr) int32 {
		return fn(nframes)
	})
	return t.setProcessCallback(client, cb, 0) == 0
}

func (t *Table) SetBufferSizeCallback(client uintptr, fn BufferSizeFunc) bool {
	if t.setBufferSizeCallback == nil || client == 0 || fn == nil {
		return false
	}
	cb := purego.NewCallback(func(nframes uint32, _ uintptr) int32 {
		return fn(nframes)
	})
	return t.setBufferSizeCallback(client, cb, 0) == 0
}

func (t *Table) SetSampleRateCallback(client uintptr, fn SampleRateFunc) bool {
	if t.setSampleRateCallback == nil || client == 0 || fn == nil {
		return false
	}
	cb := purego.NewCallback(func(nframes uint32, _ uintptr) int32 {
		return fn(nframes)
	})
	return t.setSampleRateCallback(client, cb, 0) == 0
}

func (t *Table) SetLatencyCallback(client uintptr, fn LatencyFunc) bool {
	if t.setLatencyCallback == nil || client == 0 || fn == nil {
		return false
	}
	cb := purego.NewCallback(func(mode int32, _ uintptr) {
		fn(LatencyCallbackMode(mode))
	})
	return t.setLatencyCallback(client, cb, 0) == 0
}

func (t *Table) OnShutdown(client uintptr, fn ShutdownFunc) {
	if t.onShutdown == nil || client == 0 || fn == nil {
		return
	}
	cb := purego.NewCallback(func(_ uintptr) {
		fn()
	})
	t.onShutdown(client, cb, 0)
}

// SetThreadCreator installs creator as JACK's thread-creation hook
// (§5/§9: "the driver creates an OS-visible thread that belongs to the
// guest process ... the backend then pins its callback to that thread").
// Returns false if the symbol is absent; the backend falls back to its
// own native thread, which the guest's Win32 callback cannot safely use.
func (t *Table) SetThreadCreator(creator uintptr) bool {
	if t.setThreadCreator == nil {
		return false
	}
	return t.setThreadCreator(creator) == 0
}

func (t *Table) PortRegister(client uintptr, name string, isInput bool) (port uintptr, ok bool) {
	if t.portRegister == nil || client == 0 {
		return 0, false
	}
	flags := PortIsOutput
	if isInput {
		flags = PortIsInput
	}
	port = t.portRegister(client, cstr(name), cstr(PortTypeAudio), flags, 0)
	return port, port != 0
}

func (t *Table) PortUnregister(client, port uintptr) bool {
	if t.portUnregister == nil || client == 0 || port == 0 {
		return false
	}
	return t.portUnregister(client, port) == 0
}

func (t *Table) PortName(port uintptr) (string, bool) {
	if t.portName == nil || port == 0 {
		return "", false
	}
	return goStr(t.portName(port)), true
}

// PortGetBuffer returns a pointer to nframes float32 samples owned by
// JACK for this cycle. Only valid for the duration of the process
// callback that obtained it — never cached across cycles.
func (t *Table) PortGetBuffer(port uintptr, nframes uint32) ([]float32, bool) {
	if t.portGetBuffer == nil || port == 0 {
		return nil, false
	}
	p := t.portGetBuffer(port, nframes)
	if p == 0 {
		return nil, false
	}
	return unsafe.Slice((*float32)(unsafe.Pointer(p)), int(nframes)), true
}

func (t *Table) PortGetLatencyRange(port uintptr, mode LatencyCallbackMode) (LatencyRange, bool) {
	if t.portGetLatencyRange == nil || port == 0 {
		return LatencyRange{}, false
	}
	var raw [2]uint32
	t.portGetLatencyRange(port, int32(mode), &raw)
	return LatencyRange{Min: raw[0], Max: raw[1]}, true
}

func (t *Table) PortByName(client uintptr, name string) (uintptr, bool) {
	if t.portByName == nil || client == 0 {
		return 0, false
	}
	p := t.portByName(client, cstr(name))
	return p, p != 0
}

func (t *Table) PortType(port uintptr) (string, bool) {
	if t.portType == nil || port == 0 {
		return "", false
	}
	return goStr(t.portType(port)), true
}

// GetPorts enumerates port names matching flags (and, optionally, a type
// pattern). Used by the connector (component H) for auto-wiring.
func (t *Table) GetPorts(client uintptr, typePattern string, flags uint64) ([]string, bool) {
	if t.getPorts == nil || client == 0 {
		return nil, false
	}
	var typeP *byte
	if typePattern != "" {
		typeP = cstr(typePattern)
	}
	arr := t.getPorts(client, nil, typeP, flags)
	if arr == 0 {
		return nil, true
	}
	var names []string
	for i := 0; ; i++ {
		pp := *(*uintptr)(unsafe.Pointer(arr + uintptr(i)*unsafe.Sizeof(uintptr(0))))
		if pp == 0 {
			break
		}
		names = append(names, goStr((*byte)(unsafe.Pointer(pp))))
	}
	t.ClientFree(arr)
	return names, true
}

func (t *Table) Connect(client uintptr, src, dst string) bool {
	if t.connect == nil || client == 0 {
		return false
	}
	return t.connect(client, cstr(src), cstr(dst)) == 0
}

// TransportQuery reports whether the backend transport is currently
// rolling. ok is false when the symbol is missing (callers treat the
// transport as stopped/not-rolling in that case).
func (t *Table) TransportQuery(client uintptr) (state TransportState, ok bool) {
	if t.transportQuery == nil || client == 0 {
		return TransportStopped, false
	}
	s := t.transportQuery(client, 0)
	return TransportState(s), true
}
