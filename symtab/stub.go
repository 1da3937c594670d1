package symtab

// StubBackend is a minimal in-process fake of the handful of JACK entry
// points the bridge package's tests need, for hosts where no real JACK
// installation is available to link against (most CI and developer
// machines). It behaves like a single-client backend with a fixed sample
// rate and a negotiable buffer size, accepting unlimited port
// registrations.
type StubBackend struct {
	SampleRate   uint32
	BufferSize   uint32
	RefuseResize bool
}

// NewStub builds a Table backed by an in-process StubBackend instead of a
// dlopen'd library — the façade and rendezvous code paths are identical,
// only symbol resolution is bypassed.
func NewStub(backend *StubBackend) *Table {
	t := &Table{available: true}
	var clientCounter uint64
	var portCounter uint64

	t.clientOpen = func(name *byte, options int32, status *int32, busName *byte) uintptr {
		clientCounter++
		return uintptr(clientCounter)
	}
	t.clientClose = func(client uintptr) int32 { return 0 }
	t.clientFree = func(ptr uintptr) {}
	t.getClientName = func(client uintptr) *byte { return nil }
	t.activate = func(client uintptr) int32 { return 0 }
	t.deactivate = func(client uintptr) int32 { return 0 }
	t.isRealtime = func(client uintptr) int32 { return 1 }
	t.getSampleRate = func(client uintptr) uint32 { return backend.SampleRate }
	t.getBufferSize = func(client uintptr) uint32 { return backend.BufferSize }
	t.setBufferSize = func(client uintptr, nframes uint32) int32 {
		if backend.RefuseResize {
			return -1
		}
		backend.BufferSize = nframes
		return 0
	}
	t.setBufferSizeCallback = func(client uintptr, cb uintptr, arg uintptr) int32 { return 0 }
	t.setLatencyCallback = func(client uintptr, cb uintptr, arg uintptr) int32 { return 0 }
	t.setProcessCallback = func(client uintptr, cb uintptr, arg uintptr) int32 { return 0 }
	t.setSampleRateCallback = func(client uintptr, cb uintptr, arg uintptr) int32 { return 0 }
	t.setThreadCreator = func(creator uintptr) int32 { return 0 }
	t.onShutdown = func(client uintptr, cb uintptr, arg uintptr) {}
	t.portRegister = func(client uintptr, name *byte, portType *byte, flags uint64, bufSize uint64) uintptr {
		portCounter++
		return uintptr(portCounter)
	}
	t.portUnregister = func(client uintptr, port uintptr) int32 { return 0 }
	t.portName = func(port uintptr) *byte { return nil }
	t.portGetBuffer = func(port uintptr, nframes uint32) uintptr { return 0 }
	t.portGetLatencyRange = func(port uintptr, mode int32, rangeOut *[2]uint32) {
		rangeOut[0], rangeOut[1] = 128, 128
	}
	t.portByName = func(client uintptr, name *byte) uintptr { return 0 }
	t.portType = func(port uintptr) *byte { return nil }
	t.getPorts = func(client uintptr, namePattern, typePattern *byte, flags uint64) uintptr { return 0 }
	t.connect = func(client uintptr, src, dst *byte) int32 { return 0 }
	t.transportQuery = func(client uintptr, pos uintptr) int32 { return int32(TransportStopped) }

	return t
}
