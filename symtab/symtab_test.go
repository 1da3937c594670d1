package symtab

import (
	"testing"

	"pgregory.net/rapid"
)

// An unloaded table (zero value) must behave exactly like one whose dlopen
// failed: every operation reports absence, never panics.
func TestZeroValueTableIsNullSafe(t *testing.T) {
	var tab Table

	if tab.Available() {
		t.Fatal("zero-value table reports available")
	}
	if _, ok := tab.ClientOpen("probe", OptionsNone); ok {
		t.Fatal("ClientOpen reported ok on zero-value table")
	}
	if tab.ClientClose(1) {
		t.Fatal("ClientClose reported success on zero-value table")
	}
	if tab.Activate(1) {
		t.Fatal("Activate reported success on zero-value table")
	}
	if tab.IsRealtime(1) {
		t.Fatal("IsRealtime reported true on zero-value table")
	}
	if _, ok := tab.GetSampleRate(1); ok {
		t.Fatal("GetSampleRate reported ok on zero-value table")
	}
	if tab.SetProcessCallback(1, func(uint32) int32 { return 0 }) {
		t.Fatal("SetProcessCallback reported success on zero-value table")
	}
	if _, ok := tab.PortRegister(1, "in_1", true); ok {
		t.Fatal("PortRegister reported ok on zero-value table")
	}
	if _, ok := tab.PortGetBuffer(1, 64); ok {
		t.Fatal("PortGetBuffer reported ok on zero-value table")
	}
	if _, ok := tab.GetPorts(1, "", PortIsPhysical); ok {
		t.Fatal("GetPorts reported ok on zero-value table")
	}
	if tab.Connect(1, "a", "b") {
		t.Fatal("Connect reported success on zero-value table")
	}
	if state, ok := tab.TransportQuery(1); ok || state != TransportStopped {
		t.Fatal("TransportQuery reported ok, or a non-stopped default, on zero-value table")
	}

	// Calls that return nothing must simply not panic.
	tab.ClientFree(1)
	tab.OnShutdown(1, func() {})
}

// Property: for any subset of resolved symbols, every façade method either
// uses the symbol or reports absence — it never panics. This models what
// bind() produces on a host with a partial/odd JACK installation.
func TestPartialSymbolTableNeverPanics(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		tab := &Table{available: true}

		if rapid.Bool().Draw(rt, "haveClientOpen") {
			tab.clientOpen = func(name *byte, options int32, status *int32, busName *byte) uintptr { return 42 }
		}
		if rapid.Bool().Draw(rt, "haveActivate") {
			tab.activate = func(client uintptr) int32 { return 0 }
		}
		if rapid.Bool().Draw(rt, "haveGetSampleRate") {
			tab.getSampleRate = func(client uintptr) uint32 { return 48000 }
		}
		if rapid.Bool().Draw(rt, "havePortRegister") {
			tab.portRegister = func(client uintptr, name, portType *byte, flags uint64, bufSize uint64) uintptr { return 7 }
		}
		if rapid.Bool().Draw(rt, "havePortGetBuffer") {
			tab.portGetBuffer = func(port uintptr, nframes uint32) uintptr { return 0 }
		}
		if rapid.Bool().Draw(rt, "haveGetPorts") {
			tab.getPorts = func(client uintptr, namePattern, typePattern *byte, flags uint64) uintptr { return 0 }
		}

		defer func() {
			if r := recover(); r != nil {
				rt.Fatalf("panicked with partial symbol set: %v", r)
			}
		}()

		client, _ := tab.ClientOpen("probe", OptionsNone)
		tab.Activate(client)
		tab.GetSampleRate(client)
		tab.PortRegister(client, "in_1", true)
		tab.PortGetBuffer(99, 64)
		tab.GetPorts(client, "", PortIsPhysical)
		tab.Deactivate(client)
	})
}

func TestLoadIsIdempotent(t *testing.T) {
	a := Load()
	b := Load()
	if a != b {
		t.Fatal("Load returned distinct table instances across calls")
	}
}
