package bridge

// State is one of the four driver lifecycle states: Loaded, Initialized,
// Prepared, Running.
type State int

const (
	Loaded State = iota
	Initialized
	Prepared
	Running
)

func (s State) String() string {
	switch s {
	case Loaded:
		return "loaded"
	case Initialized:
		return "initialized"
	case Prepared:
		return "prepared"
	case Running:
		return "running"
	default:
		return "unknown"
	}
}

// op names the façade operations the state table in §4.D governs.
type op int

const (
	opOpen op = iota
	opAllocBuffers
	opStart
	opStop
	opFreeBuffers
	opClose
)

// legal maps each (state, op) pair to the resulting state for the DIRECT,
// single-step transitions of §4.D. Close from Prepared or Running is not a
// direct transition. The façade has no Close operation: the driver's final
// Release runs teardown, which stops, frees buffers and sets Loaded
// directly without consulting this table.
var legal = map[State]map[op]State{
	Loaded: {
		opOpen: Initialized,
	},
	Initialized: {
		opAllocBuffers: Prepared,
		opClose:        Loaded,
	},
	Prepared: {
		opStart:       Running,
		opFreeBuffers: Initialized,
	},
	Running: {
		opStop: Prepared,
	},
}

// transition reports the destination state for op from cur, or ok=false if
// the operation is illegal in cur (§4.D's "every illegal call... leaves
// state untouched").
func transition(cur State, o op) (next State, ok bool) {
	m, present := legal[cur]
	if !present {
		return cur, false
	}
	next, ok = m[o]
	if !ok {
		return cur, false
	}
	return next, true
}
