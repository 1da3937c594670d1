package bridge

import (
	"sync/atomic"
	"time"
)

// WallClock stamps cycles at millisecond resolution, matching wineasio's
// original timeGetTime() source. On windows the real build backs this
// with golang.org/x/sys/windows.GetTickCount64; elsewhere it falls back
// to time.Now, see transport_windows.go/transport_other.go.
type WallClock func() uint64

// HighResClock is an additive nanosecond-resolution alternative behind
// the config "high_res_clock" flag — never required, never the default.
func HighResClock() uint64 { return uint64(time.Now().UnixNano()) }

// Transport tracks sample_position/time_stamp (§3) and answers the time-
// info queries §4.G and §4.F's get_sample_position need. Advance runs on
// the backend cycle thread and Reset on the control-plane Start; reads may
// come from any thread (get_sample_position is a control-plane call), so
// the two counters are atomics rather than plain fields.
type Transport struct {
	samplePosition atomic.Uint64
	timeStamp      atomic.Uint64

	sampleRate float64
	clock      WallClock
	rolling    func() bool // backend transport state, nil if unavailable
}

// NewTransport constructs a Transport at the given sample rate, using clock
// for timestamps and rolling to answer time-code queries (may be nil if
// the backend has no transport-query symbol, in which case time-code
// reports not-rolling per §4.G).
func NewTransport(sampleRate float64, clock WallClock, rolling func() bool) *Transport {
	return &Transport{sampleRate: sampleRate, clock: clock, rolling: rolling}
}

// Reset zeroes sample_position and re-stamps time_stamp, run on every
// Start per invariant 6.
func (t *Transport) Reset() {
	t.samplePosition.Store(0)
	t.timeStamp.Store(t.clock())
}

// Advance adds n frames to sample_position and re-stamps time_stamp; this
// is step 3 of the cycle protocol (§4.E).
func (t *Transport) Advance(n uint32) {
	t.samplePosition.Add(uint64(n))
	t.timeStamp.Store(t.clock())
}

// Position returns the last-stamped (sample_position, time_stamp) pair for
// get_sample_position (§4.F; requires state >= Prepared, enforced by the
// caller).
func (t *Transport) Position() (pos, stamp uint64) {
	return t.samplePosition.Load(), t.timeStamp.Load()
}

// BuildTimeInfo assembles the record the rich guest callback receives
// (§4.G): sample position and timestamp are always valid; the time-code
// sub-fields are filled only when timeCodeEnabled, querying backend
// transport rolling state if a query function was supplied.
func (t *Transport) BuildTimeInfo(timeCodeEnabled bool) TimeInfo {
	pos, stamp := t.Position()
	ti := TimeInfo{
		SamplePosition:      pos,
		TimeStamp:           stamp,
		SampleRate:          t.sampleRate,
		SystemTimeValid:     true,
		SamplePositionValid: true,
		SampleRateValid:     true,
	}
	if timeCodeEnabled {
		ti.TimeCodeValid = true
		if t.rolling != nil {
			ti.TimeCodeRolling = t.rolling()
		}
	}
	return ti
}
