package bridge

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// rendezvousSem adapts golang.org/x/sync/semaphore.Weighted (an
// acquire/release counter, not a POSIX counting semaphore) to the
// post-then-wait shape the cycle protocol needs: post() must be safely
// callable before the paired wait() arrives, exactly like sem_post/sem_wait.
// A Weighted(1) starts fully available, so it is drained once at
// construction — after that, Release(1) ("post") raises availability back
// to 1, and Acquire(ctx, 1) ("wait") blocks until it is and consumes it
// back to 0, giving the binary handshake the protocol relies on.
type rendezvousSem struct {
	w *semaphore.Weighted
}

func newRendezvousSem() *rendezvousSem {
	w := semaphore.NewWeighted(1)
	w.Acquire(context.Background(), 1)
	return &rendezvousSem{w: w}
}

func (s *rendezvousSem) post() { s.w.Release(1) }

func (s *rendezvousSem) wait(ctx context.Context) error { return s.w.Acquire(ctx, 1) }

// TimeInfo is the time-carrying record the rich guest callback receives
// when time_info_mode is set (§4.G).
type TimeInfo struct {
	SamplePosition uint64
	TimeStamp      uint64
	SampleRate     float64

	SystemTimeValid      bool
	SamplePositionValid  bool
	SampleRateValid      bool

	TimeCodeValid   bool
	TimeCodeRolling bool
}

// Callbacks is the guest-installed callback record (§9 "Callback
// pointers"): an immutable snapshot, swapped as a whole only in
// Initialized state via CreateBuffers.
type Callbacks struct {
	Process         func(bufferIndex int, priming bool)
	ProcessTimeInfo func(bufferIndex int, priming bool, ti TimeInfo)
	Shutdown        func(reason string)
}

// Rendezvous is the two-semaphore handoff of §4.E: the backend (realtime,
// JACK-scheduled) cycle callback and the guest (Win32-context) callback
// thread trade one sem1/sem2 round-trip per cycle, reading/writing
// opposite halves of each channel's staging as selected by bufferIndex.
type Rendezvous struct {
	sem1 *rendezvousSem // "guest, you may run"
	sem2 *rendezvousSem // "backend, you may resume"

	terminate atomic.Bool
	started   chan struct{}
	stopped   chan struct{}

	bufferIndex int32 // written by Prime and the backend cycle, read by the guest loop

	callbacks       atomic.Pointer[Callbacks]
	timeInfoMode    atomic.Bool
	timeCodeEnabled atomic.Bool

	// isRunning reports whether the driver is currently in Running state;
	// supplied by the owning driver so this package stays decoupled from
	// the state machine's lock.
	isRunning func() bool
	// transport supplies the time-info fields each cycle; supplied by the
	// owning driver's transport component.
	transport func() TimeInfo
}

// NewRendezvous constructs a Rendezvous bound to the given state and
// transport queries.
func NewRendezvous(isRunning func() bool, transport func() TimeInfo) *Rendezvous {
	return &Rendezvous{
		sem1:      newRendezvousSem(),
		sem2:      newRendezvousSem(),
		started:   make(chan struct{}),
		stopped:   make(chan struct{}),
		isRunning: isRunning,
		transport: transport,
	}
}

// SetCallbacks installs the guest's callback record and time-info/time-code
// preferences. Called only from CreateBuffers, in Initialized state.
func (r *Rendezvous) SetCallbacks(cb *Callbacks, timeInfoMode, timeCodeEnabled bool) {
	r.callbacks.Store(cb)
	r.timeInfoMode.Store(timeInfoMode)
	r.timeCodeEnabled.Store(timeCodeEnabled)
}

// BufferIndex returns the half currently selected for this cycle.
func (r *Rendezvous) BufferIndex() int { return int(atomic.LoadInt32(&r.bufferIndex)) }

// Prime runs the priming cycle described in §4.E Priming: zero staging is
// assumed already done by the caller (CreateBuffers/Start own that), this
// just resets bufferIndex to 0 and invokes the guest callback inline with
// the "priming" flag, then flips bufferIndex so the first real backend
// cycle finds meaningful output in the half it reads.
func (r *Rendezvous) Prime() {
	atomic.StoreInt32(&r.bufferIndex, 0)
	cb := r.callbacks.Load()
	if cb != nil {
		r.invoke(cb, 0, true)
	}
	atomic.StoreInt32(&r.bufferIndex, 1)
}

func (r *Rendezvous) invoke(cb *Callbacks, bufferIndex int, priming bool) {
	if r.timeInfoMode.Load() && cb.ProcessTimeInfo != nil {
		cb.ProcessTimeInfo(bufferIndex, priming, r.transport())
	} else if cb.Process != nil {
		cb.Process(bufferIndex, priming)
	}
}

// Cycle runs one backend cycle (§4.E steps 1-8). copyIn/copyOut are each
// called once per cycle with the current buffer index and must not
// allocate; advance is handed nframes so the driver's transport component
// can update sample_position/time_stamp. When not running, silence is called instead of copyOut
// so every output buffer is overwritten with zeroes unconditionally,
// rather than leaving stale samples in place for inactive-channel-only
// conversion paths. Returns the value the backend process callback should
// return (0 = ok, non-zero = abort).
func (r *Rendezvous) Cycle(nframes uint32, copyIn func(bufferIndex int), copyOut func(bufferIndex int), silence func(bufferIndex int), advance func(nframes uint32)) int32 {
	if !r.isRunning() {
		silence(r.BufferIndex())
		return 0
	}

	bi := r.BufferIndex()
	copyIn(bi)
	advance(nframes)

	r.sem1.post()
	if err := r.sem2.wait(context.Background()); err != nil {
		return 1
	}

	copyOut(bi)
	atomic.StoreInt32(&r.bufferIndex, int32(1-bi))
	return 0
}

// GuestLoop is the guest thread body of §4.E: block on sem1, act, post
// sem2, repeat, until Terminate is observed. Intended to run on the
// thread winthread creates for the backend's thread-creator hook.
func (r *Rendezvous) GuestLoop() {
	close(r.started)
	defer close(r.stopped)
	for {
		if err := r.sem1.wait(context.Background()); err != nil {
			return
		}
		if r.terminate.Load() {
			return
		}
		if !r.isRunning() {
			r.sem2.post()
			continue
		}
		cb := r.callbacks.Load()
		if cb != nil {
			r.invoke(cb, r.BufferIndex(), false)
		}
		r.sem2.post()
	}
}

// Started signals once the guest loop has begun waiting on sem1.
func (r *Rendezvous) Started() <-chan struct{} { return r.started }

// Stopped signals once the guest loop has observed Terminate and exited.
func (r *Rendezvous) Stopped() <-chan struct{} { return r.stopped }

// Terminate sets the shutdown flag and posts sem1 once to unblock the
// guest loop, per §4.E Cancellation/§5.
func (r *Rendezvous) Terminate() {
	r.terminate.Store(true)
	r.sem1.post()
}
