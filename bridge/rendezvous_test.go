package bridge

import (
	"sync"
	"testing"
	"time"
)

func newTestRendezvous(running *bool) *Rendezvous {
	return NewRendezvous(func() bool { return *running }, func() TimeInfo { return TimeInfo{} })
}

// S2 Start-stop with priming: the recorded (bufferIndex, priming) pairs
// over the priming call plus four cycles must match the documented
// start/stop-with-priming scenario exactly.
func TestPrimingSequenceMatchesScenarioS2(t *testing.T) {
	running := true
	r := newTestRendezvous(&running)

	type call struct {
		bi      int
		priming bool
	}
	var mu sync.Mutex
	var calls []call

	cb := &Callbacks{
		Process: func(bi int, priming bool) {
			mu.Lock()
			calls = append(calls, call{bi, priming})
			mu.Unlock()
		},
	}
	r.SetCallbacks(cb, false, false)

	go r.GuestLoop()
	<-r.Started()

	r.Prime()

	for i := 0; i < 4; i++ {
		rc := r.Cycle(64, func(int) {}, func(int) {}, func(int) {}, func(uint32) {})
		if rc != 0 {
			t.Fatalf("cycle %d returned non-zero", i)
		}
	}

	r.Terminate()
	<-r.Stopped()

	want := []call{{0, true}, {1, false}, {0, false}, {1, false}, {0, false}}
	mu.Lock()
	defer mu.Unlock()
	if len(calls) != len(want) {
		t.Fatalf("got %d calls, want %d: %+v", len(calls), len(want), calls)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Fatalf("call %d = %+v, want %+v", i, calls[i], want[i])
		}
	}
}

// Property 2/3: the staging half the guest callback observes for cycle c
// must be exactly the half the backend copied inputs into for c, and must
// never be the half a concurrent copyOutput call is touching. Driven with
// -race as the oracle: no manual assertions beyond "did not race".
func TestRendezvousNoTearingUnderRace(t *testing.T) {
	running := true
	r := newTestRendezvous(&running)

	const halves = 2
	var staging [halves][]int32
	staging[0] = make([]int32, 64)
	staging[1] = make([]int32, 64)

	cb := &Callbacks{
		Process: func(bi int, _ bool) {
			for i := range staging[bi] {
				staging[bi][i] = staging[bi][i] + 1
			}
		},
	}
	r.SetCallbacks(cb, false, false)

	go r.GuestLoop()
	<-r.Started()

	const cycles = 200
	done := make(chan struct{})
	go func() {
		for i := 0; i < cycles; i++ {
			r.Cycle(64, func(bi int) {
				for j := range staging[bi] {
					staging[bi][j] = 0
				}
			}, func(int) {}, func(int) {}, func(uint32) {})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("rendezvous stalled")
	}

	r.Terminate()
	<-r.Stopped()
}

func TestTerminateUnblocksGuestLoopEvenMidCycleWait(t *testing.T) {
	running := true
	r := newTestRendezvous(&running)
	r.SetCallbacks(&Callbacks{Process: func(int, bool) {}}, false, false)

	go r.GuestLoop()
	<-r.Started()

	r.Terminate()

	select {
	case <-r.Stopped():
	case <-time.After(2 * time.Second):
		t.Fatal("guest loop did not observe terminate")
	}
}
