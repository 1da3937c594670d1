package bridge

import (
	"testing"
	"time"

	"github.com/intuitionamiga/jackasio/symtab"
)

func newTestDriver(t *testing.T, cfg DriverConfig, backend *symtab.StubBackend) *Driver {
	t.Helper()
	tab := symtab.NewStub(backend)
	return NewDriver(cfg, tab, nil)
}

func noopCallbacks() *Callbacks {
	return &Callbacks{Process: func(int, bool) {}}
}

// S1 Open-close cycle.
func TestScenarioS1OpenClose(t *testing.T) {
	cfg := DriverConfig{NumInputs: 2, NumOutputs: 2, FixedBufferSize: true, PreferredBufferSize: 1024}
	backend := &symtab.StubBackend{SampleRate: 48000, BufferSize: 1024}
	d := newTestDriver(t, cfg, backend)

	if err := d.Open("guest"); err != nil {
		t.Fatalf("open failed: %v", err)
	}
	in, out := d.GetChannels()
	if in != 2 || out != 2 {
		t.Fatalf("GetChannels = (%d, %d), want (2, 2)", in, out)
	}
	min, max, pref, gran, err := d.GetBufferSize()
	if err != nil || min != 1024 || max != 1024 || pref != 1024 || gran != 0 {
		t.Fatalf("GetBufferSize = (%d,%d,%d,%d,%v), want (1024,1024,1024,0,nil)", min, max, pref, gran, err)
	}
	sr, err := d.GetSampleRate()
	if err != nil || sr != 48000 {
		t.Fatalf("GetSampleRate = (%v, %v), want (48000, nil)", sr, err)
	}

	if n := d.Release(); n != 0 {
		t.Fatalf("Release returned %d, want 0", n)
	}
	if d.State() != Loaded {
		t.Fatalf("state after teardown = %v, want Loaded", d.State())
	}
}

// S3 Sample-position accounting.
func TestScenarioS3SamplePosition(t *testing.T) {
	cfg := DriverConfig{NumInputs: 1, NumOutputs: 1, PreferredBufferSize: 512}
	backend := &symtab.StubBackend{SampleRate: 48000, BufferSize: 512}
	d := newTestDriver(t, cfg, backend)

	if err := d.Open("guest"); err != nil {
		t.Fatal(err)
	}
	infos := []ChannelRef{{IsInput: true, Index: 0}, {IsInput: false, Index: 0}}
	if err := d.CreateBuffers(infos, 512, noopCallbacks(), false, false); err != nil {
		t.Fatalf("create_buffers: %v", err)
	}
	if err := d.Start(); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 10; i++ {
		if rc := d.processCallback(512); rc != 0 {
			t.Fatalf("cycle %d returned %d", i, rc)
		}
	}

	pos, stamp, err := d.GetSamplePosition()
	if err != nil {
		t.Fatal(err)
	}
	if pos != 5120 {
		t.Fatalf("sample position = %d, want 5120", pos)
	}
	now := uint64(time.Now().UnixMilli())
	if stamp > now+50 || (now > 50 && stamp < now-50) {
		t.Fatalf("timestamp %d not within 50ms of now %d", stamp, now)
	}
}

// S4 Illegal transitions.
func TestScenarioS4IllegalTransitions(t *testing.T) {
	cfg := DriverConfig{NumInputs: 1, NumOutputs: 1}
	backend := &symtab.StubBackend{SampleRate: 48000, BufferSize: 1024}
	d := newTestDriver(t, cfg, backend)

	if err := d.CreateBuffers(nil, 1024, noopCallbacks(), false, false); KindOf(err) != KindWrongState {
		t.Fatalf("create_buffers from Loaded = %v, want WrongState", err)
	}
	if err := d.Start(); KindOf(err) != KindWrongState {
		t.Fatalf("start from Loaded = %v, want WrongState", err)
	}
	if err := d.Stop(); KindOf(err) != KindWrongState {
		t.Fatalf("stop from Loaded = %v, want WrongState", err)
	}

	if err := d.Open("guest"); err != nil {
		t.Fatal(err)
	}
	if err := d.CreateBuffers([]ChannelRef{{IsInput: true, Index: 0}}, 1024, noopCallbacks(), false, false); err != nil {
		t.Fatal(err)
	}
	if err := d.Start(); err != nil {
		t.Fatal(err)
	}
	if err := d.CreateBuffers([]ChannelRef{{IsInput: true, Index: 0}}, 1024, noopCallbacks(), false, false); KindOf(err) != KindWrongState {
		t.Fatalf("create_buffers from Running = %v, want WrongState", err)
	}
}

// S5 Buffer-size change path.
func TestScenarioS5BufferSizeChange(t *testing.T) {
	cfg := DriverConfig{NumInputs: 1, NumOutputs: 1, FixedBufferSize: false, PreferredBufferSize: 1024}
	backend := &symtab.StubBackend{SampleRate: 48000, BufferSize: 1024}
	d := newTestDriver(t, cfg, backend)
	if err := d.Open("guest"); err != nil {
		t.Fatal(err)
	}

	infos := []ChannelRef{{IsInput: true, Index: 0}}
	if err := d.CreateBuffers(infos, 512, noopCallbacks(), false, false); err != nil {
		t.Fatalf("create_buffers(512): %v", err)
	}
	min, max, pref, gran, _ := d.GetBufferSize()
	if min != 16 || max != 8192 || pref != 1024 || gran != -1 {
		t.Fatalf("GetBufferSize = (%d,%d,%d,%d), want (16,8192,1024,-1)", min, max, pref, gran)
	}

	d2 := newTestDriver(t, cfg, &symtab.StubBackend{SampleRate: 48000, BufferSize: 1024})
	d2.Open("guest")
	if err := d2.CreateBuffers(infos, 1000, noopCallbacks(), false, false); KindOf(err) != KindInvalidMode {
		t.Fatalf("create_buffers(1000) = %v, want InvalidMode", err)
	}

	d3 := newTestDriver(t, cfg, &symtab.StubBackend{SampleRate: 48000, BufferSize: 1024})
	d3.Open("guest")
	if err := d3.CreateBuffers(infos, 32768, noopCallbacks(), false, false); KindOf(err) != KindInvalidMode {
		t.Fatalf("create_buffers(32768) = %v, want InvalidMode", err)
	}
}

// S6 Channel mapping.
func TestScenarioS6ChannelMapping(t *testing.T) {
	cfg := DriverConfig{NumInputs: 2, NumOutputs: 2, PreferredBufferSize: 256}
	backend := &symtab.StubBackend{SampleRate: 48000, BufferSize: 256}
	d := newTestDriver(t, cfg, backend)
	if err := d.Open("guest"); err != nil {
		t.Fatal(err)
	}

	infos := []ChannelRef{
		{IsInput: true, Index: 0},
		{IsInput: false, Index: 0},
		{IsInput: false, Index: 1},
	}
	if err := d.CreateBuffers(infos, 256, noopCallbacks(), false, false); err != nil {
		t.Fatal(err)
	}

	in0, err := d.GetChannelInfo(0, true)
	if err != nil || !in0.Active {
		t.Fatalf("input 0 should be active: %+v, %v", in0, err)
	}
	in1, err := d.GetChannelInfo(1, true)
	if err != nil || in1.Active {
		t.Fatalf("input 1 should be inactive: %+v, %v", in1, err)
	}
	out0, _ := d.GetChannelInfo(0, false)
	out1, _ := d.GetChannelInfo(1, false)
	if !out0.Active || !out1.Active {
		t.Fatalf("both outputs should be active: %+v %+v", out0, out1)
	}
}

// S7 Backend absent.
func TestScenarioS7BackendAbsent(t *testing.T) {
	var tab symtab.Table
	cfg := DriverConfig{NumInputs: 1, NumOutputs: 1}
	d := NewDriver(cfg, &tab, nil)

	if err := d.Open("guest"); KindOf(err) != KindUnavailable {
		t.Fatalf("open with absent backend = %v, want Unavailable", err)
	}
	if d.State() != Loaded {
		t.Fatalf("state = %v, want Loaded", d.State())
	}
	if err := d.Start(); KindOf(err) != KindWrongState {
		t.Fatalf("start on Loaded after failed open = %v, want WrongState", err)
	}
}

// Property 5: reference idempotence — the N-th Release runs teardown
// exactly once; the reported count never goes negative.
func TestReferenceIdempotence(t *testing.T) {
	cfg := DriverConfig{NumInputs: 1, NumOutputs: 1}
	backend := &symtab.StubBackend{SampleRate: 48000, BufferSize: 1024}
	d := newTestDriver(t, cfg, backend)
	if err := d.Open("guest"); err != nil {
		t.Fatal(err)
	}

	d.AddRef()
	d.AddRef()
	if n := d.Release(); n != 2 {
		t.Fatalf("Release = %d, want 2", n)
	}
	if n := d.Release(); n != 1 {
		t.Fatalf("Release = %d, want 1", n)
	}
	if n := d.Release(); n != 0 {
		t.Fatalf("final Release = %d, want 0", n)
	}
	if d.State() != Loaded {
		t.Fatalf("state after final release = %v, want Loaded", d.State())
	}
}
