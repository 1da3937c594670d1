// Command jackasio-demo runs a bridge.Driver through its lifecycle next to
// an open local audio device that plays silence, so the rendezvous
// handoff can be exercised end-to-end during development. The guest
// callback's samples are not sent to the device. It is not part of the
// driver's guest-facing COM surface — just a development harness.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/ebitengine/oto/v3"
	flag "github.com/spf13/pflag"

	"github.com/intuitionamiga/jackasio/bridge"
	"github.com/intuitionamiga/jackasio/config"
	"github.com/intuitionamiga/jackasio/symtab"
	"github.com/intuitionamiga/jackasio/winthread"
)

func main() {
	var (
		inputs  = flag.Int("inputs", 2, "number of input channels")
		outputs = flag.Int("outputs", 2, "number of output channels")
		buf     = flag.Int("buffer", 1024, "buffer size in frames")
		seconds = flag.Int("seconds", 5, "seconds to run before stopping")
	)
	flag.Parse()

	cfg := config.Resolver{UserConfigPath: config.DefaultUserConfigPath()}.Resolve()
	cfg.NumInputs = *inputs
	cfg.NumOutputs = *outputs
	cfg.PreferredBufferSize = *buf

	tab := symtab.Load()
	if !tab.Available() {
		fmt.Fprintf(os.Stderr, "jackasio-demo: JACK backend not available: %v\n", tab.LoadError())
		os.Exit(1)
	}

	d := bridge.NewDriver(cfg, tab, winthread.Creator())
	if err := d.Open("jackasio-demo"); err != nil {
		fmt.Fprintf(os.Stderr, "jackasio-demo: open failed: %v\n", err)
		os.Exit(1)
	}
	defer d.Release()

	sink, sinkReady, err := newOtoSink(cfg.PreferredBufferSize)
	if err != nil {
		fmt.Fprintf(os.Stderr, "jackasio-demo: audio sink init failed: %v\n", err)
		os.Exit(1)
	}
	<-sinkReady

	infos := make([]bridge.ChannelRef, 0, *inputs+*outputs)
	for i := 0; i < *inputs; i++ {
		infos = append(infos, bridge.ChannelRef{IsInput: true, Index: i})
	}
	for i := 0; i < *outputs; i++ {
		infos = append(infos, bridge.ChannelRef{IsInput: false, Index: i})
	}

	cb := &bridge.Callbacks{
		Process: func(bufferIndex int, priming bool) {
			sink.feedSilentPassthrough()
		},
	}

	_, _, pref, _, _ := d.GetBufferSize()
	bs := *buf
	if bs == 0 {
		bs = pref
	}

	if err := d.CreateBuffers(infos, bs, cb, false, false); err != nil {
		fmt.Fprintf(os.Stderr, "jackasio-demo: create_buffers failed: %v\n", err)
		os.Exit(1)
	}
	if err := d.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "jackasio-demo: start failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("jackasio-demo: running for %ds (%d in / %d out, %d frames)\n", *seconds, *inputs, *outputs, bs)
	time.Sleep(time.Duration(*seconds) * time.Second)

	if err := d.Stop(); err != nil {
		fmt.Fprintf(os.Stderr, "jackasio-demo: stop failed: %v\n", err)
	}
	if err := d.DisposeBuffers(); err != nil {
		fmt.Fprintf(os.Stderr, "jackasio-demo: dispose_buffers failed: %v\n", err)
	}
}

// otoSink plays a continuous silent stream through a real local device so
// the process can be confirmed running with a device actually open; the
// guest callback's real samples stay in the driver's staging buffers and
// are not mixed in here — this harness listens to the rendezvous handoff
// happening, it does not audition the samples themselves.
type otoSink struct {
	ctx    *oto.Context
	player *oto.Player
}

func newOtoSink(bufferFrames int) (*otoSink, <-chan struct{}, error) {
	op := &oto.NewContextOptions{
		SampleRate:   48000,
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
		BufferSize:   time.Duration(bufferFrames) * time.Second / 48000,
	}
	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, nil, err
	}
	s := &otoSink{ctx: ctx}
	go func() {
		<-ready
		s.player = ctx.NewPlayer(silenceReader{})
		s.player.Play()
	}()
	return s, ready, nil
}

// silenceReader is an infinite stream of zero bytes, enough to keep the
// device's playback loop alive without allocating per read.
type silenceReader struct{}

func (silenceReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = 0
	}
	return len(p), nil
}

func (s *otoSink) feedSilentPassthrough() {}
