// Package granular implements a real-time granular synthesis engine.
//
// Engine.Process renders one output sample per call and is meant to run on
// a single audio goroutine. It never allocates, blocks or logs. Content is
// handed over from other goroutines through Load, which publishes a fresh
// buffer that the next Process call swaps in.
package granular

import (
	"sync/atomic"
	"time"
)

// ----- Config ----- //

const (
	defaultMaxGrains         = 128
	defaultCaptureSeconds    = 10
	defaultMinCaptureSamples = 64
)

// Config fixes the engine's resource limits. It cannot change after
// NewEngine.
type Config struct {
	MaxGrains         int
	CaptureSeconds    float64
	MinCaptureSamples int
	Seed              int64 // 0 seeds from the clock
}

// DefaultConfig ...
func DefaultConfig() Config {
	return Config{
		MaxGrains:         defaultMaxGrains,
		CaptureSeconds:    defaultCaptureSeconds,
		MinCaptureSamples: defaultMinCaptureSamples,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MaxGrains <= 0 {
		c.MaxGrains = d.MaxGrains
	}
	if c.CaptureSeconds <= 0 {
		c.CaptureSeconds = d.CaptureSeconds
	}
	if c.MinCaptureSamples <= 0 {
		c.MinCaptureSamples = d.MinCaptureSamples
	}
	return c
}

// ----- Controls & Inputs ----- //

// Controls are the knob values read once per tick.
type Controls struct {
	Compression float64 // [0,1]
	Size        float64 // seconds, [0.01,2]
	Density     float64 // Hz, [1,100]
	Shape       float64 // [0,1]
	Position    float64 // [0,1]
	Pitch       float64 // [0,1], 0.5 plays at unity

	RandomSize     float64
	RandomDensity  float64
	RandomShape    float64
	RandomPosition float64
	RandomPitch    float64 // octaves

	ModSize     float64 // CV trims, [-1,1]
	ModDensity  float64
	ModShape    float64
	ModPosition float64
	ModPitch    float64

	LoopStart float64
	LoopEnd   float64

	Sync bool
	BPM  float64 // [20,300]
}

// DefaultControls ...
func DefaultControls() Controls {
	return Controls{
		Size:    0.5,
		Density: 1,
		Shape:   0.5,
		Pitch:   0.5,
		LoopEnd: 1,
		BPM:     120,
	}
}

// Inputs are the per-tick signal values. CVs are in volts.
type Inputs struct {
	PitchCV    float64 // V/oct, added to the pitch knob
	SizeCV     float64
	DensityCV  float64
	ShapeCV    float64
	PositionCV float64
	PitchModCV float64

	AudioIn    float64
	RecordGate bool

	Clock          float64
	ClockConnected bool
}

// ProcessArgs ...
type ProcessArgs struct {
	SampleRate float64
	SampleTime float64
}

// ----- Engine ----- //

// Engine ...
type Engine struct {
	cfg Config

	buf     *sampleBuffer
	pending atomic.Pointer[sampleBuffer]
	loading atomic.Bool

	// mirrors recorder.active for readers outside the audio goroutine
	recording atomic.Bool

	recorder  recorder
	scheduler scheduler
	tempo     tempoQuantizer
	clock     clockDetector
	values    modulated
	request   spawnRequest
	rnd       randomizer
}

// NewEngine ...
func NewEngine(cfg Config) *Engine {
	cfg = cfg.withDefaults()
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	e := &Engine{
		cfg: cfg,
		recorder: recorder{
			captureSeconds: cfg.CaptureSeconds,
			minSamples:     cfg.MinCaptureSamples,
		},
		scheduler: newScheduler(cfg.MaxGrains),
		rnd:       newRandomizer(seed),
	}
	e.request.values = &e.values
	return e
}

// Process renders one tick.
func (e *Engine) Process(c *Controls, in *Inputs, args ProcessArgs) float64 {
	if b := e.pending.Swap(nil); b != nil {
		e.buf = b
		e.scheduler.clear()
		e.recorder.cancel()
		e.recording.Store(false)
	}

	if in.ClockConnected {
		e.clock.process(in.Clock, args.SampleTime)
	} else {
		e.clock.reset()
	}

	started, stopped := e.recorder.gate(in.RecordGate)
	if started {
		e.buf = e.recorder.start(args.SampleRate)
		e.scheduler.clear()
		e.recording.Store(true)
	} else if stopped {
		e.recorder.stop()
		e.recording.Store(false)
	}
	e.request.region = newLoopRegion(c.LoopStart, c.LoopEnd, e.buf.activeLength())
	if e.recorder.active {
		e.recorder.write(in.AudioIn)
		return 0
	}

	if e.loading.Load() || e.buf.empty() {
		return 0
	}

	e.values.compute(c, in)
	e.tempo.sync = c.Sync
	e.tempo.bpm = bpmRange.clamp(c.BPM)
	if bpm, ok := e.clock.bpm(); ok {
		e.tempo.bpm = bpm
	}
	e.request.controls = c
	e.request.pitchOffset = in.PitchCV

	mixed := e.scheduler.step(e.buf, &e.request, &e.tempo, e.rnd, args.SampleTime)
	return shapeOutput(mixed, c.Compression)
}

// ----- Loading ----- //

// BeginLoad silences playback until Load or CancelLoad.
func (e *Engine) BeginLoad() {
	e.loading.Store(true)
}

// CancelLoad ...
func (e *Engine) CancelLoad() {
	e.loading.Store(false)
}

// Load copies samples into a new buffer and publishes it. The audio
// goroutine picks it up on its next tick, clearing all grains and
// stopping any capture.
func (e *Engine) Load(samples []float32, sampleRate int) error {
	if len(samples) == 0 {
		e.loading.Store(false)
		return ErrEmptySamples
	}
	if sampleRate <= 0 {
		e.loading.Store(false)
		return ErrInvalidSampleRate
	}
	e.pending.Store(newSampleBuffer(samples, sampleRate))
	e.loading.Store(false)
	return nil
}

// IsLoading ...
func (e *Engine) IsLoading() bool {
	return e.loading.Load()
}

// IsRecording ...
func (e *Engine) IsRecording() bool {
	return e.recording.Load()
}

// ----- Views ----- //
//
// The methods below read state owned by the audio goroutine. Callers
// must serialize them with Process.

// GrainView is a grain as shown on a display. Position is normalized to
// the active length.
type GrainView struct {
	Position float64
	Shape    float64
	Life     float64
}

// Snapshot ...
type Snapshot struct {
	Loading       bool
	Recording     bool
	RawVoltage    bool
	Length        int
	SampleRate    float64
	LoopStart     float64
	LoopEnd       float64
	SpawnPosition float64
	Grains        []GrainView
}

// Snapshot fills dst, reusing its Grains storage. The loop bounds follow
// the controls of the latest tick even while silent; SpawnPosition is
// only updated while grains are being scheduled.
func (e *Engine) Snapshot(dst *Snapshot) {
	dst.Loading = e.loading.Load()
	dst.Recording = e.recorder.active
	dst.LoopStart = e.request.region.startNorm
	dst.LoopEnd = e.request.region.endNorm
	dst.SpawnPosition = e.scheduler.spawnPosition
	dst.Grains = dst.Grains[:0]
	if e.buf == nil {
		dst.RawVoltage = false
		dst.Length = 0
		dst.SampleRate = 0
		return
	}
	dst.RawVoltage = e.buf.rawVoltage
	dst.Length = e.buf.length
	dst.SampleRate = e.buf.sampleRate
	last := float64(e.buf.length - 1)
	if last < 1 {
		last = 1
	}
	for _, g := range e.scheduler.grains {
		dst.Grains = append(dst.Grains, GrainView{
			Position: g.Position / last,
			Shape:    g.Shape,
			Life:     g.Life,
		})
	}
}

// Waveform fills dst with one peak per bucket over the active content.
// Captured content is scaled from volts into [-1,1].
func (e *Engine) Waveform(dst []Peak) {
	e.buf.peaks(dst)
}

// CopyBuffer appends the active content to dst[:0] and reports its
// sample rate and whether it holds raw voltages.
func (e *Engine) CopyBuffer(dst []float32) ([]float32, int, bool) {
	if e.buf.empty() {
		return dst[:0], 0, false
	}
	dst = append(dst[:0], e.buf.samples[:e.buf.length]...)
	return dst, int(e.buf.sampleRate), e.buf.rawVoltage
}

// ----- State ----- //

// State is the mutable scheduling and capture state of an engine.
type State struct {
	SpawnTimer    float64
	SpawnPosition float64
	RecordHead    int
	Wrapped       bool
	Recording     bool
	GateHigh      bool
	Grains        []Grain
}

// State ...
func (e *Engine) State() State {
	return State{
		SpawnTimer:    e.scheduler.spawnTimer,
		SpawnPosition: e.scheduler.spawnPosition,
		RecordHead:    e.recorder.head,
		Wrapped:       e.recorder.wrapped,
		Recording:     e.recorder.active,
		GateHigh:      e.recorder.gateHigh,
		Grains:        append([]Grain(nil), e.scheduler.grains...),
	}
}

// Restore overwrites the engine state with s. Grains beyond MaxGrains
// are dropped. Recording is only restored when a capture tape exists,
// and the head is clamped into it.
func (e *Engine) Restore(s State) {
	e.scheduler.spawnTimer = s.SpawnTimer
	e.scheduler.spawnPosition = s.SpawnPosition
	n := min(len(s.Grains), cap(e.scheduler.grains))
	e.scheduler.grains = append(e.scheduler.grains[:0], s.Grains[:n]...)

	e.recorder.gateHigh = s.GateHigh
	e.recorder.wrapped = s.Wrapped
	e.recorder.head = 0
	e.recorder.active = false
	if t := e.recorder.tape; t != nil && len(t.samples) > 0 {
		e.recorder.head = max(0, min(s.RecordHead, len(t.samples)-1))
		if s.Recording {
			e.recorder.active = true
			e.buf = t
		}
	}
	e.recording.Store(e.recorder.active)
}
