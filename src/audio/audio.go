package audio

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"sync"

	"github.com/hajimehoshi/oto"
	"github.com/jinjor/desktop-granular/src/granular"
)

const (
	sampleRate      = 48000
	channelNum      = 2
	bitDepthInBytes = 2
	samplesPerCycle = 1024
	fftSize         = 2048
	waveformBuckets = 256
)
const bytesPerSample = bitDepthInBytes * channelNum
const bufferSizeInBytes = samplesPerCycle * bytesPerSample // should be >= 4096
const secPerSample = 1.0 / sampleRate

var processArgs = granular.ProcessArgs{
	SampleRate: sampleRate,
	SampleTime: secPerSample,
}

// ----- Utility ----- //

func toRawMessage(v interface{}) json.RawMessage {
	bytes, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return json.RawMessage(bytes)
}

// ----- Changes ----- //

// Changes ...
type Changes struct {
	sync.Mutex
	dict map[string]struct{}
}

// Add ...
func (c *Changes) Add(key string) {
	c.Lock()
	c.dict[key] = struct{}{}
	c.Unlock()
}

// Has ...
func (c *Changes) Has(key string) bool {
	c.Lock()
	_, ok := c.dict[key]
	c.Unlock()
	return ok
}

// Delete ...
func (c *Changes) Delete(key string) {
	c.Lock()
	delete(c.dict, key)
	c.Unlock()
}

// ----- State ----- //

type state struct {
	sync.Mutex
	params    *params
	inputs    granular.Inputs
	engine    *granular.Engine
	lineIn    *lineIn
	clock     midiClock
	pos       int64
	out       []float64 // length: fftSize
	snapshot  granular.Snapshot
	exportBuf []float32
}

func newState(cfg granular.Config) *state {
	return &state{
		params: newParams(),
		engine: granular.NewEngine(cfg),
		out:    make([]float64, fftSize),
	}
}

// ----- Audio ----- //

// Audio ...
type Audio struct {
	ctx        context.Context
	otoContext *oto.Context
	CommandCh  chan []string
	state      *state
	Changes    *Changes
	spectrum   *spectrum
	fftResult  []float64 // length: fftSize
	loads      sync.WaitGroup
}

var _ io.Reader = (*Audio)(nil)

type audioJSON struct {
	State json.RawMessage `json:"state"`
}

// ApplyJSON ...
func (a *Audio) ApplyJSON(data []byte) {
	a.state.Lock()
	defer a.state.Unlock()
	var audioJSON audioJSON
	err := json.Unmarshal(data, &audioJSON)
	if err != nil {
		log.Println("failed to apply JSON to Audio", err)
		return
	}
	a.state.params.applyJSON(audioJSON.State)
}

// ToJSON ...
func (a *Audio) ToJSON() []byte {
	a.state.Lock()
	defer a.state.Unlock()
	bytes, err := json.Marshal(a.toJSON())
	if err != nil {
		panic(err)
	}
	return bytes
}

func (a *Audio) toJSON() json.RawMessage {
	return toRawMessage(&audioJSON{
		State: a.state.params.toJSON(),
	})
}

// Read renders one engine tick per frame into interleaved 16-bit PCM.
func (a *Audio) Read(buf []byte) (int, error) {
	select {
	case <-a.ctx.Done():
		log.Println("Read() interrupted.")
		return 0, io.EOF
	default:
		a.state.Lock()
		defer a.state.Unlock()
		s := a.state
		frames := len(buf) / bytesPerSample
		s.params.applyInputs(&s.inputs)
		for i := 0; i < frames; i++ {
			s.inputs.AudioIn = s.lineIn.next()
			v := s.engine.Process(&s.params.controls, &s.inputs, processArgs) / granular.OutputLevel
			s.out[(s.pos+int64(i))%fftSize] = v
			writeFrame(buf, i, v)
		}
		s.pos += int64(frames)
		return frames * bytesPerSample, nil
	}
}

func writeFrame(buf []byte, frame int, value float64) {
	if value > 1 {
		value = 1
	} else if value < -1 {
		value = -1
	}
	const max = 32767
	b := int16(value * max)
	for ch := 0; ch < channelNum; ch++ {
		buf[bytesPerSample*frame+2*ch] = byte(b)
		buf[bytesPerSample*frame+2*ch+1] = byte(b >> 8)
	}
}

func newAudio(cfg granular.Config) *Audio {
	return &Audio{
		ctx:       context.Background(),
		CommandCh: make(chan []string, 256),
		state:     newState(cfg),
		Changes: &Changes{
			dict: make(map[string]struct{}),
		},
		spectrum:  newSpectrum(fftSize),
		fftResult: make([]float64, fftSize),
	}
}

// NewAudio opens the output device and starts consuming CommandCh.
func NewAudio(cfg granular.Config) (*Audio, error) {
	otoContext, err := oto.NewContext(sampleRate, channelNum, bitDepthInBytes, bufferSizeInBytes)
	if err != nil {
		return nil, err
	}
	audio := newAudio(cfg)
	audio.otoContext = otoContext
	go processCommands(audio, audio.CommandCh)
	return audio, nil
}

func processCommands(audio *Audio, commandCh <-chan []string) {
	for command := range commandCh {
		if err := audio.update(command); err != nil {
			log.Printf("command %v: %v", command, err)
		}
	}
	log.Println("processCommands() ended.")
}

func (a *Audio) update(command []string) error {
	if len(command) == 0 {
		return ErrInvalidCommand
	}
	args := command[1:]
	switch command[0] {
	case "set":
		if len(args) != 2 {
			return fmt.Errorf("%w: invalid key-value pair %v", ErrInvalidCommand, args)
		}
		a.state.Lock()
		err := a.state.params.set(args[0], args[1])
		a.state.Unlock()
		if err != nil {
			return err
		}
		a.Changes.Add("data")
	case "cv":
		if len(args) != 2 {
			return fmt.Errorf("%w: invalid key-value pair %v", ErrInvalidCommand, args)
		}
		a.state.Lock()
		err := a.state.params.setCV(args[0], args[1])
		a.state.Unlock()
		if err != nil {
			return err
		}
		a.Changes.Add("data")
	case "record":
		if len(args) != 1 {
			return fmt.Errorf("%w: record needs on or off", ErrInvalidCommand)
		}
		var on bool
		switch args[0] {
		case "on":
			on = true
		case "off":
		default:
			return fmt.Errorf("%w: record %q", ErrInvalidCommand, args[0])
		}
		a.setRecord(on)
	case "load":
		if len(args) != 1 {
			return fmt.Errorf("%w: load needs a path", ErrInvalidCommand)
		}
		a.load(args[0])
	case "input":
		if len(args) != 1 {
			return fmt.Errorf("%w: input needs a path or none", ErrInvalidCommand)
		}
		if args[0] == "none" {
			a.setLineIn(nil)
			return nil
		}
		a.loadInput(args[0])
	case "save":
		if len(args) != 1 {
			return fmt.Errorf("%w: save needs a path", ErrInvalidCommand)
		}
		return a.save(args[0])
	default:
		return fmt.Errorf("%w: %v", ErrUnknownCommand, command[0])
	}
	return nil
}

func (a *Audio) setRecord(on bool) {
	a.state.Lock()
	a.state.params.record = on
	a.state.Unlock()
	a.Changes.Add("data")
}

// Close ...
func (a *Audio) Close() error {
	log.Println("Closing Audio...")
	close(a.CommandCh)
	a.loads.Wait()
	if a.otoContext == nil {
		return nil
	}
	return a.otoContext.Close()
}

// Start ...
func (a *Audio) Start(ctx context.Context) error {
	p := a.otoContext.NewPlayer()
	defer func() {
		if err := p.Close(); err != nil {
			log.Printf("error: %v", err)
		}
	}()
	a.ctx = ctx

	// block until cancel() called
	if _, err := io.CopyBuffer(p, a, make([]byte, bufferSizeInBytes)); err != nil {
		return err
	}
	log.Println("Start() ended.")
	return nil
}

// GetFFT ...
func (a *Audio) GetFFT() []float64 {
	a.state.Lock()
	// out:       | 4 | 1 | 2 | 3 |
	// offset:        ^
	// fftResult: | 1 | 2 | 3 | 4 |
	// return:    |<----->|
	offset := a.state.pos % fftSize
	copy(a.fftResult, a.state.out[offset:])
	copy(a.fftResult[fftSize-offset:], a.state.out[:offset])
	a.state.Unlock()
	return a.spectrum.magnitudes(a.fftResult)
}

// Snapshot returns a copy of the engine's display state.
func (a *Audio) Snapshot() granular.Snapshot {
	a.state.Lock()
	defer a.state.Unlock()
	a.state.engine.Snapshot(&a.state.snapshot)
	s := a.state.snapshot
	s.Grains = append([]granular.GrainView(nil), s.Grains...)
	return s
}

// Waveform ...
func (a *Audio) Waveform() []granular.Peak {
	peaks := make([]granular.Peak, waveformBuckets)
	a.state.Lock()
	a.state.engine.Waveform(peaks)
	a.state.Unlock()
	return peaks
}
