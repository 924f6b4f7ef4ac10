package audio

import (
	"log"

	"github.com/jinjor/desktop-granular/src/granular"
	"github.com/jinjor/desktop-granular/src/sample"
)

// lineInLevel is the voltage a full-scale file drives the audio input to.
const lineInLevel = granular.OutputLevel

// ----- Loading ----- //

// load decodes path in the background. The engine stays silent until the
// new content is published or the load fails.
func (a *Audio) load(path string) {
	a.state.engine.BeginLoad()
	a.Changes.Add("status")
	a.loads.Add(1)
	go func() {
		defer a.loads.Done()
		defer a.Changes.Add("status")
		log.Printf("loading %s...", path)
		clip, err := sample.DecodeFile(path)
		if err != nil {
			log.Printf("failed to load %s: %v", path, err)
			a.state.engine.CancelLoad()
			return
		}
		if err := a.state.engine.Load(clip.Samples, clip.SampleRate); err != nil {
			log.Printf("failed to load %s: %v", path, err)
			return
		}
		// the engine stops capture on load; keep the knob in step
		a.setRecord(false)
		log.Printf("loaded %s (%v, %d Hz)", path, clip.Duration(), clip.SampleRate)
	}()
}

// loadInput decodes path in the background and streams it into the
// engine's audio input.
func (a *Audio) loadInput(path string) {
	a.loads.Add(1)
	go func() {
		defer a.loads.Done()
		clip, err := sample.DecodeFile(path)
		if err != nil {
			log.Printf("failed to open input %s: %v", path, err)
			return
		}
		l, err := newLineIn(clip)
		if err != nil {
			log.Printf("failed to open input %s: %v", path, err)
			return
		}
		a.setLineIn(l)
		log.Printf("input: %s", path)
	}()
}

func (a *Audio) setLineIn(l *lineIn) {
	a.state.Lock()
	a.state.lineIn = l
	a.state.Unlock()
	a.Changes.Add("status")
}

// save writes the active content as a mono WAV. Captured voltages are
// scaled back to [-1,1].
func (a *Audio) save(path string) error {
	a.state.Lock()
	buf, rate, raw := a.state.engine.CopyBuffer(a.state.exportBuf)
	a.state.exportBuf = buf
	a.state.Unlock()
	if rate == 0 || len(buf) == 0 {
		return ErrNothingToSave
	}
	if raw {
		for i := range buf {
			buf[i] /= granular.OutputLevel
		}
	}
	if err := sample.WriteFile(path, rate, buf); err != nil {
		return err
	}
	log.Printf("saved %s", path)
	return nil
}

// ----- Line In ----- //

// lineIn loops a clip that has been converted to the output rate.
type lineIn struct {
	samples []float32
	pos     int
}

func newLineIn(clip *sample.Clip) (*lineIn, error) {
	converted, err := sample.Resample(clip, sampleRate)
	if err != nil {
		return nil, err
	}
	return &lineIn{samples: converted.Samples}, nil
}

func (l *lineIn) next() float64 {
	if l == nil || len(l.samples) == 0 {
		return 0
	}
	v := l.samples[l.pos]
	l.pos++
	if l.pos >= len(l.samples) {
		l.pos = 0
	}
	return float64(v) * lineInLevel
}
