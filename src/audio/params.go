package audio

import (
	"encoding/json"
	"fmt"
	"log"
	"strconv"

	"github.com/jinjor/desktop-granular/src/granular"
)

const maxCV = 10.0 // volts

type paramRange struct {
	min float64
	max float64
}

func (r paramRange) clamp(v float64) float64 {
	if v < r.min {
		return r.min
	}
	if v > r.max {
		return r.max
	}
	return v
}

func (r paramRange) fromNormalized(norm float64) float64 {
	return r.clamp(r.min + norm*(r.max-r.min))
}

var (
	rangeUnit    = paramRange{0, 1}
	rangeTrim    = paramRange{-1, 1}
	rangeSize    = paramRange{0.01, 2}
	rangeDensity = paramRange{1, 100}
	rangeBPM     = paramRange{20, 300}
	rangeCV      = paramRange{-maxCV, maxCV}
)

// ----- Params ----- //

type cvParams struct {
	pitch    float64
	size     float64
	density  float64
	shape    float64
	position float64
	pitchMod float64
}

type params struct {
	controls granular.Controls
	cv       cvParams
	record   bool
}

func newParams() *params {
	return &params{
		controls: granular.DefaultControls(),
	}
}

// control resolves a knob name to its field and range.
func (p *params) control(key string) (*float64, paramRange, error) {
	c := &p.controls
	switch key {
	case "compression":
		return &c.Compression, rangeUnit, nil
	case "size":
		return &c.Size, rangeSize, nil
	case "density":
		return &c.Density, rangeDensity, nil
	case "shape":
		return &c.Shape, rangeUnit, nil
	case "position":
		return &c.Position, rangeUnit, nil
	case "pitch":
		return &c.Pitch, rangeUnit, nil
	case "random_size":
		return &c.RandomSize, rangeUnit, nil
	case "random_density":
		return &c.RandomDensity, rangeUnit, nil
	case "random_shape":
		return &c.RandomShape, rangeUnit, nil
	case "random_position":
		return &c.RandomPosition, rangeUnit, nil
	case "random_pitch":
		return &c.RandomPitch, rangeUnit, nil
	case "mod_size":
		return &c.ModSize, rangeTrim, nil
	case "mod_density":
		return &c.ModDensity, rangeTrim, nil
	case "mod_shape":
		return &c.ModShape, rangeTrim, nil
	case "mod_position":
		return &c.ModPosition, rangeTrim, nil
	case "mod_pitch":
		return &c.ModPitch, rangeTrim, nil
	case "start":
		return &c.LoopStart, rangeUnit, nil
	case "end":
		return &c.LoopEnd, rangeUnit, nil
	case "bpm":
		return &c.BPM, rangeBPM, nil
	}
	return nil, paramRange{}, fmt.Errorf("%w: %q", ErrUnknownParam, key)
}

func (p *params) set(key string, value string) error {
	if key == "sync" {
		sync, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("sync: %w", err)
		}
		p.controls.Sync = sync
		return nil
	}
	target, r, err := p.control(key)
	if err != nil {
		return err
	}
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*target = r.clamp(v)
	return nil
}

// setNormalized moves a knob to a position in [0,1] of its range.
func (p *params) setNormalized(key string, norm float64) error {
	target, r, err := p.control(key)
	if err != nil {
		return err
	}
	*target = r.fromNormalized(norm)
	return nil
}

func (p *params) cvTarget(key string) (*float64, error) {
	switch key {
	case "pitch":
		return &p.cv.pitch, nil
	case "size":
		return &p.cv.size, nil
	case "density":
		return &p.cv.density, nil
	case "shape":
		return &p.cv.shape, nil
	case "position":
		return &p.cv.position, nil
	case "pitch_mod":
		return &p.cv.pitchMod, nil
	}
	return nil, fmt.Errorf("%w: cv %q", ErrUnknownParam, key)
}

func (p *params) setCV(key string, value string) error {
	target, err := p.cvTarget(key)
	if err != nil {
		return err
	}
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("cv %s: %w", key, err)
	}
	*target = rangeCV.clamp(v)
	return nil
}

func (p *params) applyInputs(in *granular.Inputs) {
	in.PitchCV = p.cv.pitch
	in.SizeCV = p.cv.size
	in.DensityCV = p.cv.density
	in.ShapeCV = p.cv.shape
	in.PositionCV = p.cv.position
	in.PitchModCV = p.cv.pitchMod
	in.RecordGate = p.record
}

// ----- JSON ----- //

type amountsJSON struct {
	Size     float64 `json:"size"`
	Density  float64 `json:"density"`
	Shape    float64 `json:"shape"`
	Position float64 `json:"position"`
	Pitch    float64 `json:"pitch"`
}

type loopJSON struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

type tempoJSON struct {
	Sync bool    `json:"sync"`
	BPM  float64 `json:"bpm"`
}

type cvJSON struct {
	Pitch    float64 `json:"pitch"`
	Size     float64 `json:"size"`
	Density  float64 `json:"density"`
	Shape    float64 `json:"shape"`
	Position float64 `json:"position"`
	PitchMod float64 `json:"pitchMod"`
}

type paramsJSON struct {
	Compression float64     `json:"compression"`
	Size        float64     `json:"size"`
	Density     float64     `json:"density"`
	Shape       float64     `json:"shape"`
	Position    float64     `json:"position"`
	Pitch       float64     `json:"pitch"`
	Random      amountsJSON `json:"random"`
	Mod         amountsJSON `json:"mod"`
	Loop        loopJSON    `json:"loop"`
	Tempo       tempoJSON   `json:"tempo"`
	CV          cvJSON      `json:"cv"`
	Record      bool        `json:"record"`
}

func (p *params) toJSONValue() paramsJSON {
	c := &p.controls
	return paramsJSON{
		Compression: c.Compression,
		Size:        c.Size,
		Density:     c.Density,
		Shape:       c.Shape,
		Position:    c.Position,
		Pitch:       c.Pitch,
		Random: amountsJSON{
			Size:     c.RandomSize,
			Density:  c.RandomDensity,
			Shape:    c.RandomShape,
			Position: c.RandomPosition,
			Pitch:    c.RandomPitch,
		},
		Mod: amountsJSON{
			Size:     c.ModSize,
			Density:  c.ModDensity,
			Shape:    c.ModShape,
			Position: c.ModPosition,
			Pitch:    c.ModPitch,
		},
		Loop:  loopJSON{Start: c.LoopStart, End: c.LoopEnd},
		Tempo: tempoJSON{Sync: c.Sync, BPM: c.BPM},
		CV: cvJSON{
			Pitch:    p.cv.pitch,
			Size:     p.cv.size,
			Density:  p.cv.density,
			Shape:    p.cv.shape,
			Position: p.cv.position,
			PitchMod: p.cv.pitchMod,
		},
		Record: p.record,
	}
}

// applyJSON overwrites the fields present in data. Missing fields keep
// their current values.
func (p *params) applyJSON(data json.RawMessage) {
	j := p.toJSONValue()
	if err := json.Unmarshal(data, &j); err != nil {
		log.Printf("failed to apply JSON to params: %v", err)
		return
	}
	c := &p.controls
	c.Compression = rangeUnit.clamp(j.Compression)
	c.Size = rangeSize.clamp(j.Size)
	c.Density = rangeDensity.clamp(j.Density)
	c.Shape = rangeUnit.clamp(j.Shape)
	c.Position = rangeUnit.clamp(j.Position)
	c.Pitch = rangeUnit.clamp(j.Pitch)
	c.RandomSize = rangeUnit.clamp(j.Random.Size)
	c.RandomDensity = rangeUnit.clamp(j.Random.Density)
	c.RandomShape = rangeUnit.clamp(j.Random.Shape)
	c.RandomPosition = rangeUnit.clamp(j.Random.Position)
	c.RandomPitch = rangeUnit.clamp(j.Random.Pitch)
	c.ModSize = rangeTrim.clamp(j.Mod.Size)
	c.ModDensity = rangeTrim.clamp(j.Mod.Density)
	c.ModShape = rangeTrim.clamp(j.Mod.Shape)
	c.ModPosition = rangeTrim.clamp(j.Mod.Position)
	c.ModPitch = rangeTrim.clamp(j.Mod.Pitch)
	c.LoopStart = rangeUnit.clamp(j.Loop.Start)
	c.LoopEnd = rangeUnit.clamp(j.Loop.End)
	c.Sync = j.Tempo.Sync
	c.BPM = rangeBPM.clamp(j.Tempo.BPM)
	p.cv = cvParams{
		pitch:    rangeCV.clamp(j.CV.Pitch),
		size:     rangeCV.clamp(j.CV.Size),
		density:  rangeCV.clamp(j.CV.Density),
		shape:    rangeCV.clamp(j.CV.Shape),
		position: rangeCV.clamp(j.CV.Position),
		pitchMod: rangeCV.clamp(j.CV.PitchMod),
	}
	p.record = j.Record
}

func (p *params) toJSON() json.RawMessage {
	return toRawMessage(p.toJSONValue())
}
