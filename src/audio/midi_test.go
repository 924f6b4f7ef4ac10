package audio

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMidiNotesDriveRecordGate(t *testing.T) {
	audio := newTestAudio(t)
	audio.AddMidiEvent([]byte{0x90, 60, 100})
	assert.True(t, audio.state.params.record)
	audio.AddMidiEvent([]byte{0x90, 60, 0})
	assert.False(t, audio.state.params.record)
	audio.AddMidiEvent([]byte{0x91, 64, 1})
	assert.True(t, audio.state.params.record)
	audio.AddMidiEvent([]byte{0x80, 64, 64})
	assert.False(t, audio.state.params.record)
}

func TestMidiControlChange(t *testing.T) {
	audio := newTestAudio(t)
	audio.AddMidiEvent([]byte{0xB0, 1, 127})
	assert.Equal(t, 1.0, audio.state.params.controls.Position)
	audio.AddMidiEvent([]byte{0xB0, 2, 0})
	assert.Equal(t, 0.01, audio.state.params.controls.Size)
	audio.AddMidiEvent([]byte{0xB0, 3, 127})
	assert.Equal(t, 100.0, audio.state.params.controls.Density)
	assert.True(t, audio.Changes.Has("data"))

	before := audio.state.params.controls
	audio.AddMidiEvent([]byte{0xB0, 74, 10})
	audio.AddMidiEvent([]byte{0xB0, 1})
	audio.AddMidiEvent(nil)
	assert.Equal(t, before, audio.state.params.controls)
}

func TestMidiClockSetsTempo(t *testing.T) {
	audio := newTestAudio(t)
	t0 := time.Unix(0, 0)
	for i := 0; i <= clockPPQN; i++ {
		audio.addMidiEventAt([]byte{midiTimingClock}, t0.Add(time.Duration(i)*500*time.Millisecond/clockPPQN))
	}
	assert.Equal(t, 120.0, audio.state.params.controls.BPM)

	audio.AddMidiEvent([]byte{midiStop})
	assert.Equal(t, 0, audio.state.clock.count)
}

func TestMidiClockNeedsAFullBeat(t *testing.T) {
	var c midiClock
	t0 := time.Unix(0, 0)
	for i := 0; i < clockPPQN; i++ {
		_, ok := c.tick(t0.Add(time.Duration(i) * time.Millisecond))
		assert.False(t, ok)
	}
	bpm, ok := c.tick(t0.Add(time.Second))
	assert.True(t, ok)
	assert.Equal(t, 60.0, bpm)
}
