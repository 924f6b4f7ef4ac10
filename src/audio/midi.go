package audio

import (
	"context"
	"log"
	"strings"
	"time"

	"gitlab.com/gomidi/rtmididrv"
)

const (
	midiNoteOff       = 0x8
	midiNoteOn        = 0x9
	midiControlChange = 0xB
	midiTimingClock   = 0xF8
	midiStart         = 0xFA
	midiStop          = 0xFC
	clockPPQN         = 24
)

// ccParams maps controller numbers to knobs.
var ccParams = map[byte]string{
	1: "position",
	2: "size",
	3: "density",
	4: "shape",
	5: "pitch",
}

// ListenToMidiIn forwards raw messages from the first input port whose
// name contains port (any port when empty). The channel is closed when
// ctx is done or no port could be opened.
func ListenToMidiIn(ctx context.Context, port string) <-chan []byte {
	ch := make(chan []byte, 65536)
	go func() {
		defer close(ch)
		drv, err := rtmididrv.New()
		if err != nil {
			log.Printf("failed to initialize MIDI driver: %v\n", err)
			return
		}
		defer func() {
			err := drv.Close()
			if err != nil {
				log.Printf("failed to close MIDI driver: %v\n", err)
			}
		}()
		ins, err := drv.Ins()
		if err != nil {
			log.Printf("failed to get MIDI IN: %v\n", err)
			return
		}
		log.Printf("MIDI IN: %v\n", ins)

		index := -1
		for i, in := range ins {
			if strings.Contains(in.String(), port) {
				index = i
				break
			}
		}
		if index < 0 {
			log.Printf("WARN: MIDI IN %q not found\n", port)
			return
		}
		in := ins[index]
		if err := in.Open(); err != nil {
			log.Printf("failed to open MIDI IN: %v\n", err)
			return
		}
		log.Println("opened " + in.String())
		defer func() {
			err := in.Close()
			if err != nil {
				log.Printf("failed to close MIDI IN: %v\n", err)
			}
		}()
		log.Println("start listening MIDI IN...")
		if err := in.SetListener(func(data []byte, deltaMicroseconds int64) {
			msg := make([]byte, len(data))
			copy(msg, data)
			select {
			case ch <- msg:
			default:
				log.Println("WARN: MIDI queue full")
			}
		}); err != nil {
			log.Println("failed to set listener: " + err.Error())
			return
		}
		defer func() {
			log.Println("stop listening MIDI IN...")
			err := in.StopListening()
			if err != nil {
				log.Printf("failed to stop listening: %v\n", err)
			}
		}()
		<-ctx.Done()
	}()
	return ch
}

// AddMidiEvent applies one raw MIDI message. Notes drive the record gate,
// controllers 1-5 move knobs and timing clock sets the tempo.
func (a *Audio) AddMidiEvent(data []byte) {
	a.addMidiEventAt(data, time.Now())
}

func (a *Audio) addMidiEventAt(data []byte, t time.Time) {
	if len(data) == 0 {
		return
	}
	status := data[0]
	switch status {
	case midiTimingClock:
		a.state.Lock()
		bpm, ok := a.state.clock.tick(t)
		if ok {
			a.state.params.controls.BPM = rangeBPM.clamp(bpm)
		}
		a.state.Unlock()
		if ok {
			a.Changes.Add("data")
		}
		return
	case midiStart, midiStop:
		a.state.Lock()
		a.state.clock.reset()
		a.state.Unlock()
		return
	}
	if len(data) < 3 {
		return
	}
	switch status >> 4 {
	case midiNoteOff:
		a.setRecord(false)
	case midiNoteOn:
		a.setRecord(data[2] > 0)
	case midiControlChange:
		key, ok := ccParams[data[1]]
		if !ok {
			return
		}
		a.state.Lock()
		err := a.state.params.setNormalized(key, float64(data[2])/127)
		a.state.Unlock()
		if err != nil {
			log.Printf("CC %d: %v", data[1], err)
			return
		}
		a.Changes.Add("data")
	}
}

// ----- MIDI Clock ----- //

// midiClock turns 24 ppqn timing messages into a tempo, measured over
// one beat.
type midiClock struct {
	beatStart time.Time
	count     int
}

func (c *midiClock) tick(t time.Time) (float64, bool) {
	if c.count == 0 {
		c.beatStart = t
		c.count = 1
		return 0, false
	}
	c.count++
	if c.count <= clockPPQN {
		return 0, false
	}
	beat := t.Sub(c.beatStart).Seconds()
	c.beatStart = t
	c.count = 1
	if beat <= 0 {
		return 0, false
	}
	return 60 / beat, true
}

func (c *midiClock) reset() {
	*c = midiClock{}
}
