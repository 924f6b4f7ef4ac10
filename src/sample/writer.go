package sample

import (
	"fmt"
	"io"
	"math"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	writeBitDepth = 16
	pcmFormat     = 1
)

// WriteWAV encodes samples as a 16-bit mono PCM WAV. Values outside
// [-1,1] are clipped.
func WriteWAV(w io.WriteSeeker, sampleRate int, samples []float32) error {
	if sampleRate <= 0 {
		return fmt.Errorf("%w: sample rate %d", ErrInvalidFile, sampleRate)
	}
	enc := wav.NewEncoder(w, sampleRate, writeBitDepth, 1, pcmFormat)
	data := make([]int, len(samples))
	for i, s := range samples {
		v := math.Max(-1, math.Min(1, float64(s)))
		data[i] = int(math.Round(v * 32767))
	}
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: writeBitDepth,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("writing samples: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("finishing wav: %w", err)
	}
	return nil
}

// WriteFile creates path and writes samples to it with WriteWAV.
func WriteFile(path string, sampleRate int, samples []float32) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := WriteWAV(f, sampleRate, samples); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
