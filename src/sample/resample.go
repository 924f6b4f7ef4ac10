package sample

import (
	"fmt"
	"io"

	pbx "github.com/ik5/audpbx/audio"
)

const resampleChunk = 4096

// clipSource streams a clip to the resampler.
type clipSource struct {
	clip *Clip
	pos  int
}

func (s *clipSource) SampleRate() int { return s.clip.SampleRate }
func (s *clipSource) Channels() int   { return 1 }
func (s *clipSource) BufSize() int    { return resampleChunk }
func (s *clipSource) Close() error    { return nil }

func (s *clipSource) ReadSamples(dst []float32) (int, error) {
	if s.pos >= len(s.clip.Samples) {
		return 0, io.EOF
	}
	n := copy(dst, s.clip.Samples[s.pos:])
	s.pos += n
	return n, nil
}

// Resample converts clip to sampleRate with cubic interpolation. A clip
// already at sampleRate is copied unchanged.
func Resample(clip *Clip, sampleRate int) (*Clip, error) {
	if sampleRate <= 0 || clip.SampleRate <= 0 {
		return nil, fmt.Errorf("%w: sample rate %d -> %d", ErrInvalidFile, clip.SampleRate, sampleRate)
	}
	if clip.SampleRate == sampleRate {
		return &Clip{
			Samples:    append([]float32(nil), clip.Samples...),
			SampleRate: sampleRate,
		}, nil
	}
	r := pbx.NewResampler(&clipSource{clip: clip}, sampleRate)
	defer r.Close()

	estimate := int(int64(len(clip.Samples))*int64(sampleRate)/int64(clip.SampleRate)) + 4
	out := make([]float32, 0, estimate)
	buf := make([]float32, resampleChunk)
	for {
		n, err := r.ReadSamples(buf)
		out = append(out, buf[:n]...)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("resampling: %w", err)
		}
	}
	if len(out) == 0 {
		return nil, ErrEmpty
	}
	return &Clip{Samples: out, SampleRate: sampleRate}, nil
}
