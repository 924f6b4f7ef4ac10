package sample

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatFromPath(t *testing.T) {
	t.Parallel()
	cases := []struct {
		path string
		want Format
	}{
		{"a.wav", FormatWAV},
		{"dir/B.WAV", FormatWAV},
		{"c.aif", FormatAIFF},
		{"c.aiff", FormatAIFF},
		{"song.mp3", FormatMP3},
		{"loop.ogg", FormatVorbis},
	}
	for _, c := range cases {
		f, err := FormatFromPath(c.path)
		require.NoError(t, err, c.path)
		assert.Equal(t, c.want, f, c.path)
	}

	_, err := FormatFromPath("notes.txt")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
	_, err = FormatFromPath("noextension")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestMixIntsAveragesChannels(t *testing.T) {
	t.Parallel()
	data := []int{16384, -16384, 32767, 32767, 0, 8192}
	out := mixInts(data, 2, 32768, 0)
	require.Len(t, out, 3)
	assert.InDelta(t, 0, out[0], 1e-6)
	assert.InDelta(t, 32767.0/32768.0, out[1], 1e-6)
	assert.InDelta(t, 0.125, out[2], 1e-6)
}

func TestMixIntsUnsigned8Bit(t *testing.T) {
	t.Parallel()
	out := mixInts([]int{128, 0, 255}, 1, 128, 128)
	assert.Equal(t, []float32{0, -1, 127.0 / 128.0}, out)
}

func TestMixIntsDropsPartialFrame(t *testing.T) {
	t.Parallel()
	out := mixInts([]int{1, 2, 3, 4, 5}, 2, 1, 0)
	assert.Len(t, out, 2)
}

func TestMixFloats(t *testing.T) {
	t.Parallel()
	mono := []float32{0.1, 0.2}
	out := mixFloats(mono, 1)
	assert.Equal(t, mono, out)
	out[0] = 1
	assert.Equal(t, float32(0.1), mono[0], "mono path must copy")

	assert.InDeltaSlice(t, []float32{0.5, 0}, mixFloats([]float32{0.4, 0.6, 1, -1}, 2), 1e-6)
	assert.InDeltaSlice(t, []float32{0.5}, mixFloats([]float32{0.3, 0.6, 0.6}, 3), 1e-6)
}

func TestIntScale(t *testing.T) {
	t.Parallel()
	for depth, want := range map[int]float32{8: 128, 16: 32768, 24: 8388608, 32: 2147483648} {
		got, err := intScale(depth)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := intScale(12)
	assert.ErrorIs(t, err, ErrUnsupportedBitDepth)
}

func TestWAVRoundTrip(t *testing.T) {
	t.Parallel()
	const rate = 22050
	in := make([]float32, rate/10)
	for i := range in {
		in[i] = float32(0.8 * math.Sin(2*math.Pi*440*float64(i)/rate))
	}
	path := filepath.Join(t.TempDir(), "tone.wav")
	require.NoError(t, WriteFile(path, rate, in))

	clip, err := DecodeFile(path)
	require.NoError(t, err)
	assert.Equal(t, rate, clip.SampleRate)
	require.Len(t, clip.Samples, len(in))
	for i := range in {
		assert.InDelta(t, in[i], clip.Samples[i], 1e-3)
	}
	assert.Equal(t, 100*time.Millisecond, clip.Duration())
}

func TestWriteWAVClips(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "hot.wav")
	require.NoError(t, WriteFile(path, 8000, []float32{2, -2, 0.5}))

	clip, err := DecodeFile(path)
	require.NoError(t, err)
	require.Len(t, clip.Samples, 3)
	assert.InDelta(t, 1, clip.Samples[0], 1e-3)
	assert.InDelta(t, -1, clip.Samples[1], 1e-3)
	assert.InDelta(t, 0.5, clip.Samples[2], 1e-3)
}

func TestWriteWAVRejectsBadRate(t *testing.T) {
	t.Parallel()
	f, err := os.Create(filepath.Join(t.TempDir(), "bad.wav"))
	require.NoError(t, err)
	defer f.Close()
	assert.ErrorIs(t, WriteWAV(f, 0, []float32{0}), ErrInvalidFile)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	t.Parallel()
	_, err := Decode(bytes.NewReader([]byte("definitely not a riff header")), FormatWAV)
	assert.ErrorIs(t, err, ErrInvalidFile)

	_, err = Decode(bytes.NewReader(nil), Format("flac"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestDecodeFileMissing(t *testing.T) {
	t.Parallel()
	_, err := DecodeFile(filepath.Join(t.TempDir(), "missing.wav"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func ramp(n int) []float32 {
	samples := make([]float32, n)
	for i := range samples {
		samples[i] = float32(i) / float32(n)
	}
	return samples
}

func TestResampleInterpolates(t *testing.T) {
	t.Parallel()
	const n = 1000
	out, err := Resample(&Clip{Samples: ramp(n), SampleRate: 24000}, 48000)
	require.NoError(t, err)
	assert.Equal(t, 48000, out.SampleRate)
	assert.InDelta(t, 2*n, len(out.Samples), 8)
	for i := 1; i < len(out.Samples); i++ {
		// every output step is half a source step, so no sample repeats
		assert.InDelta(t, 0.5/n, out.Samples[i]-out.Samples[i-1], 1e-5, "step %d", i)
	}
}

func TestResampleDownsamples(t *testing.T) {
	t.Parallel()
	const n = 4000
	out, err := Resample(&Clip{Samples: ramp(n), SampleRate: 96000}, 48000)
	require.NoError(t, err)
	assert.Equal(t, 48000, out.SampleRate)
	assert.InDelta(t, n/2, len(out.Samples), 8)
}

func TestResampleSameRateCopies(t *testing.T) {
	t.Parallel()
	in := &Clip{Samples: ramp(16), SampleRate: 48000}
	out, err := Resample(in, 48000)
	require.NoError(t, err)
	assert.Equal(t, in.Samples, out.Samples)
	out.Samples[0] = 1
	assert.Equal(t, float32(0), in.Samples[0])
}

func TestResampleRejectsBadRate(t *testing.T) {
	t.Parallel()
	_, err := Resample(&Clip{Samples: ramp(16), SampleRate: 48000}, 0)
	assert.ErrorIs(t, err, ErrInvalidFile)
}
