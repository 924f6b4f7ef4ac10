// Package sample reads audio files into mono float32 clips and writes
// clips back out as WAV.
package sample

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Format names a container/codec pair.
type Format string

const (
	FormatWAV    Format = "wav"
	FormatAIFF   Format = "aiff"
	FormatMP3    Format = "mp3"
	FormatVorbis Format = "ogg"
)

var extensions = map[string]Format{
	".wav":  FormatWAV,
	".wave": FormatWAV,
	".aif":  FormatAIFF,
	".aiff": FormatAIFF,
	".mp3":  FormatMP3,
	".ogg":  FormatVorbis,
	".oga":  FormatVorbis,
}

// FormatFromPath ...
func FormatFromPath(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	f, ok := extensions[ext]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	return f, nil
}

// Clip is decoded mono audio in [-1,1].
type Clip struct {
	Samples    []float32
	SampleRate int
}

// Duration ...
func (c *Clip) Duration() time.Duration {
	if c.SampleRate <= 0 {
		return 0
	}
	return time.Duration(len(c.Samples)) * time.Second / time.Duration(c.SampleRate)
}

// Decode reads a whole stream of the given format and mixes it to mono.
func Decode(r io.ReadSeeker, format Format) (*Clip, error) {
	var (
		clip *Clip
		err  error
	)
	switch format {
	case FormatWAV:
		clip, err = decodeWAV(r)
	case FormatAIFF:
		clip, err = decodeAIFF(r)
	case FormatMP3:
		clip, err = decodeMP3(r)
	case FormatVorbis:
		clip, err = decodeVorbis(r)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", format, err)
	}
	if len(clip.Samples) == 0 {
		return nil, ErrEmpty
	}
	if clip.SampleRate <= 0 {
		return nil, fmt.Errorf("%w: sample rate %d", ErrInvalidFile, clip.SampleRate)
	}
	return clip, nil
}

// DecodeFile picks the format from the file extension.
func DecodeFile(path string) (*Clip, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	return Decode(f, format)
}
