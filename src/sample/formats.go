package sample

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/go-audio/aiff"
	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	gomp3 "github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
)

// ----- WAV ----- //

func decodeWAV(r io.ReadSeeker) (*Clip, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, ErrInvalidFile
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, err
	}
	bitDepth := int(dec.BitDepth)
	scale, err := intScale(bitDepth)
	if err != nil {
		return nil, fmt.Errorf("%w: %d", err, bitDepth)
	}
	offset := 0
	if bitDepth == 8 {
		// 8-bit WAV is unsigned
		offset = 128
	}
	return &Clip{
		Samples:    mixInts(buf.Data, buf.Format.NumChannels, scale, offset),
		SampleRate: buf.Format.SampleRate,
	}, nil
}

// ----- AIFF ----- //

func decodeAIFF(r io.ReadSeeker) (*Clip, error) {
	dec := aiff.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, ErrInvalidFile
	}
	dec.ReadInfo()
	format := dec.Format()
	if format == nil {
		return nil, ErrInvalidFile
	}
	bitDepth := int(dec.BitDepth)
	scale, err := intScale(bitDepth)
	if err != nil {
		return nil, fmt.Errorf("%w: %d", err, bitDepth)
	}

	var data []int
	chunk := &goaudio.IntBuffer{
		Format: format,
		Data:   make([]int, 4096*max(1, format.NumChannels)),
	}
	for {
		n, err := dec.PCMBuffer(chunk)
		data = append(data, chunk.Data[:n]...)
		if err != nil && err != io.EOF {
			return nil, err
		}
		if n == 0 || err == io.EOF {
			break
		}
	}
	return &Clip{
		Samples:    mixInts(data, format.NumChannels, scale, 0),
		SampleRate: format.SampleRate,
	}, nil
}

// ----- MP3 ----- //

// go-mp3 always produces 16-bit little-endian stereo.
const mp3Channels = 2

func decodeMP3(r io.ReadSeeker) (*Clip, error) {
	dec, err := gomp3.NewDecoder(r)
	if err != nil {
		return nil, err
	}
	raw, err := io.ReadAll(dec)
	if err != nil {
		return nil, err
	}
	data := make([]int, len(raw)/2)
	for i := range data {
		data[i] = int(int16(binary.LittleEndian.Uint16(raw[2*i:])))
	}
	return &Clip{
		Samples:    mixInts(data, mp3Channels, 32768, 0),
		SampleRate: dec.SampleRate(),
	}, nil
}

// ----- Ogg Vorbis ----- //

func decodeVorbis(r io.ReadSeeker) (*Clip, error) {
	data, format, err := oggvorbis.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return &Clip{
		Samples:    mixFloats(data, format.Channels),
		SampleRate: format.SampleRate,
	}, nil
}
