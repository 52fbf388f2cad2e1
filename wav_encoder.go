// wav_encoder.go - Canonical 44-byte RIFF/WAVE PCM header and sample packing

/*
 ██▓ ███▄    █ ▄▄▄█████▓ █    ██  ██▓▄▄▄█████▓ ██▓ ▒█████   ███▄    █    ▓█████  ███▄    █   ▄████  ██▓ ███▄    █ ▓█████
▓██▒ ██ ▀█   █ ▓  ██▒ ▓▒ ██  ▓██▒▓██▒▓  ██▒ ▓▒▓██▒▒██▒  ██▒ ██ ▀█   █    ▓█   ▀  ██ ▀█   █  ██▒ ▀█▒▓██▒ ██ ▀█   █ ▓█   ▀
▒██▒▓██  ▀█ ██▒▒ ▓██░ ▒░▓██  ▒██░▒██▒▒ ▓██░ ▒░▒██▒▒██░  ██▒▓██  ▀█ ██▒   ▒███   ▓██  ▀█ ██▒▒██░▄▄▄░▒██▒▓██  ▀█ ██▒▒███
░██░▓██▒  ▐▌██▒░ ▓██▓ ░ ▓▓█  ░██░░██░░ ▓██▓ ░ ░██░▒██   ██░▓██▒  ▐▌██▒   ▒▓█  ▄ ▓██▒  ▐▌██▒░▓█  ██▓░██░▓██▒  ▐▌██▒▒▓█  ▄
░██░▒██░   ▓██░  ▒██▒ ░ ▒▒█████▓ ░██░  ▒██▒ ░ ░██░░ ████▓▒░▒██░   ▓██░   ░▒████▒▒██░   ▓██░░▒▓███▀▒░██░▒██░   ▓██░░▒████▒
░▓  ░ ▒░   ▒ ▒   ▒ ░░   ░▒▓▒ ▒ ▒ ░▓    ▒ ░░   ░▓  ░ ▒░▒░▒░ ░ ▒░   ▒ ▒    ░░ ▒░ ░░ ▒░   ▒ ▒  ░▒   ▒ ░▓  ░ ▒░   ▒ ▒ ░░ ▒░ ░
 ▒ ░░ ░░   ░ ▒░    ░    ░░▒░ ░ ░  ▒ ░    ░     ▒ ░  ░ ▒ ▒░ ░ ░░   ░ ▒░    ░ ░  ░░ ░░   ░ ▒░  ░   ░  ▒ ░░ ░░   ░ ▒░ ░ ░  ░
 ▒ ░   ░   ░ ░   ░       ░░░ ░ ░  ▒ ░  ░       ▒ ░░ ░ ░ ▒     ░   ░ ░       ░      ░   ░ ░ ░ ░   ░  ▒ ░   ░   ░ ░    ░
 ░           ░             ░      ░            ░      ░ ░           ░       ░  ░         ░       ░  ░           ░    ░  ░

(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionEngine
License: GPLv3 or later
*/

package main

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

var (
	ErrInvalidFormat  = errors.New("invalid wav format")
	ErrHeaderTooShort = errors.New("wav header too short")
)

// WavError provides context for header encode/decode failures
type WavError struct {
	Operation string
	Details   string
	Err       error
}

func (e *WavError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("wav %s failed: %s: %v", e.Operation, e.Details, e.Err)
	}
	return fmt.Sprintf("wav %s failed: %s", e.Operation, e.Details)
}

func (e *WavError) Unwrap() error { return e.Err }

// WavFormat is fixed for the lifetime of a recording.
type WavFormat struct {
	Channels   uint16 // 1 for mono
	SampleBits uint16 // Multiple of 8, at most 32
	SampleRate uint32 // Hz
}

// DefaultWavFormat matches the audio device: mono, 16-bit, SAMPLE_RATE.
func DefaultWavFormat(sampleRate int) WavFormat {
	return WavFormat{
		Channels:   SAMPLE_CHANNELS,
		SampleBits: SAMPLE_BITS,
		SampleRate: uint32(sampleRate),
	}
}

func (f WavFormat) Validate() error {
	switch {
	case f.Channels == 0:
		return &WavError{Operation: "format check", Details: "channels must be at least 1", Err: ErrInvalidFormat}
	case f.SampleBits == 0 || f.SampleBits%8 != 0 || f.SampleBits > 32:
		return &WavError{Operation: "format check", Details: fmt.Sprintf("unsupported sample bits %d", f.SampleBits), Err: ErrInvalidFormat}
	case f.SampleRate == 0:
		return &WavError{Operation: "format check", Details: "sample rate must be positive", Err: ErrInvalidFormat}
	case f.blockBytes() > math.MaxUint16:
		return &WavError{Operation: "format check", Details: fmt.Sprintf("%d channels do not fit the block align field", f.Channels), Err: ErrInvalidFormat}
	case uint64(f.SampleRate)*f.blockBytes() > math.MaxUint32:
		return &WavError{Operation: "format check", Details: fmt.Sprintf("byte rate of %d Hz does not fit 32 bits", f.SampleRate), Err: ErrInvalidFormat}
	}
	return nil
}

// blockBytes is the frame width, widened so no field product can wrap.
func (f WavFormat) blockBytes() uint64 {
	return uint64(f.Channels) * uint64(f.SampleBits) / 8
}

// BytesPerSample is the width of one sample of one channel.
func (f WavFormat) BytesPerSample() int { return int(f.SampleBits) / 8 }

// BlockAlign, ByteRate and DataSize are exact for any format that passes
// Validate and any count up to MaxSamples.
func (f WavFormat) BlockAlign() uint16 { return uint16(f.blockBytes()) }

func (f WavFormat) ByteRate() uint32 {
	return uint32(uint64(f.SampleRate) * f.blockBytes())
}

// DataSize is the byte length of sampleCount samples per channel.
func (f WavFormat) DataSize(sampleCount uint32) uint32 {
	return uint32(uint64(sampleCount) * f.blockBytes())
}

// MaxSamples is the largest sample count whose data fits the 32-bit RIFF size.
func (f WavFormat) MaxSamples() uint32 {
	block := f.blockBytes()
	if block == 0 {
		return 0
	}
	return uint32(min(WAV_MAX_DATA_SIZE/block, math.MaxUint32))
}

// BuildWavHeader lays out the header for sampleCount samples per channel.
// All multi-byte fields are little-endian.
func BuildWavHeader(format WavFormat, sampleCount uint32) [WAV_HEADER_SIZE]byte {
	var h [WAV_HEADER_SIZE]byte
	dataSize := format.DataSize(sampleCount)

	copy(h[0:4], "RIFF")
	binary.LittleEndian.PutUint32(h[WAV_RIFF_SIZE_OFF : WAV_RIFF_SIZE_OFF+4], WAV_RIFF_SIZE_BASE+dataSize)
	copy(h[8:12], "WAVE")

	copy(h[12:16], "fmt ")
	binary.LittleEndian.PutUint32(h[16:20], WAV_FMT_CHUNK_SIZE)
	binary.LittleEndian.PutUint16(h[20:22], WAV_FORMAT_PCM)
	binary.LittleEndian.PutUint16(h[22:24], format.Channels)
	binary.LittleEndian.PutUint32(h[24:28], format.SampleRate)
	binary.LittleEndian.PutUint32(h[28:32], format.ByteRate())
	binary.LittleEndian.PutUint16(h[32:34], format.BlockAlign())
	binary.LittleEndian.PutUint16(h[34:36], format.SampleBits)

	copy(h[36:40], "data")
	binary.LittleEndian.PutUint32(h[WAV_DATA_SIZE_OFF : WAV_DATA_SIZE_OFF+4], dataSize)
	return h
}

// DecodeWavHeader is the inverse of BuildWavHeader. Only the canonical
// single fmt + data chunk PCM layout is accepted.
func DecodeWavHeader(b []byte) (WavFormat, uint32, error) {
	if len(b) < WAV_HEADER_SIZE {
		return WavFormat{}, 0, &WavError{
			Operation: "header decode",
			Details:   fmt.Sprintf("got %d bytes", len(b)),
			Err:       ErrHeaderTooShort,
		}
	}
	for _, tag := range []struct {
		off int
		id  string
	}{{0, "RIFF"}, {8, "WAVE"}, {12, "fmt "}, {36, "data"}} {
		if got := string(b[tag.off : tag.off+4]); got != tag.id {
			return WavFormat{}, 0, &WavError{
				Operation: "header decode",
				Details:   fmt.Sprintf("expected %q at offset %d, got %q", tag.id, tag.off, got),
			}
		}
	}
	if size := binary.LittleEndian.Uint32(b[16:20]); size != WAV_FMT_CHUNK_SIZE {
		return WavFormat{}, 0, &WavError{Operation: "header decode", Details: fmt.Sprintf("fmt chunk size %d", size)}
	}
	if code := binary.LittleEndian.Uint16(b[20:22]); code != WAV_FORMAT_PCM {
		return WavFormat{}, 0, &WavError{Operation: "header decode", Details: fmt.Sprintf("audio format %d is not PCM", code)}
	}

	format := WavFormat{
		Channels:   binary.LittleEndian.Uint16(b[22:24]),
		SampleRate: binary.LittleEndian.Uint32(b[24:28]),
		SampleBits: binary.LittleEndian.Uint16(b[34:36]),
	}
	if err := format.Validate(); err != nil {
		return WavFormat{}, 0, err
	}
	if got := binary.LittleEndian.Uint16(b[32:34]); got != format.BlockAlign() {
		return WavFormat{}, 0, &WavError{Operation: "header decode", Details: fmt.Sprintf("block align %d, expected %d", got, format.BlockAlign())}
	}
	if got := binary.LittleEndian.Uint32(b[28:32]); got != format.ByteRate() {
		return WavFormat{}, 0, &WavError{Operation: "header decode", Details: fmt.Sprintf("byte rate %d, expected %d", got, format.ByteRate())}
	}

	dataSize := binary.LittleEndian.Uint32(b[WAV_DATA_SIZE_OFF : WAV_DATA_SIZE_OFF+4])
	if dataSize > WAV_MAX_DATA_SIZE {
		return WavFormat{}, 0, &WavError{Operation: "header decode", Details: fmt.Sprintf("data size %d overflows the riff size", dataSize)}
	}
	if riff := binary.LittleEndian.Uint32(b[WAV_RIFF_SIZE_OFF : WAV_RIFF_SIZE_OFF+4]); riff != WAV_RIFF_SIZE_BASE+dataSize {
		return WavFormat{}, 0, &WavError{Operation: "header decode", Details: fmt.Sprintf("riff size %d does not match data size %d", riff, dataSize)}
	}
	block := uint32(format.BlockAlign())
	if dataSize%block != 0 {
		return WavFormat{}, 0, &WavError{Operation: "header decode", Details: fmt.Sprintf("data size %d is not a multiple of block align %d", dataSize, block)}
	}
	return format, dataSize / block, nil
}

// PutSample writes the low byteWidth bytes of sample into dst, least
// significant first. The caller guarantees the value fits; nothing is checked.
func PutSample(dst []byte, sample int32, byteWidth int) {
	for i := 0; i < byteWidth; i++ {
		dst[i] = byte(sample >> (8 * i))
	}
}

// EncodeSample returns the byteWidth little-endian bytes of sample.
func EncodeSample(sample int32, byteWidth int) []byte {
	b := make([]byte, byteWidth)
	PutSample(b, sample, byteWidth)
	return b
}
