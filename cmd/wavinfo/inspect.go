package main

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-audio/wav"
)

const canonicalHeaderSize = 44

// Info summarizes one WAV file.
type Info struct {
	Path        string
	Channels    int
	SampleRate  int
	BitDepth    int
	Frames      int
	Duration    time.Duration
	Peak        int
	DataSize    int64 // As declared by the data chunk
	FileSize    int64
	RiffSize    uint32
	AudioFormat int
}

var errNotWav = errors.New("not a RIFF/WAVE file")

// Inspect decodes path with go-audio and collects its format and level.
func Inspect(path string) (*Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return nil, err
	}
	var riff [8]byte
	if _, err := io.ReadFull(f, riff[:]); err != nil {
		return nil, fmt.Errorf("%s: %w", path, errNotWav)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}

	d := wav.NewDecoder(f)
	if !d.IsValidFile() {
		return nil, fmt.Errorf("%s: %w", path, errNotWav)
	}
	d.ReadInfo()
	if d.Err() != nil {
		return nil, fmt.Errorf("%s: %w", path, d.Err())
	}

	info := &Info{
		Path:        path,
		Channels:    int(d.NumChans),
		SampleRate:  int(d.SampleRate),
		BitDepth:    int(d.BitDepth),
		AudioFormat: int(d.WavAudioFormat),
		DataSize:    d.PCMLen(),
		FileSize:    st.Size(),
		RiffSize:    binary.LittleEndian.Uint32(riff[4:8]),
	}

	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("%s: decode: %w", path, err)
	}
	if info.Channels > 0 {
		info.Frames = len(buf.Data) / info.Channels
	}
	if info.SampleRate > 0 {
		info.Duration = time.Duration(info.Frames) * time.Second / time.Duration(info.SampleRate)
	}
	for _, v := range buf.Data {
		info.Peak = max(info.Peak, abs(v))
	}
	return info, nil
}

// checkLayout verifies the canonical single-chunk layout: the data chunk
// fills the file right after a 44-byte header and the RIFF size covers the
// rest of the file.
func checkLayout(info *Info) error {
	if want := info.FileSize - canonicalHeaderSize; info.DataSize != want {
		return fmt.Errorf("data size %d, file holds %d bytes after the header", info.DataSize, want)
	}
	if want := info.FileSize - 8; int64(info.RiffSize) != want {
		return fmt.Errorf("riff size %d, expected %d", info.RiffSize, want)
	}
	if block := int64(info.Channels * info.BitDepth / 8); block == 0 || info.DataSize%block != 0 {
		return fmt.Errorf("data size %d is not a whole number of frames", info.DataSize)
	}
	return nil
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func (i *Info) String() string {
	return fmt.Sprintf("%s: %d ch, %d Hz, %d-bit, %d frames (%v), peak %d, data %d bytes, file %d bytes",
		i.Path, i.Channels, i.SampleRate, i.BitDepth, i.Frames, i.Duration, i.Peak, i.DataSize, i.FileSize)
}
