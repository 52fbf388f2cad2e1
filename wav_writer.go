// wav_writer.go - Streaming WAV writer with placeholder header and seek-back finalize

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
	"bufio"
	"io"
)

// wavWriter appends PCM samples to a seekable sink. The header is written
// as a valid zero-length placeholder up front, so a file cut short by a crash
// still parses, and rewritten with the true count by finalize.
//
// Not safe for concurrent use; the recorder gives it a single writer.
type wavWriter struct {
	sink    io.WriteSeeker
	out     *sinkCounter
	buf     *bufio.Writer
	format  WavFormat
	width   int
	frame   []byte // One sample replicated per channel
	count   uint32 // Samples per channel fully handed to buf
	max     uint32
	err     error
	flushed bool
}

func newWavWriter(sink io.WriteSeeker, format WavFormat) (*wavWriter, error) {
	if err := format.Validate(); err != nil {
		return nil, err
	}
	header := BuildWavHeader(format, 0)
	if _, err := sink.Write(header[:]); err != nil {
		return nil, &WavError{Operation: "placeholder header", Details: "write failed", Err: err}
	}
	out := &sinkCounter{w: sink}
	return &wavWriter{
		sink:   sink,
		out:    out,
		buf:    bufio.NewWriterSize(out, RECORD_WRITE_BUFFER),
		format: format,
		width:  format.BytesPerSample(),
		frame:  make([]byte, int(format.BlockAlign())),
		max:    format.MaxSamples(),
	}, nil
}

// writeSample appends one sample to every channel. It returns false, without
// counting, once a write has failed or the 32-bit size limit is reached.
func (w *wavWriter) writeSample(sample int32) bool {
	if w.err != nil || w.count >= w.max {
		return false
	}
	for ch := 0; ch < int(w.format.Channels); ch++ {
		PutSample(w.frame[ch*w.width:], sample, w.width)
	}
	if _, err := w.buf.Write(w.frame); err != nil {
		w.err = &WavError{Operation: "sample write", Details: "buffered write failed", Err: err}
		return false
	}
	w.count++
	return true
}

// finalize flushes buffered samples and patches the header with the final
// count. The sink is left positioned after the header; closing it is the
// caller's job.
func (w *wavWriter) finalize() error {
	if w.flushed {
		return w.err
	}
	w.flushed = true

	if err := w.buf.Flush(); err != nil && w.err == nil {
		w.err = &WavError{Operation: "finalize", Details: "flush failed", Err: err}
	}
	if w.err != nil {
		// Only count what the sink accepted
		w.count = uint32(w.out.n / int64(w.format.BlockAlign()))
	}
	if _, err := w.sink.Seek(0, io.SeekStart); err != nil {
		if w.err == nil {
			w.err = &WavError{Operation: "finalize", Details: "seek to header failed", Err: err}
		}
		return w.err
	}
	header := BuildWavHeader(w.format, w.count)
	if _, err := w.sink.Write(header[:]); err != nil && w.err == nil {
		w.err = &WavError{Operation: "finalize", Details: "header rewrite failed", Err: err}
	}
	return w.err
}

// sinkCounter counts bytes the underlying sink accepted.
type sinkCounter struct {
	w io.Writer
	n int64
}

func (c *sinkCounter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
