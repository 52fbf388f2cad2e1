package main

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/go-audio/wav"
)

func newTestRecorder(t *testing.T) *Recorder {
	t.Helper()
	r := NewRecorder(t.TempDir(), nil)
	fixed := time.Unix(1700000000, 0)
	r.now = func() time.Time { return fixed }
	return r
}

func repeatSample(v int16, n int) []int16 {
	s := make([]int16, n)
	for i := range s {
		s[i] = v
	}
	return s
}

func TestRecorder_HundredSamplesFile(t *testing.T) {
	r := newTestRecorder(t)
	path, err := r.Start(DefaultWavFormat(48000))
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if got := r.AppendSamples(repeatSample(0x1234, 100)); got != 100 {
		t.Fatalf("expected 100 samples appended, got %d", got)
	}
	summary, err := r.Stop()
	if err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	if summary.Samples != 100 || summary.Path != path {
		t.Fatalf("unexpected summary %+v", summary)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if len(data) != 244 {
		t.Fatalf("expected 244 bytes, got %d", len(data))
	}
	if data[44] != 0x34 || data[45] != 0x12 {
		t.Fatalf("expected first sample bytes 34 12, got % x", data[44:46])
	}
	if got := binary.LittleEndian.Uint32(data[40:44]); got != 200 {
		t.Fatalf("expected data size 200, got %d", got)
	}
	if got := binary.LittleEndian.Uint32(data[4:8]); got != 236 {
		t.Fatalf("expected riff size 236, got %d", got)
	}
	if summary.Duration != 100*time.Second/48000 {
		t.Fatalf("expected duration from sample count, got %v", summary.Duration)
	}
}

func TestRecorder_FileName(t *testing.T) {
	r := newTestRecorder(t)
	path, err := r.Start(DefaultWavFormat(48000))
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer r.Stop()
	if got := filepath.Base(path); got != "recording-1700000000.wav" {
		t.Fatalf("expected recording-1700000000.wav, got %s", got)
	}
}

func TestRecorder_NameCollisionGetsSuffix(t *testing.T) {
	r := newTestRecorder(t)
	var paths []string
	for range 3 {
		path, err := r.Start(DefaultWavFormat(48000))
		if err != nil {
			t.Fatalf("start failed: %v", err)
		}
		if _, err := r.Stop(); err != nil {
			t.Fatalf("stop failed: %v", err)
		}
		paths = append(paths, filepath.Base(path))
	}
	want := []string{"recording-1700000000.wav", "recording-1700000000-1.wav", "recording-1700000000-2.wav"}
	for i := range want {
		if paths[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, paths)
		}
	}
}

func TestRecorder_EmptyRecordingIsValid(t *testing.T) {
	r := newTestRecorder(t)
	path, err := r.Start(DefaultWavFormat(48000))
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if _, err := r.Stop(); err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	format, n, err := DecodeWavHeader(data)
	if err != nil || n != 0 || len(data) != WAV_HEADER_SIZE {
		t.Fatalf("expected a bare 44-byte header, got %d bytes, %d samples, %v", len(data), n, err)
	}
	if format != DefaultWavFormat(48000) {
		t.Fatalf("unexpected format %+v", format)
	}
}

func TestRecorder_StopWhenIdle(t *testing.T) {
	r := newTestRecorder(t)
	summary, err := r.Stop()
	if summary != nil || err != nil {
		t.Fatalf("expected nil, nil when idle, got %v, %v", summary, err)
	}
	if r.Append(1) {
		t.Fatalf("expected append to be rejected while idle")
	}
	if r.State() != RecorderIdle {
		t.Fatalf("expected idle, got %v", r.State())
	}
}

func TestRecorder_StartWhileRecordingKeepsSession(t *testing.T) {
	r := newTestRecorder(t)
	first, err := r.Start(DefaultWavFormat(48000))
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	r.AppendSamples(repeatSample(7, 10))
	second, err := r.Start(DefaultWavFormat(22050))
	if err != nil || second != first {
		t.Fatalf("expected the open session %s, got %s, %v", first, second, err)
	}
	summary, err := r.Stop()
	if err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	if summary.Samples != 10 || summary.Format.SampleRate != 48000 {
		t.Fatalf("expected the first session to continue, got %+v", summary)
	}
}

func TestRecorder_OpenFailureStaysIdle(t *testing.T) {
	r := newTestRecorder(t)
	openErr := errors.New("disk on fire")
	r.create = func(string) (SinkFile, error) { return nil, openErr }

	_, err := r.Start(DefaultWavFormat(48000))
	if !errors.Is(err, openErr) {
		t.Fatalf("expected the open error, got %v", err)
	}
	var rerr *RecorderError
	if !errors.As(err, &rerr) || rerr.Operation != "open" {
		t.Fatalf("expected an open RecorderError, got %v", err)
	}
	if r.State() != RecorderIdle || r.Path() != "" {
		t.Fatalf("expected idle after failed open")
	}
}

func TestRecorder_InvalidFormatRejected(t *testing.T) {
	r := newTestRecorder(t)
	_, err := r.Start(WavFormat{Channels: 1, SampleBits: 12, SampleRate: 48000})
	if !errors.Is(err, ErrInvalidFormat) {
		t.Fatalf("expected ErrInvalidFormat, got %v", err)
	}
	if r.State() != RecorderIdle {
		t.Fatalf("expected idle after rejected format")
	}
}

func TestRecorder_Toggle(t *testing.T) {
	r := newTestRecorder(t)
	started, summary, err := r.Toggle(DefaultWavFormat(48000))
	if !started || summary != nil || err != nil {
		t.Fatalf("expected start, got %v %v %v", started, summary, err)
	}
	r.AppendSamples(repeatSample(1, 5))
	started, summary, err = r.Toggle(DefaultWavFormat(48000))
	if started || err != nil || summary == nil || summary.Samples != 5 {
		t.Fatalf("expected stop with 5 samples, got %v %+v %v", started, summary, err)
	}
}

func TestRecorder_StereoReplicatesSample(t *testing.T) {
	r := newTestRecorder(t)
	path, err := r.Start(WavFormat{Channels: 2, SampleBits: 16, SampleRate: 8000})
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	r.AppendSamples([]int16{0x0102, -1})
	if _, err := r.Stop(); err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	data, _ := os.ReadFile(path)
	want := []byte{0x02, 0x01, 0x02, 0x01, 0xFF, 0xFF, 0xFF, 0xFF}
	if !bytes.Equal(data[WAV_HEADER_SIZE:], want) {
		t.Fatalf("expected % x, got % x", want, data[WAV_HEADER_SIZE:])
	}
	if got := binary.LittleEndian.Uint32(data[40:44]); got != 8 {
		t.Fatalf("expected data size 8, got %d", got)
	}
}

func TestRecorder_DecodesWithGoAudio(t *testing.T) {
	r := newTestRecorder(t)
	path, err := r.Start(DefaultWavFormat(44100))
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	want := []int16{0, 1000, -1000, 32767, -32768}
	r.AppendSamples(want)
	if _, err := r.Stop(); err != nil {
		t.Fatalf("stop failed: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer f.Close()
	d := wav.NewDecoder(f)
	if !d.IsValidFile() {
		t.Fatalf("expected go-audio to accept the file")
	}
	buf, err := d.FullPCMBuffer()
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if d.SampleRate != 44100 || d.NumChans != 1 || d.BitDepth != 16 {
		t.Fatalf("unexpected format %d Hz %d ch %d bit", d.SampleRate, d.NumChans, d.BitDepth)
	}
	if len(buf.Data) != len(want) {
		t.Fatalf("expected %d samples, got %d", len(want), len(buf.Data))
	}
	for i, v := range want {
		if buf.Data[i] != int(v) {
			t.Fatalf("sample %d: expected %d, got %d", i, v, buf.Data[i])
		}
	}
}

func TestRecorder_ConcurrentAppendAndStop(t *testing.T) {
	r := newTestRecorder(t)
	path, err := r.Start(DefaultWavFormat(48000))
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}

	stop := make(chan struct{})
	var wg sync.WaitGroup
	var total int
	wg.Add(1)
	go func() {
		defer wg.Done()
		chunk := repeatSample(0x0101, 64)
		for {
			select {
			case <-stop:
				return
			default:
			}
			total += r.AppendSamples(chunk)
		}
	}()

	time.Sleep(20 * time.Millisecond)
	summary, err := r.Stop()
	close(stop)
	wg.Wait()
	if err != nil {
		t.Fatalf("stop failed: %v", err)
	}

	if uint32(total) != summary.Samples {
		t.Fatalf("expected every accepted sample counted, appended %d, header %d", total, summary.Samples)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat failed: %v", err)
	}
	if info.Size() != int64(WAV_HEADER_SIZE)+2*int64(summary.Samples) {
		t.Fatalf("file size %d does not match %d samples", info.Size(), summary.Samples)
	}
}

// limitSink is an in-memory SinkFile that fails writes past limit bytes.
type limitSink struct {
	data  []byte
	pos   int
	limit int
}

var errSinkFull = errors.New("sink full")

func (s *limitSink) Write(p []byte) (int, error) {
	n := len(p)
	if s.pos+n > s.limit {
		n = max(s.limit-s.pos, 0)
	}
	if end := s.pos + n; end > len(s.data) {
		s.data = append(s.data, make([]byte, end-len(s.data))...)
	}
	copy(s.data[s.pos:], p[:n])
	s.pos += n
	if n < len(p) {
		return n, errSinkFull
	}
	return n, nil
}

func (s *limitSink) Seek(offset int64, whence int) (int64, error) {
	if whence != io.SeekStart {
		return 0, errors.New("unsupported whence")
	}
	s.pos = int(offset)
	return offset, nil
}

func (s *limitSink) Close() error { return nil }

func TestRecorder_WriteErrorCountsOnlyWrittenSamples(t *testing.T) {
	r := newTestRecorder(t)
	sink := &limitSink{limit: WAV_HEADER_SIZE + 100}
	r.create = func(string) (SinkFile, error) { return sink, nil }

	if _, err := r.Start(DefaultWavFormat(48000)); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	r.AppendSamples(repeatSample(5, 200))
	summary, err := r.Stop()
	if !errors.Is(err, errSinkFull) {
		t.Fatalf("expected the sink error, got %v", err)
	}
	if summary == nil || summary.Samples != 50 {
		t.Fatalf("expected 50 samples reaching the sink, got %+v", summary)
	}
	if got := binary.LittleEndian.Uint32(sink.data[40:44]); got != 100 {
		t.Fatalf("expected header data size 100, got %d", got)
	}
	if r.State() != RecorderIdle {
		t.Fatalf("expected idle after failed stop")
	}
}
