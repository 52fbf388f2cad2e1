// wav_recorder.go - Idle/Recording state machine fed from the audio callback

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
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

var ErrNotRecording = errors.New("recorder is idle")

// RecorderError provides context for recording lifecycle failures
type RecorderError struct {
	Operation string
	Path      string
	Err       error
}

func (e *RecorderError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("recorder %s %s: %v", e.Operation, e.Path, e.Err)
	}
	return fmt.Sprintf("recorder %s: %v", e.Operation, e.Err)
}

func (e *RecorderError) Unwrap() error { return e.Err }

type RecorderState int

const (
	RecorderIdle RecorderState = iota
	RecorderRecording
)

func (s RecorderState) String() string {
	switch s {
	case RecorderIdle:
		return "idle"
	case RecorderRecording:
		return "recording"
	}
	return fmt.Sprintf("RecorderState(%d)", int(s))
}

// SinkFile is the recording destination. *os.File satisfies it.
type SinkFile interface {
	io.Writer
	io.Seeker
	io.Closer
}

// RecordingSummary describes a finalized recording.
type RecordingSummary struct {
	Path     string
	Format   WavFormat
	Samples  uint32
	Started  time.Time
	Duration time.Duration // Derived from Samples, not the wall clock
}

type recordingSession struct {
	path    string
	file    SinkFile
	w       *wavWriter
	started time.Time

	inflight atomic.Int32 // Audio-side appends in progress
	closing  atomic.Bool
	count    atomic.Uint32 // Mirror of w.count for readers off the audio path
}

// Recorder captures the engine output to one WAV file per session.
//
// The audio callback reaches the open session through an atomic pointer and
// brackets each buffer with an in-flight counter. Stop swaps the pointer
// out, marks the session closing, waits for the bracket to drain and only
// then flushes and patches the header, so no sample lands after the header
// is final and every written sample is counted. Appends must come from a
// single producer, the audio callback.
type Recorder struct {
	dir    string
	logger *zap.Logger
	now    func() time.Time
	create func(path string) (SinkFile, error)

	mutex   sync.Mutex // Serializes Start/Stop only
	session atomic.Pointer[recordingSession]
}

func NewRecorder(dir string, logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{
		dir:    dir,
		logger: logger,
		now:    time.Now,
		create: createSinkFile,
	}
}

func createSinkFile(path string) (SinkFile, error) {
	return os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o644)
}

func (r *Recorder) State() RecorderState {
	if r.session.Load() != nil {
		return RecorderRecording
	}
	return RecorderIdle
}

// Path returns the file being recorded, or "" when idle.
func (r *Recorder) Path() string {
	if s := r.session.Load(); s != nil {
		return s.path
	}
	return ""
}

// SampleCount returns the samples written so far in the open session.
func (r *Recorder) SampleCount() uint32 {
	if s := r.session.Load(); s != nil {
		return s.count.Load()
	}
	return 0
}

// Start opens a new recording. Calling it while recording leaves the open
// session untouched and returns its path.
func (r *Recorder) Start(format WavFormat) (string, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if s := r.session.Load(); s != nil {
		return s.path, nil
	}
	if err := format.Validate(); err != nil {
		RecordingsTotal.WithLabelValues("invalid_format").Inc()
		return "", &RecorderError{Operation: "start", Err: err}
	}

	started := r.now()
	path, file, err := r.openSink(started)
	if err != nil {
		RecordingsTotal.WithLabelValues("open_failed").Inc()
		return "", &RecorderError{Operation: "open", Path: path, Err: err}
	}
	w, err := newWavWriter(file, format)
	if err != nil {
		_ = file.Close()
		RecordingsTotal.WithLabelValues("open_failed").Inc()
		return "", &RecorderError{Operation: "start", Path: path, Err: err}
	}

	r.session.Store(&recordingSession{
		path:    path,
		file:    file,
		w:       w,
		started: started,
	})
	RecordingsTotal.WithLabelValues("started").Inc()
	RecordingActive.Set(1)
	r.logger.Info("recording started",
		zap.String("path", path),
		zap.Uint32("sample_rate", format.SampleRate),
		zap.Uint16("bits", format.SampleBits),
		zap.Uint16("channels", format.Channels),
	)
	return path, nil
}

// openSink names the file after the start time, adding -1, -2, ... when
// another recording already took that second.
func (r *Recorder) openSink(started time.Time) (string, SinkFile, error) {
	if r.dir != "" {
		if err := os.MkdirAll(r.dir, 0o755); err != nil {
			return r.dir, nil, err
		}
	}
	base := fmt.Sprintf("%s%d", RECORD_FILE_PREFIX, started.Unix())
	var lastErr error
	for n := 0; n < 100; n++ {
		name := base + RECORD_FILE_SUFFIX
		if n > 0 {
			name = fmt.Sprintf("%s-%d%s", base, n, RECORD_FILE_SUFFIX)
		}
		path := filepath.Join(r.dir, name)
		file, err := r.create(path)
		if err == nil {
			return path, file, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return path, nil, err
		}
		lastErr = err
	}
	return filepath.Join(r.dir, base+RECORD_FILE_SUFFIX), nil, lastErr
}

// Stop finalizes the open recording. When idle it does nothing and returns
// a nil summary.
func (r *Recorder) Stop() (*RecordingSummary, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	s := r.session.Swap(nil)
	if s == nil {
		return nil, nil
	}
	RecordingActive.Set(0)

	s.closing.Store(true)
	for spins := 0; s.inflight.Load() != 0; spins++ {
		if spins < 64 {
			runtime.Gosched()
		} else {
			time.Sleep(50 * time.Microsecond)
		}
	}

	werr := s.w.finalize()
	cerr := s.file.Close()
	summary := &RecordingSummary{
		Path:     s.path,
		Format:   s.w.format,
		Samples:  s.w.count,
		Started:  s.started,
		Duration: time.Duration(s.w.count) * time.Second / time.Duration(s.w.format.SampleRate),
	}
	if err := errors.Join(werr, cerr); err != nil {
		RecordingsTotal.WithLabelValues("finalize_failed").Inc()
		r.logger.Error("recording finalize failed", zap.String("path", s.path), zap.Error(err))
		return summary, &RecorderError{Operation: "stop", Path: s.path, Err: err}
	}
	r.logger.Info("recording stopped",
		zap.String("path", s.path),
		zap.Uint32("samples", summary.Samples),
		zap.Duration("duration", summary.Duration),
	)
	return summary, nil
}

// Toggle starts a recording when idle and stops it otherwise.
func (r *Recorder) Toggle(format WavFormat) (started bool, summary *RecordingSummary, err error) {
	if r.State() == RecorderRecording {
		summary, err = r.Stop()
		return false, summary, err
	}
	_, err = r.Start(format)
	return err == nil, nil, err
}

// Append writes one sample to the open session. It returns false when idle,
// while stopping, or once the session can take no more samples.
func (r *Recorder) Append(sample int16) bool {
	s := r.acquire()
	if s == nil {
		return false
	}
	ok := s.append(sample)
	s.release()
	return ok
}

// AppendSamples writes a whole buffer under one in-flight bracket and
// returns how many samples were written.
func (r *Recorder) AppendSamples(samples []int16) int {
	s := r.acquire()
	if s == nil {
		return 0
	}
	n := 0
	for _, v := range samples {
		if !s.append(v) {
			break
		}
		n++
	}
	s.release()
	return n
}

// acquire returns the open session with the in-flight counter raised, or nil.
// The counter is raised before closing is checked, pairing with Stop which
// sets closing before reading the counter.
func (r *Recorder) acquire() *recordingSession {
	s := r.session.Load()
	if s == nil {
		return nil
	}
	s.inflight.Add(1)
	if s.closing.Load() {
		s.inflight.Add(-1)
		return nil
	}
	return s
}

func (s *recordingSession) release() {
	s.inflight.Add(-1)
}

func (s *recordingSession) append(sample int16) bool {
	if !s.w.writeSample(int32(sample)) {
		return false
	}
	s.count.Add(1)
	return true
}
