// piano.go - Input events to KeyState and Recorder, shared by every frontend

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
	"context"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Piano is the event-side controller. Frontends hand it key names; it
// resolves them through the KeyMap and drives the KeyState and Recorder.
// All methods are safe for concurrent use.
type Piano struct {
	keys     *KeyState
	keymap   *KeyMap
	recorder *Recorder
	format   WavFormat
	logger   *zap.Logger

	mutex   sync.Mutex
	lastRec *RecordingSummary
	lastErr error

	quitOnce sync.Once
	done     chan struct{}
}

// PianoStatus is a snapshot for display.
type PianoStatus struct {
	Held         []int
	Top          int
	OctaveOffset int
	Frequency    float64
	Note         string // Nearest note name of Frequency, "" when silent

	Recording       bool
	RecordPath      string
	RecordedSamples uint32
	RecordedTime    time.Duration

	LastRecording *RecordingSummary
	LastError     error
}

func NewPiano(keys *KeyState, keymap *KeyMap, recorder *Recorder, format WavFormat, logger *zap.Logger) *Piano {
	if keymap == nil {
		keymap = DefaultKeyMap()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Piano{
		keys:     keys,
		keymap:   keymap,
		recorder: recorder,
		format:   format,
		logger:   logger,
		done:     make(chan struct{}),
	}
}

func (p *Piano) Keys() *KeyState { return p.keys }
func (p *Piano) KeyMap() *KeyMap { return p.keymap }
func (p *Piano) Format() WavFormat { return p.format }

// KeyDown handles a press of the named key and returns its binding.
// Unbound names are ignored.
func (p *Piano) KeyDown(name string) (KeyBinding, bool) {
	b, ok := p.keymap.Lookup(name)
	if !ok {
		return KeyBinding{}, false
	}
	switch b.Action {
	case ActionNote:
		if p.keys.OnKeyDown(b.Note) {
			NotesPressedTotal.Inc()
			p.logger.Debug("key down",
				zap.String("key", name),
				zap.Int("note", b.Note),
				zap.Float64("freq", p.keys.CurrentFrequency()),
			)
		}
	case ActionOctaveDown:
		p.shiftOctave(-1)
	case ActionOctaveUp:
		p.shiftOctave(1)
	case ActionRecordToggle:
		_ = p.ToggleRecording()
	case ActionQuit:
		p.Quit()
	}
	return b, true
}

// KeyUp handles a release. Only note keys act on release.
func (p *Piano) KeyUp(name string) (KeyBinding, bool) {
	b, ok := p.keymap.Lookup(name)
	if !ok {
		return KeyBinding{}, false
	}
	if b.Action == ActionNote && p.keys.OnKeyUp(b.Note) {
		p.logger.Debug("key up", zap.String("key", name), zap.Int("note", b.Note))
	}
	return b, true
}

// NoteDown presses a key by index, for pointer input.
func (p *Piano) NoteDown(note int) {
	if p.keys.OnKeyDown(note) {
		NotesPressedTotal.Inc()
		p.logger.Debug("note down", zap.Int("note", note))
	}
}

func (p *Piano) NoteUp(note int) {
	p.keys.OnKeyUp(note)
}

func (p *Piano) shiftOctave(delta int) {
	offset := p.keys.ShiftOctave(delta)
	p.logger.Info("octave changed",
		zap.Int("offset", offset),
		zap.String("base_note", NoteName(offset)),
	)
}

// ToggleRecording starts a recording when idle and finalizes it otherwise.
// The outcome is also kept for Status.
func (p *Piano) ToggleRecording() error {
	if p.recorder == nil {
		return nil
	}
	_, summary, err := p.recorder.Toggle(p.format)

	p.mutex.Lock()
	if summary != nil {
		p.lastRec = summary
	}
	p.lastErr = err
	p.mutex.Unlock()

	if err != nil {
		p.logger.Error("recording toggle failed", zap.Error(err))
	}
	return err
}

// StopRecording finalizes an open recording. It returns ErrNotRecording
// when there is none.
func (p *Piano) StopRecording() (*RecordingSummary, error) {
	if p.recorder == nil || p.recorder.State() != RecorderRecording {
		return nil, ErrNotRecording
	}
	summary, err := p.recorder.Stop()
	p.mutex.Lock()
	if summary != nil {
		p.lastRec = summary
	}
	p.lastErr = err
	p.mutex.Unlock()
	return summary, err
}

// Quit asks every frontend to exit. Safe to call more than once.
func (p *Piano) Quit() {
	p.quitOnce.Do(func() {
		p.logger.Debug("quit requested")
		close(p.done)
	})
}

func (p *Piano) Done() <-chan struct{} { return p.done }

// PlayScore presses and releases keys along events in real time.
func (p *Piano) PlayScore(ctx context.Context, events []ScoreEvent) error {
	p.logger.Info("playing score",
		zap.Int("events", len(events)),
		zap.Duration("length", ScoreLength(events)),
	)
	err := playEvents(ctx, p.keys, events, func(ev ScoreEvent) {
		if !ev.Rest {
			NotesPressedTotal.Inc()
		}
		p.logger.Debug("score event", zap.Stringer("event", ev))
	})
	if err != nil {
		p.logger.Info("score interrupted", zap.Error(err))
	}
	return err
}

func (p *Piano) Status() PianoStatus {
	s := PianoStatus{
		Held:         p.keys.Held(),
		Top:          p.keys.Top(),
		OctaveOffset: p.keys.OctaveOffset(),
		Frequency:    p.keys.CurrentFrequency(),
	}
	if s.Frequency > 0 {
		s.Note = NoteName(nearestKey(s.Frequency))
	}
	if p.recorder != nil {
		s.RecordPath = p.recorder.Path()
		s.Recording = s.RecordPath != ""
		s.RecordedSamples = p.recorder.SampleCount()
		if p.format.SampleRate > 0 {
			s.RecordedTime = time.Duration(s.RecordedSamples) * time.Second / time.Duration(p.format.SampleRate)
		}
	}
	p.mutex.Lock()
	s.LastRecording = p.lastRec
	s.LastError = p.lastErr
	p.mutex.Unlock()
	return s
}

// nearestKey inverts PitchOf for display.
func nearestKey(freq float64) int {
	return REFERENCE_KEY + int(math.Round(OCTAVE*math.Log2(freq/REFERENCE_PITCH)))
}
