// audio_output.go - Audio backend selection

package main

import "fmt"

// AudioOutput is a playback device pulling samples from the engine.
type AudioOutput interface {
	SetupPlayer(engine *AudioEngine)
	Start()
	Stop()
	Close() error
	IsStarted() bool
	Err() error
}

const (
	AUDIO_BACKEND_OTO  = "oto"
	AUDIO_BACKEND_NULL = "null"
)

// AudioError provides context for device failures; they are fatal to the
// interactive session.
type AudioError struct {
	Operation string
	Backend   string
	Err       error
}

func (e *AudioError) Error() string {
	return fmt.Sprintf("audio %s (%s): %v", e.Operation, e.Backend, e.Err)
}

func (e *AudioError) Unwrap() error { return e.Err }

// NewAudioOutput opens backend at sampleRate with a device buffer of about
// bufferSamples and attaches engine. The stream is not started.
func NewAudioOutput(backend string, sampleRate, bufferSamples int, engine *AudioEngine) (AudioOutput, error) {
	var out AudioOutput
	switch backend {
	case AUDIO_BACKEND_OTO, "":
		p, err := NewOtoPlayer(sampleRate, bufferSamples)
		if err != nil {
			return nil, err
		}
		out = p
	case AUDIO_BACKEND_NULL:
		out = &nullOutput{}
	default:
		return nil, &AudioError{Operation: "select backend", Backend: backend, Err: fmt.Errorf("unknown backend")}
	}
	out.SetupPlayer(engine)
	return out, nil
}

// nullOutput discards audio entirely; the engine is never pulled.
type nullOutput struct {
	started bool
}

func (n *nullOutput) SetupPlayer(*AudioEngine) {}
func (n *nullOutput) Start() { n.started = true }
func (n *nullOutput) Stop() { n.started = false }
func (n *nullOutput) Close() error { n.started = false; return nil }
func (n *nullOutput) IsStarted() bool { return n.started }
func (n *nullOutput) Err() error { return nil }
