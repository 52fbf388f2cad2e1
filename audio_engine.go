// audio_engine.go - Device callback: oscillator -> device buffer -> recorder

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
	"time"
)

// AudioEngine fills device buffers. It owns the oscillator; only the audio
// goroutine may call Fill or Read.
type AudioEngine struct {
	keys       FrequencySource
	recorder   *Recorder
	osc        SineOscillator
	sampleRate int
	sampleBuf  []int16 // Pre-allocated for Read
}

// NewAudioEngine builds an engine reading its pitch from keys. recorder may
// be nil when capture is not wanted.
func NewAudioEngine(keys FrequencySource, recorder *Recorder, sampleRate int) *AudioEngine {
	return &AudioEngine{
		keys:       keys,
		recorder:   recorder,
		sampleRate: sampleRate,
		sampleBuf:  make([]int16, BUFFER_SAMPLES),
	}
}

func (e *AudioEngine) SampleRate() int { return e.sampleRate }

// Fill generates len(out) samples. The frequency is re-read for every
// sample so a key event lands at the next sample boundary. When a
// recording is open every sample also goes to the recorder.
func (e *AudioEngine) Fill(out []int16) {
	start := time.Now()

	var session *recordingSession
	if e.recorder != nil {
		session = e.recorder.acquire()
	}

	recorded := 0
	var freq float64
	for i := range out {
		freq = e.keys.CurrentFrequency()
		sample := e.osc.Advance(freq, e.sampleRate)
		out[i] = sample
		if session != nil && session.append(sample) {
			recorded++
		}
	}
	if session != nil {
		session.release()
	}

	elapsed := time.Since(start)
	AudioCallbacksTotal.Inc()
	AudioSamplesTotal.Add(float64(len(out)))
	AudioCallbackSeconds.Observe(elapsed.Seconds())
	SoundingFrequency.Set(freq)
	if recorded > 0 {
		RecordedSamplesTotal.Add(float64(recorded))
	}
	if deadline := time.Duration(len(out)) * time.Second / time.Duration(e.sampleRate); elapsed > deadline {
		AudioOverrunsTotal.Inc()
	}
}

// Read implements io.Reader for the audio device: signed 16-bit
// little-endian mono. A trailing odd byte is left for the next call.
func (e *AudioEngine) Read(p []byte) (n int, err error) {
	numSamples := len(p) / 2
	if numSamples == 0 {
		return 0, nil
	}

	// Should rarely trigger after construction
	if len(e.sampleBuf) < numSamples {
		e.sampleBuf = make([]int16, numSamples)
	}
	samples := e.sampleBuf[:numSamples]
	e.Fill(samples)

	for i, s := range samples {
		binary.LittleEndian.PutUint16(p[2*i:], uint16(s))
	}
	return numSamples * 2, nil
}
