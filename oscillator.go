// oscillator.go - Phase-accumulating sine oscillator

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
	"iter"
	"math"
)

const twoPi = 2 * math.Pi

// FrequencySource supplies the target frequency for the next sample.
type FrequencySource interface {
	CurrentFrequency() float64
}

// FixedFrequency is a FrequencySource that never changes.
type FixedFrequency float64

func (f FixedFrequency) CurrentFrequency() float64 { return float64(f) }

// SineOscillator holds the phase of a continuous sine.
// Phase stays in [0, 2π) and is never reset by a frequency change,
// so retuning mid-stream does not click.
type SineOscillator struct {
	phase float64
}

// Advance emits round(32000*sin(phase)) and moves the phase forward by one
// sample at freq. A step that is not finite leaves the phase where it is.
func (o *SineOscillator) Advance(freq float64, sampleRate int) int16 {
	sample := int16(math.Round(SINE_AMPLITUDE * math.Sin(o.phase)))

	step := twoPi * NormalizeFrequency(freq) / float64(sampleRate)
	if math.IsInf(step, 0) || math.IsNaN(step) {
		// Overflowed pitch: hold the phase like silence
		return sample
	}
	o.phase += step
	if o.phase >= twoPi {
		o.phase -= twoPi
		// Increments of 2π or more only happen far above Nyquist
		if o.phase >= twoPi {
			o.phase = math.Mod(o.phase, twoPi)
		}
	}
	return sample
}

// Phase returns the current phase in radians.
func (o *SineOscillator) Phase() float64 {
	return o.phase
}

// Samples returns the oscillator as an infinite sequence. The frequency is
// read from src before every sample. Stopping the range loop and ranging
// again resumes from the preserved phase.
func (o *SineOscillator) Samples(src FrequencySource, sampleRate int) iter.Seq[int16] {
	return func(yield func(int16) bool) {
		for {
			if !yield(o.Advance(src.CurrentFrequency(), sampleRate)) {
				return
			}
		}
	}
}
