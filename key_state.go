// key_state.go - Monophonic held-key tracking

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
	"math"
	"slices"
	"sync"
	"sync/atomic"
)

type heldKey struct {
	index int
	freq  float64 // Pitch fixed at press time
}

// KeyState tracks which of the 12 keys are held. The most recently pressed
// key that is still held decides the sounding pitch.
//
// Input handlers mutate it under mu; the audio callback only calls
// CurrentFrequency, which is a single atomic load.
type KeyState struct {
	mu           sync.Mutex
	held         []heldKey // Press order, top of stack last
	octaveOffset int

	freqBits atomic.Uint64 // math.Float64bits of the sounding frequency
}

func NewKeyState(octaveOffset int) *KeyState {
	return &KeyState{
		held:         make([]heldKey, 0, NUM_KEYS),
		octaveOffset: octaveOffset,
	}
}

// OnKeyDown presses keyIndex. Pressing a key that is already held moves it
// to the top with the current octave. Returns false for indices outside
// [0, NUM_KEYS).
func (ks *KeyState) OnKeyDown(keyIndex int) bool {
	if keyIndex < 0 || keyIndex >= NUM_KEYS {
		return false
	}
	ks.mu.Lock()
	defer ks.mu.Unlock()

	ks.remove(keyIndex)
	ks.held = append(ks.held, heldKey{
		index: keyIndex,
		freq:  NormalizeFrequency(PitchOf(keyIndex, ks.octaveOffset)),
	})
	ks.publish()
	return true
}

// OnKeyUp releases keyIndex. Returns false if the key was not held.
func (ks *KeyState) OnKeyUp(keyIndex int) bool {
	ks.mu.Lock()
	defer ks.mu.Unlock()

	if !ks.remove(keyIndex) {
		return false
	}
	ks.publish()
	return true
}

// ReleaseAll silences the keyboard.
func (ks *KeyState) ReleaseAll() {
	ks.mu.Lock()
	ks.held = ks.held[:0]
	ks.publish()
	ks.mu.Unlock()
}

// CurrentFrequency returns the sounding frequency, or 0 when nothing is held.
// Safe to call from the audio callback.
func (ks *KeyState) CurrentFrequency() float64 {
	return math.Float64frombits(ks.freqBits.Load())
}

// IsDown reports whether keyIndex is held.
func (ks *KeyState) IsDown(keyIndex int) bool {
	ks.mu.Lock()
	defer ks.mu.Unlock()
	return ks.find(keyIndex) >= 0
}

// Held returns the held key indices in press order.
func (ks *KeyState) Held() []int {
	ks.mu.Lock()
	defer ks.mu.Unlock()
	out := make([]int, len(ks.held))
	for i, k := range ks.held {
		out[i] = k.index
	}
	return out
}

// Top returns the key that is sounding, or -1.
func (ks *KeyState) Top() int {
	ks.mu.Lock()
	defer ks.mu.Unlock()
	if len(ks.held) == 0 {
		return -1
	}
	return ks.held[len(ks.held)-1].index
}

func (ks *KeyState) OctaveOffset() int {
	ks.mu.Lock()
	defer ks.mu.Unlock()
	return ks.octaveOffset
}

// SetOctaveOffset changes the offset used for the next key press.
// Held notes keep their pitch.
func (ks *KeyState) SetOctaveOffset(offset int) {
	ks.mu.Lock()
	ks.octaveOffset = offset
	ks.mu.Unlock()
}

// ShiftOctave moves the offset by delta octaves and returns the new offset.
func (ks *KeyState) ShiftOctave(delta int) int {
	ks.mu.Lock()
	defer ks.mu.Unlock()
	ks.octaveOffset += delta * OCTAVE
	return ks.octaveOffset
}

func (ks *KeyState) find(keyIndex int) int {
	return slices.IndexFunc(ks.held, func(k heldKey) bool { return k.index == keyIndex })
}

func (ks *KeyState) remove(keyIndex int) bool {
	i := ks.find(keyIndex)
	if i < 0 {
		return false
	}
	ks.held = slices.Delete(ks.held, i, i+1)
	return true
}

// publish must be called with mu held.
func (ks *KeyState) publish() {
	var freq float64
	if n := len(ks.held); n > 0 {
		freq = ks.held[n-1].freq
	}
	ks.freqBits.Store(math.Float64bits(freq))
}
