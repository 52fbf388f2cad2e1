package main

import (
	"math"
	"slices"
	"sync"
	"testing"
)

func TestKeyState_SilentWhenNothingHeld(t *testing.T) {
	ks := NewKeyState(DEFAULT_OCTAVE_OFFSET)
	if f := ks.CurrentFrequency(); f != 0 {
		t.Fatalf("expected 0, got %v", f)
	}
	if top := ks.Top(); top != -1 {
		t.Fatalf("expected no top key, got %d", top)
	}
}

func TestKeyState_DownUpSilence(t *testing.T) {
	ks := NewKeyState(DEFAULT_OCTAVE_OFFSET)
	if !ks.OnKeyDown(9) {
		t.Fatal("expected key 9 to be accepted")
	}
	if f := ks.CurrentFrequency(); math.Abs(f-440) > 1e-9 {
		t.Fatalf("expected 440, got %v", f)
	}
	if !ks.OnKeyUp(9) {
		t.Fatal("expected release of held key to report true")
	}
	if f := ks.CurrentFrequency(); f != 0 {
		t.Fatalf("expected silence after release, got %v", f)
	}
}

func TestKeyState_LastPressedWins(t *testing.T) {
	ks := NewKeyState(DEFAULT_OCTAVE_OFFSET)
	ks.OnKeyDown(0)
	ks.OnKeyDown(4)
	if f := ks.CurrentFrequency(); f != PitchOf(4, DEFAULT_OCTAVE_OFFSET) {
		t.Fatalf("expected key 4 pitch, got %v", f)
	}
}

func TestKeyState_ReleaseFallsBackToPreviousHeld(t *testing.T) {
	ks := NewKeyState(DEFAULT_OCTAVE_OFFSET)
	ks.OnKeyDown(0)
	ks.OnKeyDown(4)
	ks.OnKeyDown(7)
	ks.OnKeyUp(7)
	if f := ks.CurrentFrequency(); f != PitchOf(4, DEFAULT_OCTAVE_OFFSET) {
		t.Fatalf("expected fallback to key 4, got %v", f)
	}
	// Releasing a key below the top does not change the pitch
	ks.OnKeyUp(0)
	if f := ks.CurrentFrequency(); f != PitchOf(4, DEFAULT_OCTAVE_OFFSET) {
		t.Fatalf("expected key 4 to keep sounding, got %v", f)
	}
	ks.OnKeyUp(4)
	if f := ks.CurrentFrequency(); f != 0 {
		t.Fatalf("expected silence, got %v", f)
	}
}

func TestKeyState_RepressMovesToTop(t *testing.T) {
	ks := NewKeyState(DEFAULT_OCTAVE_OFFSET)
	ks.OnKeyDown(0)
	ks.OnKeyDown(4)
	ks.OnKeyDown(0)
	if got := ks.Held(); !slices.Equal(got, []int{4, 0}) {
		t.Fatalf("expected held order [4 0], got %v", got)
	}
	if top := ks.Top(); top != 0 {
		t.Fatalf("expected top 0, got %d", top)
	}
}

func TestKeyState_InvalidIndexIgnored(t *testing.T) {
	ks := NewKeyState(DEFAULT_OCTAVE_OFFSET)
	for _, k := range []int{-1, NUM_KEYS, 99} {
		if ks.OnKeyDown(k) {
			t.Fatalf("expected index %d to be rejected", k)
		}
	}
	if f := ks.CurrentFrequency(); f != 0 {
		t.Fatalf("expected silence, got %v", f)
	}
	if ks.OnKeyUp(3) {
		t.Fatal("expected release of a key that is not held to report false")
	}
}

func TestKeyState_OctaveAppliesToNextPress(t *testing.T) {
	ks := NewKeyState(DEFAULT_OCTAVE_OFFSET)
	ks.OnKeyDown(9)
	if off := ks.ShiftOctave(1); off != DEFAULT_OCTAVE_OFFSET+OCTAVE {
		t.Fatalf("expected offset %d, got %d", DEFAULT_OCTAVE_OFFSET+OCTAVE, off)
	}
	if f := ks.CurrentFrequency(); math.Abs(f-440) > 1e-9 {
		t.Fatalf("expected held note to keep 440, got %v", f)
	}
	ks.OnKeyDown(9)
	if f := ks.CurrentFrequency(); math.Abs(f-880) > 1e-9 {
		t.Fatalf("expected re-press at 880, got %v", f)
	}
}

func TestKeyState_ShiftOctaveDown(t *testing.T) {
	ks := NewKeyState(DEFAULT_OCTAVE_OFFSET)
	ks.ShiftOctave(-2)
	if off := ks.OctaveOffset(); off != DEFAULT_OCTAVE_OFFSET-2*OCTAVE {
		t.Fatalf("expected %d, got %d", DEFAULT_OCTAVE_OFFSET-2*OCTAVE, off)
	}
	ks.OnKeyDown(9)
	if f := ks.CurrentFrequency(); math.Abs(f-110) > 1e-9 {
		t.Fatalf("expected 110, got %v", f)
	}
}

func TestKeyState_ReleaseAll(t *testing.T) {
	ks := NewKeyState(DEFAULT_OCTAVE_OFFSET)
	ks.OnKeyDown(1)
	ks.OnKeyDown(2)
	ks.ReleaseAll()
	if f := ks.CurrentFrequency(); f != 0 {
		t.Fatalf("expected silence, got %v", f)
	}
	if n := len(ks.Held()); n != 0 {
		t.Fatalf("expected no held keys, got %d", n)
	}
}

func TestKeyState_ConcurrentReaders(t *testing.T) {
	ks := NewKeyState(DEFAULT_OCTAVE_OFFSET)
	valid := map[float64]bool{0: true}
	for k := 0; k < NUM_KEYS; k++ {
		valid[PitchOf(k, DEFAULT_OCTAVE_OFFSET)] = true
	}

	var wg sync.WaitGroup
	stop := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			default:
			}
			ks.OnKeyDown(i % NUM_KEYS)
			ks.OnKeyUp((i + 5) % NUM_KEYS)
		}
	}()
	for i := 0; i < 100000; i++ {
		if f := ks.CurrentFrequency(); !valid[f] {
			close(stop)
			wg.Wait()
			t.Fatalf("read torn frequency %v", f)
		}
	}
	close(stop)
	wg.Wait()
}
