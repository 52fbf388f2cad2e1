package main

import (
	"math"
	"testing"
)

func TestPitchOf_ReferenceA4(t *testing.T) {
	// Key index 9 is A; with the default offset that is key 49
	got := PitchOf(9, DEFAULT_OCTAVE_OFFSET)
	if math.Abs(got-440) > 1e-9 {
		t.Fatalf("expected 440 Hz, got %v", got)
	}
}

func TestPitchOf_MiddleC(t *testing.T) {
	got := PitchOf(0, DEFAULT_OCTAVE_OFFSET)
	if math.Abs(got-261.6256) > 1e-3 {
		t.Fatalf("expected ~261.626 Hz, got %v", got)
	}
}

func TestPitchOf_OctaveDoubles(t *testing.T) {
	for k := 0; k < NUM_KEYS; k++ {
		lo := PitchOf(k, DEFAULT_OCTAVE_OFFSET)
		hi := PitchOf(k, DEFAULT_OCTAVE_OFFSET+OCTAVE)
		if math.Abs(hi/lo-2) > 1e-12 {
			t.Fatalf("key %d: expected ratio 2, got %v", k, hi/lo)
		}
	}
}

func TestPitchOf_SemitoneRatio(t *testing.T) {
	ratio := math.Pow(2, 1.0/12)
	for k := 1; k < NUM_KEYS; k++ {
		r := PitchOf(k, DEFAULT_OCTAVE_OFFSET) / PitchOf(k-1, DEFAULT_OCTAVE_OFFSET)
		if math.Abs(r-ratio) > 1e-12 {
			t.Fatalf("key %d: expected semitone ratio %v, got %v", k, ratio, r)
		}
	}
}

func TestPitchOf_NegativeOffsetStaysPositive(t *testing.T) {
	got := PitchOf(0, -120)
	if !(got > 0) {
		t.Fatalf("expected a positive frequency, got %v", got)
	}
}

func TestNormalizeFrequency(t *testing.T) {
	cases := []struct {
		in, want float64
	}{
		{440, 440},
		{0, 0},
		{-5, 0},
		{math.NaN(), 0},
		{1e6, 1e6},
	}
	for _, c := range cases {
		if got := NormalizeFrequency(c.in); got != c.want {
			t.Fatalf("NormalizeFrequency(%v): expected %v, got %v", c.in, c.want, got)
		}
	}
}

func TestNoteName(t *testing.T) {
	cases := map[int]string{
		40: "C4",
		49: "A4",
		52: "C5",
		41: "C#4",
		4:  "C1",
		1:  "A0",
		51: "B4",
	}
	for n, want := range cases {
		if got := NoteName(n); got != want {
			t.Fatalf("NoteName(%d): expected %s, got %s", n, want, got)
		}
	}
}

func TestPitchOf_HugeOffsetStaysFinite(t *testing.T) {
	for _, offset := range []int{12400, 20000, 1 << 40} {
		if f := PitchOf(0, offset); math.IsInf(f, 0) || math.IsNaN(f) || f <= 0 {
			t.Fatalf("offset %d: expected a finite positive pitch, got %v", offset, f)
		}
	}
}
