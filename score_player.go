// score_player.go - Note strings like "c500d250e1000": parse, play in real time, render offline

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
	"fmt"
	"io"
	"strings"
	"time"
)

// ScoreEvent holds one note, or a rest, with its duration.
type ScoreEvent struct {
	Key      int // Index into the key row, -1 for a rest
	Rest     bool
	Duration time.Duration
}

func (e ScoreEvent) String() string {
	if e.Rest {
		return fmt.Sprintf("rest %v", e.Duration)
	}
	return fmt.Sprintf("key %d %v", e.Key, e.Duration)
}

// ScoreError reports a malformed score at a byte offset.
type ScoreError struct {
	Pos     int
	Details string
}

func (e *ScoreError) Error() string {
	return fmt.Sprintf("score parse failed at offset %d: %s", e.Pos, e.Details)
}

// Offsets of the natural notes within the key row, which starts at C.
var scoreNoteKeys = map[byte]int{
	'c': 0, 'd': 2, 'e': 4, 'f': 5, 'g': 7, 'a': 9, 'b': 11,
}

// ParseScore reads a sequence of <note>[#]<ms> tokens. Notes are a-g in
// either case, r is a rest, whitespace between tokens is ignored.
func ParseScore(s string) ([]ScoreEvent, error) {
	var events []ScoreEvent
	for i := 0; i < len(s); {
		c := s[i]
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' {
			i++
			continue
		}

		start := i
		lc := c | 0x20 // ASCII lower
		ev := ScoreEvent{Key: -1}
		switch {
		case lc == 'r':
			ev.Rest = true
		case lc >= 'a' && lc <= 'g':
			ev.Key = scoreNoteKeys[lc]
		default:
			return nil, &ScoreError{Pos: i, Details: fmt.Sprintf("unexpected %q", c)}
		}
		i++

		if i < len(s) && s[i] == '#' {
			if ev.Rest {
				return nil, &ScoreError{Pos: i, Details: "a rest cannot be sharp"}
			}
			if lc == 'e' || lc == 'b' {
				return nil, &ScoreError{Pos: i, Details: fmt.Sprintf("%c has no sharp", lc)}
			}
			ev.Key++
			i++
		}

		digits := i
		ms := 0
		for i < len(s) && s[i] >= '0' && s[i] <= '9' {
			ms = ms*10 + int(s[i]-'0')
			if ms > 3_600_000 {
				return nil, &ScoreError{Pos: digits, Details: "duration over one hour"}
			}
			i++
		}
		if i == digits {
			return nil, &ScoreError{Pos: start, Details: fmt.Sprintf("%q without a duration", s[start:i])}
		}
		ev.Duration = time.Duration(ms) * time.Millisecond
		events = append(events, ev)
	}
	return events, nil
}

// ScoreLength is the total playing time of events.
func ScoreLength(events []ScoreEvent) time.Duration {
	var d time.Duration
	for _, ev := range events {
		d += ev.Duration
	}
	return d
}

// playEvents drives keys through events in real time. Cancellation
// releases the sounding note and returns the context error.
func playEvents(ctx context.Context, keys *KeyState, events []ScoreEvent, onNote func(ScoreEvent)) error {
	defer keys.ReleaseAll()

	for _, ev := range events {
		keys.ReleaseAll()
		if !ev.Rest {
			keys.OnKeyDown(ev.Key)
		}
		if onNote != nil {
			onNote(ev)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(ev.Duration):
		}
	}
	return nil
}

// RenderScore synthesizes events into a WAV on w without an audio device,
// using the same oscillator and writer as live recording. Mono input is
// replicated across format's channels. It returns the samples written.
func RenderScore(events []ScoreEvent, format WavFormat, octaveOffset int, w io.WriteSeeker) (uint32, error) {
	if err := format.Validate(); err != nil {
		return 0, err
	}
	if format.SampleBits != SAMPLE_BITS {
		return 0, &WavError{
			Operation: "render",
			Details:   fmt.Sprintf("oscillator output is %d-bit, format asks for %d", SAMPLE_BITS, format.SampleBits),
			Err:       ErrInvalidFormat,
		}
	}

	ww, err := newWavWriter(w, format)
	if err != nil {
		return 0, err
	}
	keys := NewKeyState(octaveOffset)
	var osc SineOscillator
	rate := int(format.SampleRate)

	// Sample positions are computed from the running total so rounding never
	// accumulates across events.
	var elapsed time.Duration
	var emitted int64
render:
	for _, ev := range events {
		keys.ReleaseAll()
		if !ev.Rest {
			keys.OnKeyDown(ev.Key)
		}
		elapsed += ev.Duration
		end := int64(elapsed) * int64(rate) / int64(time.Second)
		for ; emitted < end; emitted++ {
			if !ww.writeSample(int32(osc.Advance(keys.CurrentFrequency(), rate))) {
				break render
			}
		}
	}
	if err := ww.finalize(); err != nil {
		return ww.count, err
	}
	return ww.count, nil
}

// FormatScore is the inverse of ParseScore, in lower case.
func FormatScore(events []ScoreEvent) string {
	names := [NUM_KEYS]string{"c", "c#", "d", "d#", "e", "f", "f#", "g", "g#", "a", "a#", "b"}
	var sb strings.Builder
	for _, ev := range events {
		if ev.Rest {
			sb.WriteByte('r')
		} else {
			sb.WriteString(names[ev.Key])
		}
		fmt.Fprintf(&sb, "%d", ev.Duration.Milliseconds())
	}
	return sb.String()
}
