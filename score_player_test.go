package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestParseScore_Basic(t *testing.T) {
	events, err := ParseScore("c500d250e1000")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	want := []ScoreEvent{
		{Key: 0, Duration: 500 * time.Millisecond},
		{Key: 2, Duration: 250 * time.Millisecond},
		{Key: 4, Duration: time.Second},
	}
	if len(events) != len(want) {
		t.Fatalf("expected %d events, got %d", len(want), len(events))
	}
	for i := range want {
		if events[i] != want[i] {
			t.Fatalf("event %d: expected %v, got %v", i, want[i], events[i])
		}
	}
}

func TestParseScore_SharpsRestsAndCase(t *testing.T) {
	events, err := ParseScore(" C#100 r50\nA#20\tg7 ")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	want := []ScoreEvent{
		{Key: 1, Duration: 100 * time.Millisecond},
		{Key: -1, Rest: true, Duration: 50 * time.Millisecond},
		{Key: 10, Duration: 20 * time.Millisecond},
		{Key: 7, Duration: 7 * time.Millisecond},
	}
	if len(events) != len(want) {
		t.Fatalf("expected %d events, got %v", len(want), events)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Fatalf("event %d: expected %v, got %v", i, want[i], events[i])
		}
	}
}

func TestParseScore_Empty(t *testing.T) {
	events, err := ParseScore("  \n")
	if err != nil || len(events) != 0 {
		t.Fatalf("expected no events, got %v, %v", events, err)
	}
}

func TestParseScore_Errors(t *testing.T) {
	cases := map[string]int{
		"c500x100": 4,
		"c":        0,
		"c#":       0,
		"r#10":     1,
		"e#10":     1,
		"b#10":     1,
		"d9999999": 1,
		"h100":     0,
	}
	for in, pos := range cases {
		_, err := ParseScore(in)
		var serr *ScoreError
		if !errors.As(err, &serr) {
			t.Fatalf("%q: expected a ScoreError, got %v", in, err)
		}
		if serr.Pos != pos {
			t.Fatalf("%q: expected error at %d, got %d (%v)", in, pos, serr.Pos, serr)
		}
	}
}

func TestFormatScore_ParsesBack(t *testing.T) {
	in := "c500c#10r20b1"
	events, err := ParseScore(in)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if got := FormatScore(events); got != in {
		t.Fatalf("expected %q, got %q", in, got)
	}
}

func TestScoreLength(t *testing.T) {
	events, _ := ParseScore("c500r250e250")
	if got := ScoreLength(events); got != time.Second {
		t.Fatalf("expected 1s, got %v", got)
	}
}

func TestPlayEvents_PressesInOrder(t *testing.T) {
	keys := NewKeyState(DEFAULT_OCTAVE_OFFSET)
	events, _ := ParseScore("c1r1e1")
	var seen []int
	err := playEvents(context.Background(), keys, events, func(ev ScoreEvent) {
		seen = append(seen, keys.Top())
	})
	if err != nil {
		t.Fatalf("play failed: %v", err)
	}
	if len(seen) != 3 || seen[0] != 0 || seen[1] != -1 || seen[2] != 4 {
		t.Fatalf("expected tops [0 -1 4], got %v", seen)
	}
	if keys.CurrentFrequency() != 0 {
		t.Fatalf("expected silence after the score")
	}
}

func TestPlayEvents_Cancel(t *testing.T) {
	keys := NewKeyState(DEFAULT_OCTAVE_OFFSET)
	events, _ := ParseScore("a60000")
	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	pressed := make(chan struct{})
	go func() {
		errCh <- playEvents(ctx, keys, events, func(ScoreEvent) { close(pressed) })
	}()
	<-pressed
	if keys.CurrentFrequency() == 0 {
		t.Fatalf("expected a sounding note while playing")
	}
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("playEvents did not return after cancel")
	}
	if keys.CurrentFrequency() != 0 {
		t.Fatalf("expected the note released on cancel")
	}
}

func TestRenderScore_SampleCount(t *testing.T) {
	path := filepath.Join(t.TempDir(), "score.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	events, _ := ParseScore("c500")
	n, err := RenderScore(events, DefaultWavFormat(48000), DEFAULT_OCTAVE_OFFSET, f)
	f.Close()
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if n != 24000 {
		t.Fatalf("expected 24000 samples, got %d", n)
	}
	data, _ := os.ReadFile(path)
	format, count, err := DecodeWavHeader(data)
	if err != nil || count != 24000 || format.SampleRate != 48000 {
		t.Fatalf("unexpected header: %+v %d %v", format, count, err)
	}
	if len(data) != WAV_HEADER_SIZE+48000 {
		t.Fatalf("expected %d bytes, got %d", WAV_HEADER_SIZE+48000, len(data))
	}
}

func TestRenderScore_NoDrift(t *testing.T) {
	// 10 x 1ms at 44100 Hz is 441 samples; truncating per event gives 440
	events, _ := ParseScore("c1d1e1f1g1a1b1c1d1e1")
	sink := &limitSink{limit: 1 << 20}
	n, err := RenderScore(events, DefaultWavFormat(44100), DEFAULT_OCTAVE_OFFSET, sink)
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if n != 441 {
		t.Fatalf("expected 441 samples, got %d", n)
	}
}

func TestRenderScore_RestIsSilent(t *testing.T) {
	events, _ := ParseScore("r10")
	sink := &limitSink{limit: 1 << 20}
	n, err := RenderScore(events, DefaultWavFormat(8000), DEFAULT_OCTAVE_OFFSET, sink)
	if err != nil || n != 80 {
		t.Fatalf("expected 80 samples, got %d, %v", n, err)
	}
	for i, b := range sink.data[WAV_HEADER_SIZE:] {
		if b != 0 {
			t.Fatalf("expected silence, byte %d is %#x", i, b)
		}
	}
}

func TestRenderScore_RejectsNon16Bit(t *testing.T) {
	sink := &limitSink{limit: 1 << 20}
	_, err := RenderScore(nil, WavFormat{Channels: 1, SampleBits: 24, SampleRate: 48000}, 0, sink)
	if !errors.Is(err, ErrInvalidFormat) {
		t.Fatalf("expected ErrInvalidFormat, got %v", err)
	}
}
