// video_interface.go - Window frontend interface and keyboard geometry

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
)

// VideoError provides detailed error context for window operations
type VideoError struct {
	Operation string // What operation was being attempted
	Details   string // Additional error context
	Err       error  // Underlying error if any
}

func (e *VideoError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("video %s failed: %s: %v", e.Operation, e.Details, e.Err)
	}
	return fmt.Sprintf("video %s failed: %s", e.Operation, e.Details)
}

func (e *VideoError) Unwrap() error { return e.Err }

// Frontend drives a Piano until ctx ends or the piano quits.
type Frontend interface {
	Run(ctx context.Context) error
}

const (
	WINDOW_WIDTH  = 640
	WINDOW_HEIGHT = 300

	KEYBOARD_TOP    = 40
	KEYBOARD_HEIGHT = 200
	KEYBOARD_MARGIN = 12

	BLACK_KEY_HEIGHT = 120
	STATUS_BAR_H     = 44
)

// Semitones that sit on white keys, in keyboard order.
var whiteKeyNotes = [7]int{0, 2, 4, 5, 7, 9, 11}

// keyRect is one key of the drawn keyboard in window coordinates.
type keyRect struct {
	Note       int
	Black      bool
	X, Y, W, H int
}

func (r keyRect) contains(x, y int) bool {
	return x >= r.X && x < r.X+r.W && y >= r.Y && y < r.Y+r.H
}

// pianoKeyLayout lays out one octave across width. White keys come first
// so black keys, drawn later, overlap them.
func pianoKeyLayout(width, top, height int) []keyRect {
	usable := width - 2*KEYBOARD_MARGIN
	whiteW := usable / len(whiteKeyNotes)
	blackW := whiteW * 3 / 5
	blackH := height * BLACK_KEY_HEIGHT / KEYBOARD_HEIGHT

	keys := make([]keyRect, 0, NUM_KEYS)
	for i, note := range whiteKeyNotes {
		keys = append(keys, keyRect{
			Note: note,
			X:    KEYBOARD_MARGIN + i*whiteW,
			Y:    top,
			W:    whiteW - 2,
			H:    height,
		})
	}
	for i, note := range whiteKeyNotes {
		// A black key sits on the boundary after C, D, F, G and A
		if note == 4 || note == 11 {
			continue
		}
		keys = append(keys, keyRect{
			Note:  note + 1,
			Black: true,
			X:     KEYBOARD_MARGIN + (i+1)*whiteW - blackW/2 - 1,
			Y:     top,
			W:     blackW,
			H:     blackH,
		})
	}
	return keys
}

// keyAt returns the note under (x, y), preferring black keys, or -1.
func keyAt(layout []keyRect, x, y int) int {
	for i := len(layout) - 1; i >= 0; i-- {
		if layout[i].contains(x, y) {
			return layout[i].Note
		}
	}
	return -1
}

// normalizePasteText turns CRLF and lone CR into LF.
func normalizePasteText(raw []byte) []byte {
	norm := make([]byte, 0, len(raw))
	for i := 0; i < len(raw); i++ {
		if raw[i] == '\r' {
			if i+1 < len(raw) && raw[i+1] == '\n' {
				i++
			}
			norm = append(norm, '\n')
			continue
		}
		norm = append(norm, raw[i])
	}
	return norm
}

func capPasteText(raw []byte, max int) []byte {
	if len(raw) <= max {
		return raw
	}
	return raw[:max]
}

// forwardKeyEvents sends one frame of key edges to the piano. Presses made
// with Ctrl held belong to shortcuts and are dropped; releases always go
// through so a note started before Ctrl went down still stops.
func forwardKeyEvents[K any](p *Piano, pressed, released []K, name func(K) string, ctrl bool) {
	if !ctrl {
		for _, key := range pressed {
			p.KeyDown(name(key))
		}
	}
	for _, key := range released {
		p.KeyUp(name(key))
	}
}
