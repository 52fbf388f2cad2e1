// terminal_input.go - Shared terminal frontend: byte decoding, auto release, status line

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
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/term"
)

const (
	termCtrlC  = 0x03
	termEscape = 0x1B
)

// TerminalHost reads raw stdin and feeds key presses into a Piano.
// Terminals report no key releases, so each note is released after hold
// unless the key is pressed again first; keyboard auto-repeat keeps a held
// key sounding.
type TerminalHost struct {
	piano  *Piano
	hold   time.Duration
	out    io.Writer
	logger *zap.Logger

	timerMutex sync.Mutex
	timers     map[string]*time.Timer

	stopCh       chan struct{}
	done         chan struct{}
	stopped      sync.Once
	fd           int
	nonblockSet  bool
	oldTermState *term.State
}

func NewTerminalHost(piano *Piano, hold time.Duration, out io.Writer, logger *zap.Logger) *TerminalHost {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TerminalHost{
		piano:  piano,
		hold:   hold,
		out:    out,
		logger: logger,
		timers: make(map[string]*time.Timer),
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Run puts the terminal in raw mode and redraws the status line until ctx
// ends or the piano quits. The terminal is restored before returning.
func (h *TerminalHost) Run(ctx context.Context) error {
	if err := h.Start(); err != nil {
		return err
	}
	defer h.Stop()

	fmt.Fprint(h.out, terminalHelp(h.piano.KeyMap()))
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	last := ""
	for {
		select {
		case <-ctx.Done():
			h.finish()
			return nil
		case <-h.piano.Done():
			h.finish()
			return nil
		case <-h.done:
			// stdin closed
			h.piano.Quit()
			h.finish()
			return nil
		case <-ticker.C:
			if line := FormatStatusLine(h.piano.Status()); line != last {
				fmt.Fprintf(h.out, "\r\x1b[2K%s", line)
				last = line
			}
		}
	}
}

func (h *TerminalHost) finish() {
	h.releaseAll()
	fmt.Fprint(h.out, "\r\n")
}

// handleInput decodes one read from stdin. ESC alone is the Escape key;
// ESC followed by more bytes is a cursor or function key sequence and is
// ignored.
func (h *TerminalHost) handleInput(chunk []byte) {
	for i := 0; i < len(chunk); i++ {
		b := chunk[i]
		switch {
		case b == termCtrlC:
			h.piano.Quit()
			return
		case b == termEscape:
			if i == len(chunk)-1 {
				h.press("Escape")
			}
			return
		case b == ' ':
			h.releaseAll()
		default:
			if name, ok := terminalKeyName(b); ok {
				h.press(name)
			}
		}
	}
}

func terminalKeyName(b byte) (string, bool) {
	switch {
	case b >= 'a' && b <= 'z':
		return string(rune(b - 'a' + 'A')), true
	case b >= 'A' && b <= 'Z', b >= '0' && b <= '9':
		return string(rune(b)), true
	}
	return "", false
}

// press handles a key. Note presses and their timed releases are ordered by
// timerMutex so a stale release never lands after a fresh press.
func (h *TerminalHost) press(name string) {
	if b, ok := h.piano.KeyMap().Lookup(name); !ok || b.Action != ActionNote {
		h.piano.KeyDown(name)
		return
	}

	h.timerMutex.Lock()
	defer h.timerMutex.Unlock()
	h.piano.KeyDown(name)
	if t, ok := h.timers[name]; ok && t.Stop() {
		t.Reset(h.hold)
		return
	}
	var t *time.Timer
	t = time.AfterFunc(h.hold, func() {
		h.timerMutex.Lock()
		defer h.timerMutex.Unlock()
		if h.timers[name] != t {
			return
		}
		delete(h.timers, name)
		h.piano.KeyUp(name)
	})
	h.timers[name] = t
}

func (h *TerminalHost) releaseAll() {
	h.timerMutex.Lock()
	defer h.timerMutex.Unlock()
	for name, t := range h.timers {
		t.Stop()
		delete(h.timers, name)
	}
	h.piano.Keys().ReleaseAll()
}

func terminalHelp(km *KeyMap) string {
	var notes []string
	for i := range NUM_KEYS {
		if k := km.NoteKey(i); k != "" {
			notes = append(notes, k)
		}
	}
	return fmt.Sprintf("Keys %s  |  octave %s/%s  |  record %s  |  space silence  |  quit %s\r\n",
		strings.Join(notes, " "),
		km.KeyFor(ActionOctaveDown), km.KeyFor(ActionOctaveUp),
		km.KeyFor(ActionRecordToggle), km.KeyFor(ActionQuit),
	)
}

// FormatStatusLine renders a one-line summary of s.
func FormatStatusLine(s PianoStatus) string {
	var sb strings.Builder
	if s.Note != "" {
		fmt.Fprintf(&sb, "%-4s %7.2f Hz", s.Note, s.Frequency)
	} else {
		sb.WriteString("---  silent    ")
	}
	fmt.Fprintf(&sb, "  base %s", NoteName(s.OctaveOffset))
	switch {
	case s.Recording:
		fmt.Fprintf(&sb, "  REC %s %.1fs", s.RecordPath, s.RecordedTime.Seconds())
	case s.LastError != nil:
		fmt.Fprintf(&sb, "  error: %v", s.LastError)
	case s.LastRecording != nil:
		fmt.Fprintf(&sb, "  saved %s (%d samples)", s.LastRecording.Path, s.LastRecording.Samples)
	}
	return sb.String()
}

// TerminalError reports a failure to set up or restore the console.
type TerminalError struct {
	Operation string
	Err       error
}

func (e *TerminalError) Error() string {
	return fmt.Sprintf("terminal %s failed: %v", e.Operation, e.Err)
}

func (e *TerminalError) Unwrap() error { return e.Err }
