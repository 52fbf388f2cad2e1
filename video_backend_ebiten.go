//go:build !headless

// video_backend_ebiten.go - Ebiten window: keyboard input, key grid and status bar

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
	"errors"
	"fmt"
	"image/color"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text"
	"go.uber.org/zap"
	"golang.design/x/clipboard"
	"golang.org/x/image/font/basicfont"
)

func init() {
	compiledFeatures = append(compiledFeatures, "window:ebiten")
}

const pasteLimit = 4096

var (
	colorBackground = color.RGBA{24, 24, 32, 255}
	colorWhiteKey   = color.RGBA{235, 235, 235, 255}
	colorBlackKey   = color.RGBA{20, 20, 20, 255}
	colorHeldKey    = color.RGBA{120, 170, 255, 255}
	colorSounding   = color.RGBA{0, 220, 90, 255}
	colorLabelDark  = color.RGBA{60, 60, 60, 255}
	colorLabelLight = color.RGBA{190, 190, 190, 255}
	colorRecording  = color.RGBA{230, 30, 40, 255}
	colorStatusBar  = color.RGBA{0, 0, 0, 180}
)

// PianoWindow is the ebiten frontend. Update and Draw run on the ebiten
// goroutine; only the paste worker touches the fields under msgMutex.
type PianoWindow struct {
	piano  *Piano
	logger *zap.Logger
	ctx    context.Context

	width, height int
	layout        []keyRect
	fullscreen    bool
	frameCount    uint64

	pressed  []ebiten.Key
	released []ebiten.Key
	mouseKey int // Note held by the pointer, -1 for none
	focused  bool

	clipboardOnce sync.Once
	clipboardOK   bool
	scorePlaying  atomic.Bool

	msgMutex sync.Mutex
	message  string
	msgUntil time.Time
}

func NewPianoWindow(piano *Piano, logger *zap.Logger) (Frontend, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PianoWindow{
		piano:    piano,
		logger:   logger,
		width:    WINDOW_WIDTH,
		height:   WINDOW_HEIGHT,
		layout:   pianoKeyLayout(WINDOW_WIDTH, KEYBOARD_TOP, KEYBOARD_HEIGHT),
		mouseKey: -1,
		focused:  true,
	}, nil
}

// Run blocks in the ebiten loop; call it from the main goroutine.
func (w *PianoWindow) Run(ctx context.Context) error {
	w.ctx = ctx
	ebiten.SetWindowSize(w.width*2, w.height*2)
	ebiten.SetWindowTitle("Intuition Piano (c) 2024 - 2026 Zayn Otley")
	ebiten.SetWindowResizable(true)
	ebiten.SetRunnableOnUnfocused(true)
	ebiten.SetWindowClosingHandled(true)
	ebiten.SetTPS(120)

	if err := ebiten.RunGame(w); err != nil && !errors.Is(err, ebiten.Termination) {
		return &VideoError{Operation: "run", Details: "ebiten game loop", Err: err}
	}
	return nil
}

func (w *PianoWindow) Update() error {
	if ebiten.IsWindowBeingClosed() {
		w.piano.Quit()
		return ebiten.Termination
	}
	select {
	case <-w.piano.Done():
		return ebiten.Termination
	case <-w.ctx.Done():
		return ebiten.Termination
	default:
	}

	// Releases are lost while unfocused, so never leave a key stuck
	if focused := ebiten.IsFocused(); focused != w.focused {
		w.focused = focused
		if !focused {
			w.piano.Keys().ReleaseAll()
			w.mouseKey = -1
		}
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyF11) {
		w.fullscreen = !w.fullscreen
		ebiten.SetFullscreen(w.fullscreen)
	}

	ctrl := ebiten.IsKeyPressed(ebiten.KeyControlLeft) || ebiten.IsKeyPressed(ebiten.KeyControlRight)
	shift := ebiten.IsKeyPressed(ebiten.KeyShiftLeft) || ebiten.IsKeyPressed(ebiten.KeyShiftRight)
	if ctrl && shift && inpututil.IsKeyJustPressed(ebiten.KeyV) {
		w.handleClipboardPaste()
	}
	w.handleKeyboardInput(ctrl)
	w.handlePointerInput()
	return nil
}

func (w *PianoWindow) handleKeyboardInput(ctrl bool) {
	w.pressed = inpututil.AppendJustPressedKeys(w.pressed[:0])
	w.released = inpututil.AppendJustReleasedKeys(w.released[:0])
	forwardKeyEvents(w.piano, w.pressed, w.released, ebitenKeyName, ctrl)
}

// ebitenKeyName maps an ebiten key to the name KeyMap uses.
func ebitenKeyName(key ebiten.Key) string {
	return key.String()
}

func (w *PianoWindow) handlePointerInput() {
	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		x, y := ebiten.CursorPosition()
		if note := keyAt(w.layout, x, y); note >= 0 {
			w.mouseKey = note
			w.piano.NoteDown(note)
		}
	}
	if inpututil.IsMouseButtonJustReleased(ebiten.MouseButtonLeft) && w.mouseKey >= 0 {
		w.piano.NoteUp(w.mouseKey)
		w.mouseKey = -1
	}
}

func (w *PianoWindow) handleClipboardPaste() {
	w.clipboardOnce.Do(func() {
		w.clipboardOK = clipboard.Init() == nil
	})
	if !w.clipboardOK {
		w.setMessage("clipboard unavailable")
		return
	}
	data := clipboard.Read(clipboard.FmtText)
	if len(data) == 0 {
		return
	}
	data = capPasteText(normalizePasteText(data), pasteLimit)

	events, err := ParseScore(string(data))
	if err != nil {
		w.setMessage(err.Error())
		return
	}
	if len(events) == 0 {
		return
	}
	if !w.scorePlaying.CompareAndSwap(false, true) {
		w.setMessage("a score is already playing")
		return
	}
	w.logger.Info("score pasted", zap.Int("events", len(events)))
	w.setMessage(fmt.Sprintf("playing %d notes", len(events)))
	go func() {
		defer w.scorePlaying.Store(false)
		_ = w.piano.PlayScore(w.ctx, events)
	}()
}

func (w *PianoWindow) setMessage(msg string) {
	w.msgMutex.Lock()
	w.message = msg
	w.msgUntil = time.Now().Add(3 * time.Second)
	w.msgMutex.Unlock()
}

func (w *PianoWindow) currentMessage() string {
	w.msgMutex.Lock()
	defer w.msgMutex.Unlock()
	if time.Now().After(w.msgUntil) {
		return ""
	}
	return w.message
}

func (w *PianoWindow) Draw(screen *ebiten.Image) {
	screen.Fill(colorBackground)
	s := w.piano.Status()
	km := w.piano.KeyMap()

	face := basicfont.Face7x13
	text.Draw(screen, "INTUITION PIANO", face, KEYBOARD_MARGIN, 24, colorLabelLight)

	for _, k := range w.layout {
		fill := colorWhiteKey
		label := colorLabelDark
		if k.Black {
			fill = colorBlackKey
			label = colorLabelLight
		}
		if slices.Contains(s.Held, k.Note) {
			fill = colorHeldKey
		}
		if k.Note == s.Top {
			fill = colorSounding
		}
		ebitenutil.DrawRect(screen, float64(k.X), float64(k.Y), float64(k.W), float64(k.H), fill)

		if name := km.NoteKey(k.Note); name != "" {
			text.Draw(screen, name, face, k.X+k.W/2-3, k.Y+k.H-24, label)
		}
		if !k.Black {
			text.Draw(screen, NoteName(k.Note+s.OctaveOffset), face, k.X+4, k.Y+k.H-6, label)
		}
	}

	if s.Recording {
		// Blink at about 1 Hz
		if (w.frameCount/30)%2 == 0 {
			ebitenutil.DrawRect(screen, float64(w.width-KEYBOARD_MARGIN-40), 12, 12, 12, colorRecording)
		}
		text.Draw(screen, "REC", face, w.width-KEYBOARD_MARGIN-24, 24, colorRecording)
	}

	w.drawStatusBar(screen, s)
	w.frameCount++
}

func (w *PianoWindow) drawStatusBar(screen *ebiten.Image, s PianoStatus) {
	face := basicfont.Face7x13
	y := w.height - STATUS_BAR_H
	ebitenutil.DrawRect(screen, 0, float64(y), float64(w.width), float64(STATUS_BAR_H), colorStatusBar)

	text.Draw(screen, FormatStatusLine(s), face, 6, y+13, colorLabelLight)
	if msg := w.currentMessage(); msg != "" {
		text.Draw(screen, msg, face, 6, y+26, colorSounding)
	}

	km := w.piano.KeyMap()
	legend := fmt.Sprintf("%s/%s Octave  %s Record  F11 Fullscreen  Ctrl+Shift+V Paste score",
		km.KeyFor(ActionOctaveDown), km.KeyFor(ActionOctaveUp), km.KeyFor(ActionRecordToggle))
	legendW := text.BoundString(face, legend).Dx()
	text.Draw(screen, legend, face, max(w.width-legendW-6, 6), y+39, color.RGBA{160, 160, 160, 255})
}

func (w *PianoWindow) Layout(_, _ int) (int, int) {
	return w.width, w.height
}
