// input_keymap.go - Logical key names to piano actions

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
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
)

type KeyAction int

const (
	ActionNone KeyAction = iota
	ActionNote
	ActionOctaveDown
	ActionOctaveUp
	ActionRecordToggle
	ActionQuit
)

var keyActionNames = map[KeyAction]string{
	ActionNote:         "note",
	ActionOctaveDown:   "octave_down",
	ActionOctaveUp:     "octave_up",
	ActionRecordToggle: "record",
	ActionQuit:         "quit",
}

func (a KeyAction) String() string {
	if name, ok := keyActionNames[a]; ok {
		return name
	}
	return fmt.Sprintf("KeyAction(%d)", int(a))
}

// KeyBinding is what a key does. Note is only meaningful for ActionNote.
type KeyBinding struct {
	Action KeyAction
	Note   int
}

func (b KeyBinding) String() string {
	if b.Action == ActionNote {
		return fmt.Sprintf("note:%d", b.Note)
	}
	return b.Action.String()
}

// ParseKeyBinding accepts an action name ("record", "quit", ...), "none" to
// unbind, or "note:N" with N in [0, NUM_KEYS).
func ParseKeyBinding(s string) (KeyBinding, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "none" {
		return KeyBinding{}, nil
	}
	if rest, ok := strings.CutPrefix(s, "note:"); ok {
		n, err := strconv.Atoi(rest)
		if err != nil || n < 0 || n >= NUM_KEYS {
			return KeyBinding{}, fmt.Errorf("note index %q out of range 0-%d", rest, NUM_KEYS-1)
		}
		return KeyBinding{Action: ActionNote, Note: n}, nil
	}
	for action, name := range keyActionNames {
		if action != ActionNote && name == s {
			return KeyBinding{Action: action}, nil
		}
	}
	return KeyBinding{}, fmt.Errorf("unknown key action %q", s)
}

// KeyMap resolves key names. Names are case-insensitive: "a" and "A" are the
// same key, as are "escape" and "Escape".
type KeyMap struct {
	bindings map[string]KeyBinding
}

// Tracker layout: white keys on the home row, black keys above.
var defaultNoteKeys = [NUM_KEYS]string{"A", "W", "S", "E", "D", "F", "T", "G", "Y", "H", "U", "J"}

func DefaultKeyMap() *KeyMap {
	km := &KeyMap{bindings: make(map[string]KeyBinding)}
	for i, name := range defaultNoteKeys {
		km.Bind(name, KeyBinding{Action: ActionNote, Note: i})
	}
	km.Bind("Z", KeyBinding{Action: ActionOctaveDown})
	km.Bind("X", KeyBinding{Action: ActionOctaveUp})
	km.Bind("R", KeyBinding{Action: ActionRecordToggle})
	km.Bind("Escape", KeyBinding{Action: ActionQuit})
	return km
}

func normalizeKeyName(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

// Bind assigns name, replacing any earlier binding. ActionNone unbinds.
func (km *KeyMap) Bind(name string, b KeyBinding) {
	name = normalizeKeyName(name)
	if b.Action == ActionNone {
		delete(km.bindings, name)
		return
	}
	km.bindings[name] = b
}

func (km *KeyMap) Lookup(name string) (KeyBinding, bool) {
	b, ok := km.bindings[normalizeKeyName(name)]
	return b, ok
}

// NoteKey returns the first key name bound to note, for labels.
func (km *KeyMap) NoteKey(note int) string {
	for _, name := range km.Names() {
		if b := km.bindings[name]; b.Action == ActionNote && b.Note == note {
			return name
		}
	}
	return ""
}

// KeyFor returns the first key name bound to action.
func (km *KeyMap) KeyFor(action KeyAction) string {
	for _, name := range km.Names() {
		if km.bindings[name].Action == action {
			return name
		}
	}
	return ""
}

// Names returns the bound key names, sorted.
func (km *KeyMap) Names() []string {
	return slices.Sorted(maps.Keys(km.bindings))
}

// Apply merges overrides of the form name -> binding string.
func (km *KeyMap) Apply(overrides map[string]string) error {
	for _, name := range slices.Sorted(maps.Keys(overrides)) {
		b, err := ParseKeyBinding(overrides[name])
		if err != nil {
			return fmt.Errorf("key %q: %w", name, err)
		}
		km.Bind(name, b)
	}
	return nil
}
