package main

import (
	"slices"
	"testing"
)

func TestDefaultKeyMap_NoteRow(t *testing.T) {
	km := DefaultKeyMap()
	for i, name := range []string{"A", "W", "S", "E", "D", "F", "T", "G", "Y", "H", "U", "J"} {
		b, ok := km.Lookup(name)
		if !ok || b.Action != ActionNote || b.Note != i {
			t.Fatalf("%s: expected note:%d, got %v (%v)", name, i, b, ok)
		}
		if got := km.NoteKey(i); got != name {
			t.Fatalf("note %d: expected label %s, got %s", i, name, got)
		}
	}
}

func TestDefaultKeyMap_Controls(t *testing.T) {
	km := DefaultKeyMap()
	cases := map[string]KeyAction{
		"z":      ActionOctaveDown,
		"X":      ActionOctaveUp,
		"r":      ActionRecordToggle,
		"escape": ActionQuit,
	}
	for name, want := range cases {
		b, ok := km.Lookup(name)
		if !ok || b.Action != want {
			t.Fatalf("%s: expected %v, got %v", name, want, b.Action)
		}
	}
	if _, ok := km.Lookup("Q"); ok {
		t.Fatalf("expected Q to be unbound")
	}
	if got := km.KeyFor(ActionQuit); got != "ESCAPE" {
		t.Fatalf("expected ESCAPE for quit, got %s", got)
	}
}

func TestParseKeyBinding(t *testing.T) {
	good := map[string]KeyBinding{
		"note:0":      {Action: ActionNote, Note: 0},
		" Note:11 ":   {Action: ActionNote, Note: 11},
		"record":      {Action: ActionRecordToggle},
		"OCTAVE_DOWN": {Action: ActionOctaveDown},
		"octave_up":   {Action: ActionOctaveUp},
		"quit":        {Action: ActionQuit},
		"none":        {},
	}
	for in, want := range good {
		got, err := ParseKeyBinding(in)
		if err != nil || got != want {
			t.Fatalf("%q: expected %v, got %v, %v", in, want, got, err)
		}
	}
	for _, in := range []string{"note:12", "note:-1", "note:x", "note", "fly"} {
		if _, err := ParseKeyBinding(in); err == nil {
			t.Fatalf("%q: expected an error", in)
		}
	}
}

func TestKeyBinding_StringParsesBack(t *testing.T) {
	for _, b := range []KeyBinding{
		{Action: ActionNote, Note: 7},
		{Action: ActionOctaveUp},
		{Action: ActionRecordToggle},
	} {
		got, err := ParseKeyBinding(b.String())
		if err != nil || got != b {
			t.Fatalf("%v: expected to parse back, got %v, %v", b, got, err)
		}
	}
}

func TestKeyMap_ApplyOverrides(t *testing.T) {
	km := DefaultKeyMap()
	err := km.Apply(map[string]string{
		"k":      "note:0",
		"A":      "none",
		"Escape": "record",
	})
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if _, ok := km.Lookup("a"); ok {
		t.Fatalf("expected A unbound")
	}
	if b, _ := km.Lookup("K"); b.Action != ActionNote || b.Note != 0 {
		t.Fatalf("expected K on note 0, got %v", b)
	}
	if got := km.NoteKey(0); got != "K" {
		t.Fatalf("expected label K for note 0, got %s", got)
	}
	if b, _ := km.Lookup("escape"); b.Action != ActionRecordToggle {
		t.Fatalf("expected escape rebound to record, got %v", b)
	}
}

func TestKeyMap_ApplyRejectsBadBinding(t *testing.T) {
	km := DefaultKeyMap()
	if err := km.Apply(map[string]string{"K": "note:99"}); err == nil {
		t.Fatalf("expected an error for note:99")
	}
}

func TestKeyMap_NamesSorted(t *testing.T) {
	names := DefaultKeyMap().Names()
	if len(names) != NUM_KEYS+4 {
		t.Fatalf("expected %d names, got %d", NUM_KEYS+4, len(names))
	}
	if !slices.IsSorted(names) {
		t.Fatalf("expected sorted names, got %v", names)
	}
}
