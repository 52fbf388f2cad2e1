package main

import (
	"errors"
	"flag"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestParseConfig_Defaults(t *testing.T) {
	cfg, err := ParseConfig(nil, envMap(nil), io.Discard)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if cfg.SampleRate != SAMPLE_RATE || cfg.BufferSamples != BUFFER_SAMPLES {
		t.Fatalf("unexpected audio defaults %d/%d", cfg.SampleRate, cfg.BufferSamples)
	}
	if cfg.OctaveOffset != DEFAULT_OCTAVE_OFFSET || cfg.Hold != 300*time.Millisecond {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.AudioBackend != AUDIO_BACKEND_OTO || !cfg.LogJSON || cfg.Terminal {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
}

func TestParseConfig_Flags(t *testing.T) {
	cfg, err := ParseConfig([]string{
		"-rate", "44100", "-octave", "28", "-terminal", "-record",
		"-hold", "150ms", "-audio", "null", "-play", "c10", "-render", "out.wav",
	}, envMap(nil), io.Discard)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if cfg.SampleRate != 44100 || cfg.OctaveOffset != 28 || cfg.Hold != 150*time.Millisecond {
		t.Fatalf("flags not applied: %+v", cfg)
	}
	if !cfg.Terminal || !cfg.Record || cfg.AudioBackend != AUDIO_BACKEND_NULL {
		t.Fatalf("flags not applied: %+v", cfg)
	}
	if cfg.Play != "c10" || cfg.Render != "out.wav" {
		t.Fatalf("score flags not applied: %+v", cfg)
	}
}

func TestParseConfig_EnvUnderFlags(t *testing.T) {
	env := envMap(map[string]string{
		"PIANO_SAMPLE_RATE": "22050",
		"PIANO_RECORD_DIR":  "/tmp/takes",
	})
	cfg, err := ParseConfig(nil, env, io.Discard)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if cfg.SampleRate != 22050 || cfg.RecordDir != "/tmp/takes" {
		t.Fatalf("env not applied: %+v", cfg)
	}

	cfg, err = ParseConfig([]string{"-rate", "96000"}, env, io.Discard)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if cfg.SampleRate != 96000 || cfg.RecordDir != "/tmp/takes" {
		t.Fatalf("expected flag over env, got %+v", cfg)
	}
}

func TestParseConfig_BadEnv(t *testing.T) {
	_, err := ParseConfig(nil, envMap(map[string]string{"PIANO_SAMPLE_RATE": "fast"}), io.Discard)
	var cerr *ConfigError
	if !errors.As(err, &cerr) || cerr.Source != "env" {
		t.Fatalf("expected an env ConfigError, got %v", err)
	}
}

func TestParseConfig_Help(t *testing.T) {
	var sb strings.Builder
	_, err := ParseConfig([]string{"-h"}, envMap(nil), &sb)
	if !errors.Is(err, flag.ErrHelp) {
		t.Fatalf("expected flag.ErrHelp, got %v", err)
	}
	if !strings.Contains(sb.String(), "-terminal") {
		t.Fatalf("expected usage text, got %q", sb.String())
	}
}

func TestParseConfig_Rejects(t *testing.T) {
	cases := [][]string{
		{"-rate", "4000"},
		{"-rate", "500000"},
		{"-buffer", "0"},
		{"-hold", "0s"},
		{"-audio", "alsa"},
		{"-render", "out.wav"},
		{"stray"},
		{"-nope"},
	}
	for _, args := range cases {
		_, err := ParseConfig(args, envMap(nil), io.Discard)
		var cerr *ConfigError
		if !errors.As(err, &cerr) {
			t.Fatalf("%v: expected a ConfigError, got %v", args, err)
		}
	}
}

func TestLoadLuaConfigString_Merges(t *testing.T) {
	cfg := DefaultConfig()
	err := LoadLuaConfigString(&cfg, "test.lua", `
piano = {
  sample_rate = 44100,
  octave_offset = 16 + 12,
  hold_ms = 120,
  record_dir = "takes",
  audio = "null",
  keys = { K = 0, L = "note:2", Escape = "none", Q = "quit" },
}`)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.SampleRate != 44100 || cfg.OctaveOffset != 28 || cfg.Hold != 120*time.Millisecond {
		t.Fatalf("values not merged: %+v", cfg)
	}
	if cfg.RecordDir != "takes" || cfg.AudioBackend != AUDIO_BACKEND_NULL {
		t.Fatalf("strings not merged: %+v", cfg)
	}
	km, err := cfg.KeyMap()
	if err != nil {
		t.Fatalf("keymap failed: %v", err)
	}
	if b, _ := km.Lookup("K"); b.Action != ActionNote || b.Note != 0 {
		t.Fatalf("expected K on note 0, got %v", b)
	}
	if b, _ := km.Lookup("L"); b.Note != 2 {
		t.Fatalf("expected L on note 2, got %v", b)
	}
	if _, ok := km.Lookup("Escape"); ok {
		t.Fatalf("expected Escape unbound")
	}
	if b, _ := km.Lookup("Q"); b.Action != ActionQuit {
		t.Fatalf("expected Q to quit, got %v", b)
	}
}

func TestLoadLuaConfigString_Errors(t *testing.T) {
	cases := map[string]string{
		"syntax":      `piano = {`,
		"no table":    `x = 1`,
		"fraction":    `piano = { sample_rate = 44100.5 }`,
		"wrong type":  `piano = { record_dir = 5 }`,
		"keys type":   `piano = { keys = "A" }`,
		"no dofile":   `dofile("/etc/passwd") piano = {}`,
		"runaway":     `while true do end`,
		"bad binding": `piano = { keys = { K = true } }`,
	}
	for name, src := range cases {
		cfg := DefaultConfig()
		err := LoadLuaConfigString(&cfg, name, src)
		var cerr *ConfigError
		if !errors.As(err, &cerr) {
			t.Fatalf("%s: expected a ConfigError, got %v", name, err)
		}
	}
}

func TestParseConfig_LuaUnderEnvAndFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "piano.lua")
	src := `piano = { sample_rate = 44100, octave_offset = 28, record_dir = "lua" }`
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	env := envMap(map[string]string{"PIANO_RECORD_DIR": "env"})
	cfg, err := ParseConfig([]string{"-config", path, "-octave", "52"}, env, io.Discard)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if cfg.SampleRate != 44100 {
		t.Fatalf("expected lua sample rate, got %d", cfg.SampleRate)
	}
	if cfg.RecordDir != "env" {
		t.Fatalf("expected env over lua, got %s", cfg.RecordDir)
	}
	if cfg.OctaveOffset != 52 {
		t.Fatalf("expected flag over lua, got %d", cfg.OctaveOffset)
	}
}

func TestParseConfig_BadLuaKeysFailValidation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "piano.lua")
	if err := os.WriteFile(path, []byte(`piano = { keys = { K = 40 } }`), 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	_, err := ParseConfig([]string{"-config", path}, envMap(nil), io.Discard)
	var cerr *ConfigError
	if !errors.As(err, &cerr) || cerr.Key != "keys" {
		t.Fatalf("expected a keys ConfigError, got %v", err)
	}
}
