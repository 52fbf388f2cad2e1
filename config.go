// config.go - Defaults, Lua config file, environment and command-line flags

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
	"flag"
	"fmt"
	"io"
	"maps"
	"strconv"
	"strings"
	"time"

	lua "github.com/yuin/gopher-lua"
)

// Config is layered: defaults, then the Lua file, then PIANO_* environment
// variables, then flags given explicitly on the command line.
type Config struct {
	SampleRate    int
	BufferSamples int
	OctaveOffset  int
	RecordDir     string
	MetricsAddr   string
	Hold          time.Duration
	Keys          map[string]string // Key name -> binding, merged over DefaultKeyMap

	AudioBackend string
	Terminal     bool
	Record       bool   // Start recording immediately
	Play         string // Score to play, then exit
	Render       string // With Play: write the score to this WAV instead of the device
	Debug        bool
	LogJSON      bool
	ConfigFile   string
	Features     bool
}

// ConfigError reports a bad setting and where it came from.
type ConfigError struct {
	Source  string // "flag", "env", a file name
	Key     string
	Details string
	Err     error
}

func (e *ConfigError) Error() string {
	msg := fmt.Sprintf("config %s: %s: %s", e.Source, e.Key, e.Details)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConfigError) Unwrap() error { return e.Err }

const luaConfigTimeout = 2 * time.Second

func DefaultConfig() Config {
	return Config{
		SampleRate:    SAMPLE_RATE,
		BufferSamples: BUFFER_SAMPLES,
		OctaveOffset:  DEFAULT_OCTAVE_OFFSET,
		Hold:          DEFAULT_HOLD_MS * time.Millisecond,
		Keys:          map[string]string{},
		AudioBackend:  AUDIO_BACKEND_OTO,
		LogJSON:       true,
	}
}

// ParseConfig builds the configuration from args (without the program
// name). On -h usage is printed to usage and flag.ErrHelp returned as is.
func ParseConfig(args []string, getenv func(string) string, usage io.Writer) (Config, error) {
	cfg := DefaultConfig()
	fv := cfg

	flagSet := flag.NewFlagSet("intuition_piano", flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	flagSet.StringVar(&fv.ConfigFile, "config", "", "Lua configuration file")
	flagSet.IntVar(&fv.SampleRate, "rate", fv.SampleRate, "Sample rate in Hz")
	flagSet.IntVar(&fv.BufferSamples, "buffer", fv.BufferSamples, "Audio buffer size in samples")
	flagSet.IntVar(&fv.OctaveOffset, "octave", fv.OctaveOffset, "Key number of the lowest key (40 = C4)")
	flagSet.StringVar(&fv.RecordDir, "record-dir", fv.RecordDir, "Directory for recordings")
	flagSet.StringVar(&fv.MetricsAddr, "metrics-addr", fv.MetricsAddr, "Serve Prometheus metrics on this address")
	flagSet.DurationVar(&fv.Hold, "hold", fv.Hold, "Note length for terminal key presses")
	flagSet.StringVar(&fv.AudioBackend, "audio", fv.AudioBackend, "Audio backend: oto or null")
	flagSet.BoolVar(&fv.Terminal, "terminal", false, "Play from the terminal instead of a window")
	flagSet.BoolVar(&fv.Record, "record", false, "Start recording immediately")
	flagSet.StringVar(&fv.Play, "play", "", "Play a score such as c500d250e1000, then exit")
	flagSet.StringVar(&fv.Render, "render", "", "With -play: render the score to this WAV file")
	flagSet.BoolVar(&fv.Debug, "debug", false, "Verbose development logging")
	flagSet.BoolVar(&fv.LogJSON, "log-json", fv.LogJSON, "JSON log output")
	flagSet.BoolVar(&fv.Features, "features", false, "Print version and compiled features, then exit")

	flagSet.Usage = func() {
		flagSet.SetOutput(usage)
		fmt.Fprintln(usage, "Usage: ./intuition_piano [-terminal] [-record] [-config piano.lua] [-play score [-render out.wav]]")
		flagSet.PrintDefaults()
	}

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return cfg, flag.ErrHelp
		}
		return cfg, &ConfigError{Source: "flag", Key: "args", Details: "parse failed", Err: err}
	}
	if flagSet.NArg() > 0 {
		return cfg, &ConfigError{Source: "flag", Key: "args", Details: fmt.Sprintf("unexpected argument %q", flagSet.Arg(0))}
	}

	if fv.ConfigFile != "" {
		cfg.ConfigFile = fv.ConfigFile
		if err := LoadLuaConfig(&cfg, fv.ConfigFile); err != nil {
			return cfg, err
		}
	}
	if err := applyEnv(&cfg, getenv); err != nil {
		return cfg, err
	}

	flagSet.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "rate":
			cfg.SampleRate = fv.SampleRate
		case "buffer":
			cfg.BufferSamples = fv.BufferSamples
		case "octave":
			cfg.OctaveOffset = fv.OctaveOffset
		case "record-dir":
			cfg.RecordDir = fv.RecordDir
		case "metrics-addr":
			cfg.MetricsAddr = fv.MetricsAddr
		case "hold":
			cfg.Hold = fv.Hold
		case "audio":
			cfg.AudioBackend = fv.AudioBackend
		case "log-json":
			cfg.LogJSON = fv.LogJSON
		}
	})
	cfg.Terminal = fv.Terminal
	cfg.Record = fv.Record
	cfg.Play = fv.Play
	cfg.Render = fv.Render
	cfg.Debug = fv.Debug
	cfg.Features = fv.Features

	return cfg, cfg.Validate()
}

func applyEnv(cfg *Config, getenv func(string) string) error {
	if getenv == nil {
		return nil
	}
	cfg.RecordDir = envStr(getenv, "PIANO_RECORD_DIR", cfg.RecordDir)
	cfg.MetricsAddr = envStr(getenv, "PIANO_METRICS_ADDR", cfg.MetricsAddr)
	rate, err := envInt(getenv, "PIANO_SAMPLE_RATE", cfg.SampleRate)
	if err != nil {
		return &ConfigError{Source: "env", Key: "PIANO_SAMPLE_RATE", Details: "not an integer", Err: err}
	}
	cfg.SampleRate = rate
	return nil
}

func envStr(getenv func(string) string, key, fallback string) string {
	if v := getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(getenv func(string) string, key string, fallback int) (int, error) {
	v := getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}

// Validate checks ranges and the key overrides.
func (c Config) Validate() error {
	switch {
	case c.SampleRate < MIN_SAMPLE_RATE || c.SampleRate > MAX_SAMPLE_RATE:
		return &ConfigError{Source: "config", Key: "sample_rate", Details: fmt.Sprintf("%d outside %d-%d", c.SampleRate, MIN_SAMPLE_RATE, MAX_SAMPLE_RATE)}
	case c.BufferSamples <= 0 || c.BufferSamples > 1<<16:
		return &ConfigError{Source: "config", Key: "buffer_samples", Details: fmt.Sprintf("%d outside 1-%d", c.BufferSamples, 1<<16)}
	case c.Hold <= 0:
		return &ConfigError{Source: "config", Key: "hold_ms", Details: "must be positive"}
	case c.AudioBackend != AUDIO_BACKEND_OTO && c.AudioBackend != AUDIO_BACKEND_NULL:
		return &ConfigError{Source: "config", Key: "audio", Details: fmt.Sprintf("unknown backend %q", c.AudioBackend)}
	case c.Render != "" && c.Play == "":
		return &ConfigError{Source: "flag", Key: "render", Details: "requires -play"}
	}
	if _, err := c.KeyMap(); err != nil {
		return &ConfigError{Source: "config", Key: "keys", Details: "bad binding", Err: err}
	}
	return nil
}

// KeyMap returns the default layout with the configured overrides applied.
func (c Config) KeyMap() (*KeyMap, error) {
	km := DefaultKeyMap()
	if err := km.Apply(c.Keys); err != nil {
		return nil, err
	}
	return km, nil
}

// LoadLuaConfig evaluates path and merges its global piano table into cfg.
func LoadLuaConfig(cfg *Config, path string) error {
	return loadLua(cfg, path, func(L *lua.LState) error { return L.DoFile(path) })
}

// LoadLuaConfigString is LoadLuaConfig for an in-memory chunk.
func LoadLuaConfigString(cfg *Config, name, src string) error {
	return loadLua(cfg, name, func(L *lua.LState) error { return L.DoString(src) })
}

func loadLua(cfg *Config, source string, run func(*lua.LState) error) error {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	defer L.Close()

	for _, lib := range []struct {
		name string
		open lua.LGFunction
	}{
		{lua.BaseLibName, lua.OpenBase},
		{lua.MathLibName, lua.OpenMath},
		{lua.StringLibName, lua.OpenString},
		{lua.TabLibName, lua.OpenTable},
	} {
		if err := L.CallByParam(lua.P{Fn: L.NewFunction(lib.open), NRet: 0, Protect: true}, lua.LString(lib.name)); err != nil {
			return &ConfigError{Source: source, Key: lib.name, Details: "lua library setup failed", Err: err}
		}
	}
	// No file access from config
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring"} {
		L.SetGlobal(name, lua.LNil)
	}

	ctx, cancel := context.WithTimeout(context.Background(), luaConfigTimeout)
	defer cancel()
	L.SetContext(ctx)

	if err := run(L); err != nil {
		return &ConfigError{Source: source, Key: "chunk", Details: "evaluation failed", Err: err}
	}

	tbl, ok := L.GetGlobal("piano").(*lua.LTable)
	if !ok {
		return &ConfigError{Source: source, Key: "piano", Details: "global table not defined"}
	}
	return mergeLuaTable(cfg, source, tbl)
}

func mergeLuaTable(cfg *Config, source string, tbl *lua.LTable) error {
	ints := []struct {
		key string
		dst *int
	}{
		{"sample_rate", &cfg.SampleRate},
		{"buffer_samples", &cfg.BufferSamples},
		{"octave_offset", &cfg.OctaveOffset},
	}
	for _, f := range ints {
		n, ok, err := luaInt(tbl.RawGetString(f.key))
		if err != nil {
			return &ConfigError{Source: source, Key: f.key, Details: err.Error()}
		}
		if ok {
			*f.dst = n
		}
	}

	hold, ok, err := luaInt(tbl.RawGetString("hold_ms"))
	if err != nil {
		return &ConfigError{Source: source, Key: "hold_ms", Details: err.Error()}
	}
	if ok {
		cfg.Hold = time.Duration(hold) * time.Millisecond
	}

	strs := []struct {
		key string
		dst *string
	}{
		{"record_dir", &cfg.RecordDir},
		{"metrics_addr", &cfg.MetricsAddr},
		{"audio", &cfg.AudioBackend},
	}
	for _, f := range strs {
		switch v := tbl.RawGetString(f.key).(type) {
		case *lua.LNilType:
		case lua.LString:
			*f.dst = string(v)
		default:
			return &ConfigError{Source: source, Key: f.key, Details: fmt.Sprintf("expected string, got %s", v.Type())}
		}
	}

	switch keys := tbl.RawGetString("keys").(type) {
	case *lua.LNilType:
	case *lua.LTable:
		overrides := map[string]string{}
		var kerr error
		keys.ForEach(func(k, v lua.LValue) {
			if kerr != nil {
				return
			}
			name, ok := k.(lua.LString)
			if !ok {
				kerr = fmt.Errorf("key names must be strings, got %s", k.Type())
				return
			}
			switch b := v.(type) {
			case lua.LNumber:
				overrides[string(name)] = fmt.Sprintf("note:%d", int(b))
			case lua.LString:
				overrides[string(name)] = string(b)
			default:
				kerr = fmt.Errorf("key %q: expected note index or action name, got %s", string(name), v.Type())
			}
		})
		if kerr != nil {
			return &ConfigError{Source: source, Key: "keys", Details: kerr.Error()}
		}
		if cfg.Keys == nil {
			cfg.Keys = map[string]string{}
		}
		maps.Copy(cfg.Keys, overrides)
	default:
		return &ConfigError{Source: source, Key: "keys", Details: fmt.Sprintf("expected table, got %s", keys.Type())}
	}
	return nil
}

func luaInt(v lua.LValue) (int, bool, error) {
	switch n := v.(type) {
	case *lua.LNilType:
		return 0, false, nil
	case lua.LNumber:
		f := float64(n)
		if f != float64(int(f)) {
			return 0, false, fmt.Errorf("expected integer, got %s", strings.TrimSpace(n.String()))
		}
		return int(f), true, nil
	}
	return 0, false, fmt.Errorf("expected number, got %s", v.Type())
}
