// main.go - Intuition Piano entry point

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
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func boilerPlate() {
	fmt.Println("\n\033[38;2;255;20;147m ██▓ ███▄    █ ▄▄▄█████▓ █    ██  ██▓▄▄▄█████▓ ██▓ ▒█████   ███▄    █    ▓█████  ███▄    █   ▄████  ██▓ ███▄    █ ▓█████\033[0m\n\033[38;2;255;50;147m▓██▒ ██ ▀█   █ ▓  ██▒ ▓▒ ██  ▓██▒▓██▒▓  ██▒ ▓▒▓██▒▒██▒  ██▒ ██ ▀█   █    ▓█   ▀  ██ ▀█   █  ██▒ ▀█▒▓██▒ ██ ▀█   █ ▓█   ▀\033[0m\n\033[38;2;255;80;147m▒██▒▓██  ▀█ ██▒▒ ▓██░ ▒░▓██  ▒██░▒██▒▒ ▓██░ ▒░▒██▒▒██░  ██▒▓██  ▀█ ██▒   ▒███   ▓██  ▀█ ██▒▒██░▄▄▄░▒██▒▓██  ▀█ ██▒▒███\033[0m\n\033[38;2;255;110;147m░██░▓██▒  ▐▌██▒░ ▓██▓ ░ ▓▓█  ░██░░██░░ ▓██▓ ░ ░██░▒██   ██░▓██▒  ▐▌██▒   ▒▓█  ▄ ▓██▒  ▐▌██▒░▓█  ██▓░██░▓██▒  ▐▌██▒▒▓█  ▄\033[0m\n\033[38;2;255;140;147m░██░▒██░   ▓██░  ▒██▒ ░ ▒▒█████▓ ░██░  ▒██▒ ░ ░██░░ ████▓▒░▒██░   ▓██░   ░▒████▒▒██░   ▓██░░▒▓███▀▒░██░▒██░   ▓██░░▒████▒\033[0m\n\033[38;2;255;170;147m░▓  ░ ▒░   ▒ ▒   ▒ ░░   ░▒▓▒ ▒ ▒ ░▓    ▒ ░░   ░▓  ░ ▒░▒░▒░ ░ ▒░   ▒ ▒    ░░ ▒░ ░░ ▒░   ▒ ▒  ░▒   ▒ ░▓  ░ ▒░   ▒ ▒ ░░ ▒░ ░\033[0m\n\033[38;2;255;200;147m ▒ ░░ ░░   ░ ▒░    ░    ░░▒░ ░ ░  ▒ ░    ░     ▒ ░  ░ ▒ ▒░ ░ ░░   ░ ▒░    ░ ░  ░░ ░░   ░ ▒░  ░   ░  ▒ ░░ ░░   ░ ▒░ ░ ░  ░\033[0m\n\033[38;2;255;230;147m ▒ ░   ░   ░ ░   ░       ░░░ ░ ░  ▒ ░  ░       ▒ ░░ ░ ░ ▒     ░   ░ ░       ░      ░   ░ ░ ░ ░   ░  ▒ ░   ░   ░ ░    ░\033[0m\n\033[38;2;255;255;147m ░           ░             ░      ░            ░      ░ ░           ░       ░  ░         ░       ░  ░           ░    ░  ░\033[0m")
	fmt.Println("\nIntuition Piano: a one-octave monophonic keyboard synthesizer with WAV capture.")
	fmt.Println("(c) 2024 - 2026 Zayn Otley")
	fmt.Println("https://github.com/IntuitionAmiga/IntuitionEngine")
	fmt.Println("Buy me a coffee: https://ko-fi.com/intuition/tip")
	fmt.Println("License: GPLv3 or later")
}

func main() {
	boilerPlate()

	cfg, err := ParseConfig(os.Args[1:], os.Getenv, os.Stdout)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	if cfg.Features {
		printFeatures(os.Stdout)
		return
	}

	logger, err := newLogger(cfg.Debug, cfg.LogJSON)
	if err != nil {
		fmt.Printf("Failed to initialize logging: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Render != "" {
		if err := renderScoreFile(cfg, logger); err != nil {
			logger.Fatal("render failed", zap.Error(err))
		}
		return
	}
	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("piano stopped", zap.Error(err))
	}
}

// run owns the live session: device, frontend and background workers.
func run(ctx context.Context, cfg Config, logger *zap.Logger) error {
	format := DefaultWavFormat(cfg.SampleRate)
	keymap, err := cfg.KeyMap()
	if err != nil {
		return err
	}

	playing := cfg.Play != ""
	var events []ScoreEvent
	if playing {
		if events, err = ParseScore(cfg.Play); err != nil {
			return err
		}
	}

	keys := NewKeyState(cfg.OctaveOffset)
	recorder := NewRecorder(cfg.RecordDir, logger.Named("recorder"))
	engine := NewAudioEngine(keys, recorder, cfg.SampleRate)
	piano := NewPiano(keys, keymap, recorder, format, logger.Named("piano"))

	output, err := NewAudioOutput(cfg.AudioBackend, cfg.SampleRate, cfg.BufferSamples, engine)
	if err != nil {
		return err
	}
	output.Start()
	logger.Info("audio started",
		zap.String("backend", cfg.AudioBackend),
		zap.Int("sample_rate", cfg.SampleRate),
		zap.Int("buffer_samples", cfg.BufferSamples),
		zap.String("base_note", NoteName(cfg.OctaveOffset)),
	)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(runCtx)

	if cfg.MetricsAddr != "" {
		g.Go(func() error {
			return ServeMetrics(gctx, cfg.MetricsAddr, logger.Named("metrics"))
		})
	}
	g.Go(func() error {
		return watchAudioOutput(gctx, output)
	})
	if playing {
		g.Go(func() error {
			defer piano.Quit()
			err := piano.PlayScore(gctx, events)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}
	if cfg.Record {
		if err := piano.ToggleRecording(); err != nil {
			cancel()
			_ = g.Wait()
			_ = output.Close()
			return err
		}
	}

	var frontErr error
	switch {
	case playing:
		select {
		case <-gctx.Done():
		case <-piano.Done():
		}
	case cfg.Terminal:
		frontErr = NewTerminalHost(piano, cfg.Hold, os.Stdout, logger.Named("terminal")).Run(gctx)
	default:
		window, err := NewPianoWindow(piano, logger.Named("window"))
		if err != nil {
			frontErr = err
			break
		}
		frontErr = window.Run(gctx)
	}

	piano.Quit()
	cancel()
	groupErr := g.Wait()

	var recErr error
	if summary, err := piano.StopRecording(); err == nil {
		logger.Info("recording saved on exit",
			zap.String("path", summary.Path),
			zap.Uint32("samples", summary.Samples),
		)
	} else if !errors.Is(err, ErrNotRecording) {
		recErr = err
	}

	output.Stop()
	closeErr := output.Close()
	logger.Info("piano stopped")
	return errors.Join(ignoreCanceled(frontErr), ignoreCanceled(groupErr), recErr, closeErr)
}

// watchAudioOutput turns an asynchronous device failure into a run error.
func watchAudioOutput(ctx context.Context, output AudioOutput) error {
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := output.Err(); err != nil {
				return err
			}
		}
	}
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// renderScoreFile writes -play to -render offline, without a device.
func renderScoreFile(cfg Config, logger *zap.Logger) error {
	events, err := ParseScore(cfg.Play)
	if err != nil {
		return err
	}
	f, err := os.Create(cfg.Render)
	if err != nil {
		return fmt.Errorf("create %s: %w", cfg.Render, err)
	}
	n, err := RenderScore(events, DefaultWavFormat(cfg.SampleRate), cfg.OctaveOffset, f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("render %s: %w", cfg.Render, err)
	}
	logger.Info("score rendered",
		zap.String("path", cfg.Render),
		zap.Int("events", len(events)),
		zap.Uint32("samples", n),
		zap.Duration("length", time.Duration(n)*time.Second/time.Duration(cfg.SampleRate)),
	)
	return nil
}
