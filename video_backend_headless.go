//go:build headless

// video_backend_headless.go - Window stub for builds without a display

package main

import (
	"context"

	"go.uber.org/zap"
)

func init() {
	compiledFeatures = append(compiledFeatures, "window:none")
}

// headlessWindow has no input; it only waits for quit.
type headlessWindow struct {
	piano  *Piano
	logger *zap.Logger
}

func NewPianoWindow(piano *Piano, logger *zap.Logger) (Frontend, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &headlessWindow{piano: piano, logger: logger}, nil
}

func (h *headlessWindow) Run(ctx context.Context) error {
	h.logger.Info("headless build: no window, use -terminal or -play for input")
	select {
	case <-ctx.Done():
	case <-h.piano.Done():
	}
	return nil
}
