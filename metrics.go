// metrics.go - Prometheus instrumentation and /metrics endpoint

package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Counters
var (
	AudioCallbacksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ie_piano_audio_callbacks_total",
		Help: "Audio buffer fills requested by the device",
	})
	AudioSamplesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ie_piano_audio_samples_total",
		Help: "Samples generated by the oscillator",
	})
	AudioOverrunsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ie_piano_audio_overruns_total",
		Help: "Buffer fills that took longer than the buffer's playback time",
	})
	RecordingsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ie_piano_recordings_total",
		Help: "Recording attempts by outcome",
	}, []string{"outcome"})
	RecordedSamplesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ie_piano_recorded_samples_total",
		Help: "Samples written to recording sinks",
	})
	NotesPressedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ie_piano_notes_pressed_total",
		Help: "Note key presses",
	})
)

// Gauges
var (
	RecordingActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ie_piano_recording_active",
		Help: "1 while a recording session is open",
	})
	SoundingFrequency = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ie_piano_frequency_hz",
		Help: "Frequency of the sounding key, 0 when silent",
	})
)

// Histograms
var (
	AudioCallbackSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "ie_piano_audio_callback_seconds",
		Help:    "Time spent filling one device buffer",
		Buckets: []float64{0.00005, 0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025},
	})
)

// ServeMetrics exposes /metrics on addr until ctx is cancelled.
func ServeMetrics(ctx context.Context, addr string, logger *zap.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("metrics listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
