//go:build headless

// audio_backend_headless.go - Device-free output that pulls the engine in real time

package main

import (
	"sync"
	"time"
)

// OtoPlayer without a device. Buffers are still pulled at the playback rate
// so recordings made under the headless build have the right length.
type OtoPlayer struct {
	sampleRate int
	chunk      int // Samples per pull
	engine     *AudioEngine
	started    bool
	stop       chan struct{}
	done       chan struct{}
	mutex      sync.Mutex
}

func init() {
	compiledFeatures = append(compiledFeatures, "audio:headless")
}

func NewOtoPlayer(sampleRate, bufferSamples int) (*OtoPlayer, error) {
	return &OtoPlayer{sampleRate: sampleRate, chunk: max(bufferSamples/4, 1)}, nil
}

func (op *OtoPlayer) SetupPlayer(engine *AudioEngine) {
	op.mutex.Lock()
	defer op.mutex.Unlock()
	op.engine = engine
}

func (op *OtoPlayer) Read(p []byte) (n int, err error) {
	op.mutex.Lock()
	engine := op.engine
	op.mutex.Unlock()
	if engine == nil {
		clear(p)
		return len(p), nil
	}
	return engine.Read(p)
}

func (op *OtoPlayer) Start() {
	op.mutex.Lock()
	defer op.mutex.Unlock()
	if op.started {
		return
	}
	op.started = true
	op.stop = make(chan struct{})
	op.done = make(chan struct{})
	go op.pump(op.stop, op.done)
}

func (op *OtoPlayer) pump(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	buf := make([]byte, op.chunk*2)
	ticker := time.NewTicker(time.Duration(op.chunk) * time.Second / time.Duration(op.sampleRate))
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			_, _ = op.Read(buf)
		}
	}
}

func (op *OtoPlayer) Stop() {
	op.mutex.Lock()
	if !op.started {
		op.mutex.Unlock()
		return
	}
	op.started = false
	close(op.stop)
	done := op.done
	op.mutex.Unlock()
	<-done
}

func (op *OtoPlayer) Close() error {
	op.Stop()
	return nil
}

func (op *OtoPlayer) IsStarted() bool {
	op.mutex.Lock()
	defer op.mutex.Unlock()
	return op.started
}

func (op *OtoPlayer) Err() error { return nil }
