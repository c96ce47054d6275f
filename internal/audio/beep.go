//go:build !nosound && ((linux && cgo) || windows || darwin)

package audio

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytplay/internal/events"
	"github.com/desertthunder/ytplay/internal/shared"
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
)

// Available reports whether this build can produce sound.
const Available = true

const (
	outputRate     = beep.SampleRate(44100)
	tickerInterval = 250 * time.Millisecond
)

// BeepEngine decodes MP3 streams and plays them through the system speaker.
type BeepEngine struct {
	source   Source
	logger   *log.Logger
	registry *Registry

	initOnce sync.Once
	initErr  error

	mu        sync.Mutex
	started   bool
	suspended bool
}

// NewEngine returns the speaker-backed engine.
func NewEngine(source Source, logger *log.Logger) Engine {
	if logger == nil {
		logger = log.New(nopWriter{})
	}
	return &BeepEngine{source: source, logger: logger, registry: NewRegistry()}
}

func (e *BeepEngine) NewHandle(src string) Handle {
	h := &beepHandle{
		src:    src,
		engine: e,
		bus:    events.New(e.logger),
		volume: 1,
		paused: true,
	}
	e.registry.Add(h)
	return h
}

func (e *BeepEngine) PauseAll() {
	e.registry.PauseAll()
}

func (e *BeepEngine) Suspend() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.started || e.suspended {
		return nil
	}
	if err := speaker.Suspend(); err != nil {
		return fmt.Errorf("suspend speaker: %w", err)
	}
	e.suspended = true
	return nil
}

// ready initialises the speaker once and resumes it after a Suspend.
func (e *BeepEngine) ready() error {
	e.initOnce.Do(func() {
		e.initErr = speaker.Init(outputRate, outputRate.N(time.Second/10))
		if e.initErr == nil {
			e.mu.Lock()
			e.started = true
			e.mu.Unlock()
		}
	})
	if e.initErr != nil {
		return fmt.Errorf("%w: %v", shared.ErrAudioUnavailable, e.initErr)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.suspended {
		if err := speaker.Resume(); err != nil {
			return fmt.Errorf("resume speaker: %w", err)
		}
		e.suspended = false
	}
	return nil
}

type beepHandle struct {
	src    string
	engine *BeepEngine
	bus    *events.Bus

	mu       sync.Mutex
	streamer beep.StreamSeekCloser
	format   beep.Format
	ctrl     *beep.Ctrl
	gain     *effects.Volume
	volume   float64
	paused   bool
	closed   bool
	ended    bool
	stopTick chan struct{}
	// loading is closed when the load in flight finishes.
	loading chan struct{}
}

func (h *beepHandle) Src() string         { return h.src }
func (h *beepHandle) Events() *events.Bus { return h.bus }

func (h *beepHandle) Play(ctx context.Context) error {
	if err := h.engine.ready(); err != nil {
		return err
	}
	if err := h.ensureLoaded(ctx); err != nil {
		return err
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return shared.ErrHandleClosed
	}
	if !h.paused {
		h.mu.Unlock()
		return nil
	}
	if h.ended {
		speaker.Lock()
		err := h.streamer.Seek(0)
		speaker.Unlock()
		if err != nil {
			h.mu.Unlock()
			return fmt.Errorf("%w: rewind: %v", shared.ErrStreamFailed, err)
		}
		h.ended = false
		speaker.Play(beep.Seq(h.gain, beep.Callback(h.onEnded)))
	}
	speaker.Lock()
	h.ctrl.Paused = false
	speaker.Unlock()
	h.paused = false
	h.startTicker()
	h.mu.Unlock()

	h.bus.Emit(EventPlay, nil)
	return nil
}

// ensureLoaded loads the stream once. Callers arriving during a load wait for it instead of
// starting their own.
func (h *beepHandle) ensureLoaded(ctx context.Context) error {
	for {
		h.mu.Lock()
		if h.closed {
			h.mu.Unlock()
			return shared.ErrHandleClosed
		}
		if h.streamer != nil {
			h.mu.Unlock()
			return nil
		}
		if wait := h.loading; wait != nil {
			h.mu.Unlock()
			select {
			case <-wait:
				continue
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		done := make(chan struct{})
		h.loading = done
		h.mu.Unlock()

		err := h.load(ctx)

		h.mu.Lock()
		h.loading = nil
		h.mu.Unlock()
		close(done)
		return err
	}
}

// load fetches and decodes the stream and queues it, paused, on the speaker.
func (h *beepHandle) load(ctx context.Context) error {
	data, err := h.engine.source.Fetch(ctx, h.src)
	if err != nil {
		return err
	}

	streamer, format, err := mp3.Decode(seekCloser{bytes.NewReader(data)})
	if err != nil {
		return fmt.Errorf("%w: decode: %v", shared.ErrStreamFailed, err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		streamer.Close()
		return shared.ErrHandleClosed
	}

	h.streamer = streamer
	h.format = format
	h.ctrl = &beep.Ctrl{Streamer: beep.Resample(4, format.SampleRate, outputRate, streamer), Paused: true}
	h.gain = &effects.Volume{Streamer: h.ctrl, Base: 2}
	h.applyGainLocked()
	speaker.Play(beep.Seq(h.gain, beep.Callback(h.onEnded)))
	return nil
}

// onEnded runs on the speaker goroutine with the speaker locked.
func (h *beepHandle) onEnded() {
	go func() {
		h.mu.Lock()
		if h.closed {
			h.mu.Unlock()
			return
		}
		h.paused = true
		h.ended = true
		h.stopTickerLocked()
		var streamErr error
		if h.streamer != nil {
			streamErr = h.streamer.Err()
		}
		h.mu.Unlock()

		if streamErr != nil {
			h.bus.Emit(EventError, fmt.Errorf("%w: %v", shared.ErrStreamFailed, streamErr))
			return
		}
		h.bus.Emit(EventEnded, nil)
	}()
}

func (h *beepHandle) Pause() {
	h.mu.Lock()
	if h.paused || h.ctrl == nil {
		h.paused = true
		h.mu.Unlock()
		return
	}
	speaker.Lock()
	h.ctrl.Paused = true
	speaker.Unlock()
	h.paused = true
	h.stopTickerLocked()
	h.mu.Unlock()

	h.bus.Emit(EventPause, nil)
}

func (h *beepHandle) Paused() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.paused
}

func (h *beepHandle) CurrentTime() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.positionLocked()
}

func (h *beepHandle) positionLocked() float64 {
	if h.streamer == nil {
		return 0
	}
	speaker.Lock()
	pos := h.streamer.Position()
	speaker.Unlock()
	return h.format.SampleRate.D(pos).Seconds()
}

func (h *beepHandle) SetCurrentTime(seconds float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.streamer == nil || math.IsNaN(seconds) {
		return
	}
	n := h.format.SampleRate.N(time.Duration(seconds * float64(time.Second)))
	n = max(0, min(n, h.streamer.Len()))
	speaker.Lock()
	err := h.streamer.Seek(n)
	speaker.Unlock()
	if err != nil {
		h.engine.logger.Warn("seek failed", "src", h.src, "error", err)
	}
}

func (h *beepHandle) Duration() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.streamer == nil {
		return 0
	}
	return h.format.SampleRate.D(h.streamer.Len()).Seconds()
}

func (h *beepHandle) Volume() float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.volume
}

func (h *beepHandle) SetVolume(v float64) {
	h.mu.Lock()
	h.volume = v
	h.applyGainLocked()
	h.mu.Unlock()

	h.bus.Emit(EventVolumeChange, v)
}

// applyGainLocked maps the linear volume onto the logarithmic gain of effects.Volume.
func (h *beepHandle) applyGainLocked() {
	if h.gain == nil {
		return
	}
	speaker.Lock()
	defer speaker.Unlock()
	h.gain.Silent = h.volume <= 0
	if h.volume > 0 {
		h.gain.Volume = math.Log2(h.volume)
	}
}

func (h *beepHandle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true
	h.paused = true
	h.stopTickerLocked()
	h.engine.registry.Remove(h)

	if h.ctrl != nil {
		speaker.Lock()
		h.ctrl.Paused = true
		h.ctrl.Streamer = nil
		speaker.Unlock()
	}
	if h.streamer != nil {
		err := h.streamer.Close()
		h.streamer = nil
		return err
	}
	return nil
}

func (h *beepHandle) startTicker() {
	if h.stopTick != nil {
		return
	}
	stop := make(chan struct{})
	h.stopTick = stop

	go func() {
		ticker := time.NewTicker(tickerInterval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				h.mu.Lock()
				if h.streamer == nil {
					h.mu.Unlock()
					return
				}
				update := TimeUpdate{
					Position: h.positionLocked(),
					Duration: h.format.SampleRate.D(h.streamer.Len()).Seconds(),
				}
				h.mu.Unlock()
				h.bus.Emit(EventTimeUpdate, update)
			}
		}
	}()
}

func (h *beepHandle) stopTickerLocked() {
	if h.stopTick != nil {
		close(h.stopTick)
		h.stopTick = nil
	}
}

// seekCloser keeps [bytes.Reader]'s Seek visible to the decoder so it can report a length.
type seekCloser struct {
	*bytes.Reader
}

func (seekCloser) Close() error { return nil }

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }
