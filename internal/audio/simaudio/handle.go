// Package simaudio provides a silent, clock-driven audio.Handle.
//
// It behaves like a real output (position advances with wall time, tracks end,
// time updates fire on an interval) without touching a sound device, which
// makes it useful on headless hosts and for exercising the daemon end to end.
package simaudio

import (
	"os"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/isaibox/internal/audio"
)

// Settings configures the simulated backend.
type Settings struct {
	TrackLength  time.Duration `mapstructure:"track_length" default:"3m" validate:"gt=0"`
	StartLatency time.Duration `mapstructure:"start_latency" validate:"gte=0"`
	CheckFiles   bool          `mapstructure:"check_files"`
}

// Handle simulates one playback resource.
type Handle struct {
	mu sync.Mutex

	name     string
	settings Settings
	interval time.Duration
	listener audio.Listener

	source  string
	loadErr error
	playing bool
	offset  time.Duration // position when playback last (re)started
	started time.Time
	gen     uint64 // bumped on every pause/load/close to stop stale goroutines
	closed  bool
}

// New creates a simulated handle emitting time updates every interval.
func New(name string, settings Settings, interval time.Duration) *Handle {
	return &Handle{
		name:     name,
		settings: settings,
		interval: interval,
		listener: audio.NopListener{},
	}
}

// Load implements audio.Handle.
func (h *Handle) Load(path string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return audio.ErrUnavailable
	}

	h.gen++
	h.playing = false
	h.offset = 0
	h.source = path
	h.loadErr = nil

	if h.settings.CheckFiles {
		if _, err := os.Stat(path); err != nil {
			h.loadErr = errors.Mark(errors.Wrapf(err, "sim: stat %s", path), audio.ErrLoadFailure)
		}
	}
	zlog.Debug().Msgf("simaudio: %s loaded %s", h.name, path)
	return nil
}

// Play implements audio.Handle.
func (h *Handle) Play() <-chan error {
	h.mu.Lock()
	defer h.mu.Unlock()

	switch {
	case h.closed:
		return audio.Resolved(audio.ErrUnavailable)
	case h.source == "":
		return audio.Resolved(audio.ErrNoSource)
	case h.loadErr != nil:
		return audio.Resolved(h.loadErr)
	case h.playing:
		return audio.Resolved(nil)
	}

	h.gen++
	gen := h.gen
	outcome := make(chan error, 1)

	go func() {
		if h.settings.StartLatency > 0 {
			time.Sleep(h.settings.StartLatency)
		}

		h.mu.Lock()
		if h.gen != gen {
			h.mu.Unlock()
			outcome <- audio.ErrAborted
			return
		}
		h.playing = true
		h.started = time.Now()
		h.mu.Unlock()

		outcome <- nil
		h.run(gen)
	}()

	return outcome
}

// run emits time updates until the track ends or gen changes.
func (h *Handle) run(gen uint64) {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for range ticker.C {
		h.mu.Lock()
		if h.gen != gen || !h.playing {
			h.mu.Unlock()
			return
		}
		pos := h.positionLocked()
		ended := pos >= h.settings.TrackLength
		if ended {
			h.playing = false
			h.offset = h.settings.TrackLength
		}
		l := h.listener
		h.mu.Unlock()

		if ended {
			l.OnEnded()
			return
		}
		l.OnTimeUpdate(pos)
	}
}

// Pause implements audio.Handle.
func (h *Handle) Pause() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.gen++
	if h.playing {
		h.offset = h.positionLocked()
		h.playing = false
	}
}

// Suspend pauses the handle the way a host suspending audio would,
// notifying the listener.
func (h *Handle) Suspend() {
	h.mu.Lock()
	wasPlaying := h.playing
	h.gen++
	if wasPlaying {
		h.offset = h.positionLocked()
		h.playing = false
	}
	l := h.listener
	h.mu.Unlock()

	if wasPlaying {
		l.OnExternalPause()
	}
}

// Seek implements audio.Handle.
func (h *Handle) Seek(pos time.Duration) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.source == "" {
		return audio.ErrNoSource
	}
	if pos < 0 {
		pos = 0
	}
	if pos > h.settings.TrackLength {
		pos = h.settings.TrackLength
	}
	h.offset = pos
	h.started = time.Now()
	return nil
}

// Position implements audio.Handle.
func (h *Handle) Position() time.Duration {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.positionLocked()
}

func (h *Handle) positionLocked() time.Duration {
	if !h.playing {
		return h.offset
	}
	pos := h.offset + time.Since(h.started)
	if pos > h.settings.TrackLength {
		return h.settings.TrackLength
	}
	return pos
}

// Paused implements audio.Handle.
func (h *Handle) Paused() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return !h.playing
}

// SetListener implements audio.Handle.
func (h *Handle) SetListener(l audio.Listener) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.listener = l
}

// Close implements audio.Handle.
func (h *Handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.gen++
	h.playing = false
	h.closed = true
	return nil
}
