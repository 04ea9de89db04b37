// Package audiotest provides an in-memory audio.Handle for tests.
package audiotest

import (
	"sync"
	"time"

	"github.com/osa030/isaibox/internal/audio"
)

// Handle is a scriptable fake. Play outcomes resolve immediately unless
// Manual is set, in which case the test resolves them with Resolve.
type Handle struct {
	mu sync.Mutex

	Name   string
	Manual bool

	source   string
	paused   bool
	position time.Duration
	listener audio.Listener

	playErr  error
	loadErrs map[string]error
	pending  []chan error

	loads  []string
	plays  int
	pauses int
	closed bool
}

// New creates a paused fake handle.
func New(name string) *Handle {
	return &Handle{
		Name:     name,
		paused:   true,
		listener: audio.NopListener{},
		loadErrs: make(map[string]error),
	}
}

// FailPlay makes subsequent Play calls resolve with err (nil to clear).
func (h *Handle) FailPlay(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.playErr = err
}

// FailLoad makes Load(path) return err (nil to clear).
func (h *Handle) FailLoad(path string, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err == nil {
		delete(h.loadErrs, path)
		return
	}
	h.loadErrs[path] = err
}

// Load implements audio.Handle.
func (h *Handle) Load(path string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.loads = append(h.loads, path)
	if err, ok := h.loadErrs[path]; ok {
		h.source = ""
		return err
	}
	h.abortPendingLocked()
	h.source = path
	h.paused = true
	h.position = 0
	return nil
}

// Play implements audio.Handle.
func (h *Handle) Play() <-chan error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.plays++
	ch := make(chan error, 1)
	if h.Manual {
		h.pending = append(h.pending, ch)
		return ch
	}
	h.resolveLocked(ch, h.playErr)
	return ch
}

// Resolve settles the oldest pending Play with err. It returns false when
// nothing is pending.
func (h *Handle) Resolve(err error) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.pending) == 0 {
		return false
	}
	ch := h.pending[0]
	h.pending = h.pending[1:]
	h.resolveLocked(ch, err)
	return true
}

func (h *Handle) resolveLocked(ch chan error, err error) {
	if err == nil && h.source == "" {
		err = audio.ErrNoSource
	}
	if err == nil {
		h.paused = false
	}
	ch <- err
}

// Pause implements audio.Handle.
func (h *Handle) Pause() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.pauses++
	h.paused = true
	h.abortPendingLocked()
}

func (h *Handle) abortPendingLocked() {
	for _, ch := range h.pending {
		ch <- audio.ErrAborted
	}
	h.pending = nil
}

// Seek implements audio.Handle.
func (h *Handle) Seek(pos time.Duration) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.source == "" {
		return audio.ErrNoSource
	}
	h.position = pos
	return nil
}

// Position implements audio.Handle.
func (h *Handle) Position() time.Duration {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.position
}

// Paused implements audio.Handle.
func (h *Handle) Paused() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.paused
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
	h.closed = true
	h.abortPendingLocked()
	return nil
}

// Tick sets the position and emits a time update.
func (h *Handle) Tick(pos time.Duration) {
	h.mu.Lock()
	h.position = pos
	l := h.listener
	h.mu.Unlock()

	l.OnTimeUpdate(pos)
}

// End emits an ended notification.
func (h *Handle) End() {
	h.mu.Lock()
	h.paused = true
	l := h.listener
	h.mu.Unlock()

	l.OnEnded()
}

// ExternalPause pauses the handle as the host would and notifies the listener.
func (h *Handle) ExternalPause() {
	h.mu.Lock()
	h.paused = true
	l := h.listener
	h.mu.Unlock()

	l.OnExternalPause()
}

// Source returns the loaded path.
func (h *Handle) Source() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.source
}

// Loads returns every path passed to Load.
func (h *Handle) Loads() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	result := make([]string, len(h.loads))
	copy(result, h.loads)
	return result
}

// Plays returns the number of Play calls.
func (h *Handle) Plays() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.plays
}

// Pauses returns the number of Pause calls.
func (h *Handle) Pauses() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.pauses
}

// Pending returns the number of unresolved Play calls.
func (h *Handle) Pending() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.pending)
}

// Closed reports whether Close was called.
func (h *Handle) Closed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}
