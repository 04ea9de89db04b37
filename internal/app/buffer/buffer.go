// Package buffer provides the dual playback buffer.
//
// Two slots alternate between active and standby. The standby slot is loaded
// with the next track while the active one plays, so advancing is a swap
// instead of a cold load. Notifications (end of track, position updates,
// external pauses) are delivered only for the active slot; the observed slot
// is derived from the active index under one lock, so a swap moves
// observation atomically.
package buffer

import (
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/isaibox/internal/audio"
	"github.com/osa030/isaibox/internal/domain/track"
)

// Observer receives notifications from the active slot.
type Observer interface {
	TrackEnded()
	PositionUpdated(pos time.Duration)
	PausedExternally()
}

// Request identifies one play request.
type Request struct {
	Slot    int
	Outcome <-chan error
}

// Buffer owns exactly two slots.
type Buffer struct {
	mu       sync.RWMutex
	slots    [2]*Slot
	active   int
	observer Observer
}

// New creates a buffer over two handles. Slot 0 starts active.
func New(a, b audio.Handle, obs Observer) *Buffer {
	buf := &Buffer{observer: obs}
	for i, h := range []audio.Handle{a, b} {
		s := &Slot{id: i, handle: h, owner: buf}
		buf.slots[i] = s
		h.SetListener(s)
	}
	return buf
}

// observerFor returns the observer when id is the active slot, nil otherwise.
func (b *Buffer) observerFor(id int) Observer {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if id != b.active {
		return nil
	}
	return b.observer
}

// LoadActive loads t into the active slot unless it already holds it.
// It reports whether a load was issued.
func (b *Buffer) LoadActive(t track.Track) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	s := b.slots[b.active]
	loaded, err := s.load(t, false)
	if err != nil {
		return loaded, errors.Mark(errors.Wrapf(err, "slot %d: load %s", s.id, t.Path), audio.ErrLoadFailure)
	}
	if loaded {
		zlog.Debug().Msgf("buffer: slot %d loaded %s", s.id, t.Path)
	}
	return loaded, nil
}

// Play requests playback on the active slot.
func (b *Buffer) Play() Request {
	b.mu.Lock()
	defer b.mu.Unlock()

	s := b.slots[b.active]
	return Request{Slot: s.id, Outcome: s.handle.Play()}
}

// Pause stops the active slot.
func (b *Buffer) Pause() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.slots[b.active].handle.Pause()
}

// PauseAll stops both slots.
func (b *Buffer) PauseAll() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, s := range b.slots {
		s.handle.Pause()
	}
}

// Preload loads t into the standby slot without playing it. The standby
// resource is always replaced, so a slot that already played t starts over.
func (b *Buffer) Preload(t track.Track) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	s := b.slots[1-b.active]
	if _, err := s.load(t, true); err != nil {
		return errors.Mark(errors.Wrapf(err, "slot %d: preload %s", s.id, t.Path), audio.ErrLoadFailure)
	}
	zlog.Debug().Msgf("buffer: slot %d preloaded %s", s.id, t.Path)
	return nil
}

// Swap flips active and standby. Observation follows the active slot.
// It returns the new active slot id.
func (b *Buffer) Swap() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.active = 1 - b.active
	zlog.Debug().Msgf("buffer: slot %d active", b.active)
	return b.active
}

// Seek moves the active slot's position.
func (b *Buffer) Seek(pos time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.slots[b.active].handle.Seek(pos)
}

// RewindActive moves the active slot back to the start of its resource.
// An empty slot is left alone.
func (b *Buffer) RewindActive() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.slots[b.active].rewind()
}

// ActiveID returns the active slot id.
func (b *Buffer) ActiveID() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.active
}

// ActiveSource returns the path held by the active slot.
func (b *Buffer) ActiveSource() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.slots[b.active].source
}

// StandbySource returns the path held by the standby slot.
func (b *Buffer) StandbySource() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.slots[1-b.active].source
}

// ActivePaused reports whether the active slot is paused.
func (b *Buffer) ActivePaused() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.slots[b.active].handle.Paused()
}

// Position returns the active slot's position.
func (b *Buffer) Position() time.Duration {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.slots[b.active].handle.Position()
}

// Close closes both handles.
func (b *Buffer) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	var errs error
	for _, s := range b.slots {
		if err := s.handle.Close(); err != nil {
			errs = errors.CombineErrors(errs, err)
		}
	}
	return errs
}
