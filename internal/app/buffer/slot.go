package buffer

import (
	"time"

	"github.com/osa030/isaibox/internal/audio"
	"github.com/osa030/isaibox/internal/domain/track"
)

// Slot wraps one audio handle and remembers which resource it holds.
// Slots are owned by a Buffer and only touched under its lock.
type Slot struct {
	id     int
	handle audio.Handle
	source string
	owner  *Buffer
}

// ID returns the slot id (0 or 1).
func (s *Slot) ID() int {
	return s.id
}

// Source returns the loaded path, or "" when nothing is loaded.
func (s *Slot) Source() string {
	return s.source
}

// load loads t unless it is already the current source and force is false.
// A forced load resets the position even for the same resource.
// It reports whether the handle was asked to load.
func (s *Slot) load(t track.Track, force bool) (bool, error) {
	if !force && s.source == t.Path {
		return false, nil
	}
	s.source = ""
	if err := s.handle.Load(t.Path); err != nil {
		return true, err
	}
	s.source = t.Path
	return true, nil
}

// rewind moves a loaded slot back to the start.
func (s *Slot) rewind() error {
	if s.source == "" {
		return nil
	}
	return s.handle.Seek(0)
}

// Listener side: the handle reports here and the owner decides whether the
// slot is currently observed.

// OnEnded implements audio.Listener.
func (s *Slot) OnEnded() {
	if obs := s.owner.observerFor(s.id); obs != nil {
		obs.TrackEnded()
	}
}

// OnTimeUpdate implements audio.Listener.
func (s *Slot) OnTimeUpdate(pos time.Duration) {
	if obs := s.owner.observerFor(s.id); obs != nil {
		obs.PositionUpdated(pos)
	}
}

// OnExternalPause implements audio.Listener.
func (s *Slot) OnExternalPause() {
	if obs := s.owner.observerFor(s.id); obs != nil {
		obs.PausedExternally()
	}
}
