// Package audio defines the native playback boundary used by the player.
//
// A Handle wraps one underlying playback resource (a speaker stream, a
// simulated clock, a test fake). The player never reaches past this
// interface, so backends can be swapped by configuration.
package audio

import (
	"time"

	"github.com/cockroachdb/errors"
)

// Errors reported by handles.
var (
	ErrPlaybackBlocked = errors.New("playback blocked")
	ErrLoadFailure     = errors.New("failed to load resource")
	ErrAborted         = errors.New("play request aborted")
	ErrUnavailable     = errors.New("audio backend unavailable")
	ErrNoSource        = errors.New("no source loaded")
)

// Listener receives notifications from a handle.
// Implementations must not block for long; handles call them from their own goroutines.
type Listener interface {
	OnEnded()
	OnTimeUpdate(pos time.Duration)
	OnExternalPause()
}

// Handle is one native playback resource.
type Handle interface {
	// Load replaces the current resource with path and starts fetching it.
	// It does not start playback. Errors discovered asynchronously are
	// reported by the next Play outcome.
	Load(path string) error

	// Play requests playback. The returned channel receives exactly one value:
	// nil once audio is running, or the reason it could not start.
	Play() <-chan error

	// Pause stops output. Pausing a paused handle is a no-op.
	// A Play still pending when Pause is called resolves with ErrAborted.
	Pause()

	// Seek moves the playback position.
	Seek(pos time.Duration) error

	// Position returns the current playback position.
	Position() time.Duration

	// Paused reports whether output is stopped.
	Paused() bool

	// SetListener registers the single listener for this handle.
	SetListener(l Listener)

	// Close releases the resource.
	Close() error
}

// Resolved returns an outcome channel that already holds err.
func Resolved(err error) <-chan error {
	ch := make(chan error, 1)
	ch <- err
	return ch
}

// NopListener ignores all notifications.
type NopListener struct{}

func (NopListener) OnEnded() {}

func (NopListener) OnTimeUpdate(time.Duration) {}

func (NopListener) OnExternalPause() {}
