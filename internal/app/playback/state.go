// Package playback provides the playlist controller.
package playback

import (
	"time"

	"github.com/osa030/isaibox/internal/app/watchdog"
	"github.com/osa030/isaibox/internal/domain/track"
)

// PlaylistState is the controller-owned playback state.
type PlaylistState struct {
	CurrentIndex int
	IsPlaying    bool
}

// Status is a point-in-time view of the controller for display.
type Status struct {
	PlaylistState
	Track      track.Track
	Pending    bool // A play request is outstanding
	Position   time.Duration
	ActiveSlot int
	Preloaded  string // Path held by the standby slot
	Watchdog   watchdog.State
}

// AdvanceReason tells why the controller moved to the next track.
type AdvanceReason int

const (
	ReasonEnded AdvanceReason = iota // Natural end of track
	ReasonStall                      // Forced by the watchdog
	ReasonNext                       // Requested by the user
)

// String returns the string representation of the reason.
func (r AdvanceReason) String() string {
	switch r {
	case ReasonEnded:
		return "ended"
	case ReasonStall:
		return "stall"
	case ReasonNext:
		return "next"
	default:
		return "unknown"
	}
}
