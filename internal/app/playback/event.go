package playback

import "github.com/osa030/isaibox/internal/domain/track"

// EventType represents a playback event type.
type EventType int

const (
	EventIndexChanged   EventType = iota // Current index changed
	EventPlayingChanged                  // IsPlaying flipped
	EventPlayFailed                      // A play request failed
	EventStallDetected                   // Watchdog forced an advance
	EventTrackEnded                      // Track finished naturally
)

// String returns the string representation of the event type.
func (e EventType) String() string {
	switch e {
	case EventIndexChanged:
		return "index_changed"
	case EventPlayingChanged:
		return "playing_changed"
	case EventPlayFailed:
		return "play_failed"
	case EventStallDetected:
		return "stall_detected"
	case EventTrackEnded:
		return "track_ended"
	default:
		return "unknown"
	}
}

// Event represents a playback event.
type Event struct {
	Type    EventType
	Index   int         // Current index when the event was emitted
	Track   track.Track // Track at Index
	Playing bool        // IsPlaying when the event was emitted
	Err     error       // Set for EventPlayFailed
}

// Recorder receives playback measurements.
type Recorder interface {
	RecordAdvance(reason AdvanceReason)
	RecordPlayFailure(err error)
	RecordStaleOutcome()
	RecordState(state PlaylistState)
}

type nopRecorder struct{}

func (nopRecorder) RecordAdvance(AdvanceReason) {}

func (nopRecorder) RecordPlayFailure(error) {}

func (nopRecorder) RecordStaleOutcome() {}

func (nopRecorder) RecordState(PlaylistState) {}
