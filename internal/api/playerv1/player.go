// Package playerv1 defines the messages of the isaibox.player.v1 API.
package playerv1

import "sync/atomic"

// Track is one catalog entry.
type Track struct {
	Index   int32  `json:"index"`
	Path    string `json:"path"`
	Label   string `json:"label"`
	Details string `json:"details,omitempty"`
}

// Status is a snapshot of the player.
type Status struct {
	CurrentIndex int32  `json:"current_index"`
	IsPlaying    bool   `json:"is_playing"`
	Track        *Track `json:"track,omitempty"`
	Pending      bool   `json:"pending"`
	PositionMs   int64  `json:"position_ms"`
	ActiveSlot   int32  `json:"active_slot"`
	Preloaded    string `json:"preloaded,omitempty"`
	Watchdog     string `json:"watchdog"`
}

// NotificationType identifies a notification.
type NotificationType string

const (
	NotificationTypeInitialState   NotificationType = "initial_state"
	NotificationTypeIndexChanged   NotificationType = "index_changed"
	NotificationTypePlayingChanged NotificationType = "playing_changed"
	NotificationTypePlayFailed     NotificationType = "play_failed"
	NotificationTypeStallDetected  NotificationType = "stall_detected"
	NotificationTypeTrackEnded     NotificationType = "track_ended"
)

// Notification is one message of the Subscribe stream.
type Notification struct {
	Type       NotificationType `json:"type"`
	SequenceNo uint64           `json:"sequence_no"`
	Status     *Status          `json:"status,omitempty"`
	Error      string           `json:"error,omitempty"`
}

// Sequencer hands out increasing notification sequence numbers, starting at 1.
// The zero value is ready to use.
type Sequencer struct {
	last atomic.Uint64
}

// Stamp sets n's sequence number to the next value and returns n.
func (s *Sequencer) Stamp(n *Notification) *Notification {
	n.SequenceNo = s.last.Add(1)
	return n
}

type ListTracksRequest struct{}

type ListTracksResponse struct {
	Name   string   `json:"name"`
	Tracks []*Track `json:"tracks"`
}

type GetStatusRequest struct{}

type GetStatusResponse struct {
	Status *Status `json:"status"`
}

type SelectTrackRequest struct {
	Index int32 `json:"index"`
}

type SelectTrackResponse struct {
	Status *Status `json:"status"`
}

type TogglePlayPauseRequest struct{}

type TogglePlayPauseResponse struct {
	Status *Status `json:"status"`
}

type NextRequest struct{}

type NextResponse struct {
	Status *Status `json:"status"`
}

type SeekRequest struct {
	PositionMs int64 `json:"position_ms"`
}

type SeekResponse struct {
	Status *Status `json:"status"`
}

type NotifyVisibleRequest struct{}

type NotifyVisibleResponse struct {
	Status *Status `json:"status"`
}

type SubscribeRequest struct{}
