package connect

import (
	"context"

	"connectrpc.com/connect"
	"github.com/cockroachdb/errors"
	"github.com/samber/lo"

	playerv1 "github.com/osa030/isaibox/internal/api/playerv1"
	"github.com/osa030/isaibox/internal/app/playback"
	"github.com/osa030/isaibox/internal/audio"
	"github.com/osa030/isaibox/internal/domain/playlist"
	"github.com/osa030/isaibox/internal/domain/track"
)

var errNegativePosition = errors.New("position must not be negative")

var notificationTypes = map[playback.EventType]playerv1.NotificationType{
	playback.EventIndexChanged:   playerv1.NotificationTypeIndexChanged,
	playback.EventPlayingChanged: playerv1.NotificationTypePlayingChanged,
	playback.EventPlayFailed:     playerv1.NotificationTypePlayFailed,
	playback.EventStallDetected:  playerv1.NotificationTypeStallDetected,
	playback.EventTrackEnded:     playerv1.NotificationTypeTrackEnded,
}

func toTrack(index int, t track.Track) *playerv1.Track {
	return &playerv1.Track{
		Index:   int32(index),
		Path:    t.Path,
		Label:   t.Label,
		Details: t.Details,
	}
}

func toTracks(pl *playlist.Playlist) []*playerv1.Track {
	return lo.Map(pl.Tracks(), func(t track.Track, i int) *playerv1.Track {
		return toTrack(i, t)
	})
}

func toStatus(s playback.Status) *playerv1.Status {
	return &playerv1.Status{
		CurrentIndex: int32(s.CurrentIndex),
		IsPlaying:    s.IsPlaying,
		Track:        toTrack(s.CurrentIndex, s.Track),
		Pending:      s.Pending,
		PositionMs:   s.Position.Milliseconds(),
		ActiveSlot:   int32(s.ActiveSlot),
		Preloaded:    s.Preloaded,
		Watchdog:     s.Watchdog.String(),
	}
}

// toNotification builds the notification for e. The status carries the
// index and playing flag as of the event, the rest as of now.
func toNotification(e playback.Event, now playback.Status) *playerv1.Notification {
	status := toStatus(now)
	status.CurrentIndex = int32(e.Index)
	status.IsPlaying = e.Playing
	status.Track = toTrack(e.Index, e.Track)

	n := &playerv1.Notification{
		Type:   notificationTypes[e.Type],
		Status: status,
	}
	if e.Err != nil {
		n.Error = e.Err.Error()
	}
	return n
}

// toConnectError maps playback errors to RPC codes.
func toConnectError(err error) error {
	code := connect.CodeInternal
	switch {
	case errors.Is(err, playback.ErrOutOfRange):
		code = connect.CodeInvalidArgument
	case errors.Is(err, playback.ErrClosed):
		code = connect.CodeUnavailable
	case errors.Is(err, context.Canceled):
		code = connect.CodeCanceled
	case errors.Is(err, context.DeadlineExceeded):
		code = connect.CodeDeadlineExceeded
	case errors.Is(err, audio.ErrPlaybackBlocked),
		errors.Is(err, audio.ErrLoadFailure),
		errors.Is(err, audio.ErrNoSource),
		errors.Is(err, audio.ErrAborted),
		errors.Is(err, audio.ErrUnavailable):
		code = connect.CodeFailedPrecondition
	}
	return connect.NewError(code, err)
}
