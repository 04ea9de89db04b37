package main

import (
	"fmt"
	"strings"
	"time"

	"connectrpc.com/connect"
	"github.com/cockroachdb/errors"

	playerv1 "github.com/osa030/isaibox/internal/api/playerv1"
)

func formatPlaying(playing bool) string {
	if playing {
		return "▶️  Playing"
	}
	return "⏸  Paused"
}

func formatPosition(ms int64) string {
	d := time.Duration(ms) * time.Millisecond
	return fmt.Sprintf("%d:%02d", int(d.Minutes()), int(d.Seconds())%60)
}

func formatTracks(resp *playerv1.ListTracksResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Catalog %s (%d tracks):\n", resp.Name, len(resp.Tracks))
	for _, t := range resp.Tracks {
		fmt.Fprintf(&b, "  %3d  %-30s %s\n", t.Index, t.Label, t.Path)
	}
	return b.String()
}

func formatStatus(s *playerv1.Status) string {
	if s == nil {
		return "No status\n"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "State: %s\n", formatPlaying(s.IsPlaying))
	if s.Track != nil {
		fmt.Fprintf(&b, "Track: [%d] %s (%s)\n", s.CurrentIndex, s.Track.Label, s.Track.Path)
	} else {
		fmt.Fprintf(&b, "Track: [%d]\n", s.CurrentIndex)
	}
	fmt.Fprintf(&b, "Position: %s\n", formatPosition(s.PositionMs))
	if s.Pending {
		b.WriteString("Play request pending\n")
	}
	fmt.Fprintf(&b, "Slot: %d active, standby holds %q\n", s.ActiveSlot, s.Preloaded)
	fmt.Fprintf(&b, "Watchdog: %s\n", s.Watchdog)
	return b.String()
}

func formatNotification(n *playerv1.Notification) string {
	var b strings.Builder
	fmt.Fprintf(&b, "\n[Sequence: %d] ", n.SequenceNo)

	switch n.Type {
	case playerv1.NotificationTypeInitialState:
		b.WriteString("=== INITIAL STATE ===\n")
	case playerv1.NotificationTypeIndexChanged:
		b.WriteString("=== TRACK CHANGED ===\n")
	case playerv1.NotificationTypePlayingChanged:
		b.WriteString("=== PLAYING CHANGED ===\n")
	case playerv1.NotificationTypePlayFailed:
		b.WriteString("=== PLAY FAILED ===\n")
	case playerv1.NotificationTypeStallDetected:
		b.WriteString("=== STALL DETECTED ===\n")
	case playerv1.NotificationTypeTrackEnded:
		b.WriteString("=== TRACK ENDED ===\n")
	default:
		fmt.Fprintf(&b, "=== UNKNOWN EVENT (%s) ===\n", n.Type)
	}

	if n.Error != "" {
		fmt.Fprintf(&b, "Error: %s\n", n.Error)
	}
	if n.Status != nil {
		b.WriteString(formatStatus(n.Status))
	}
	return b.String()
}

// describeError renders RPC errors for humans.
func describeError(err error) string {
	switch connect.CodeOf(err) {
	case connect.CodeUnauthenticated:
		return "control token missing or wrong (use --token or ISAIBOX_CONTROL_TOKEN env)"
	case connect.CodeInvalidArgument, connect.CodeFailedPrecondition:
		var cerr *connect.Error
		if errors.As(err, &cerr) {
			return cerr.Message()
		}
	}
	return err.Error()
}
