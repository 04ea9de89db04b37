package metrics

import (
	"github.com/cockroachdb/errors"

	"github.com/osa030/isaibox/internal/app/playback"
	"github.com/osa030/isaibox/internal/audio"
)

// playbackRecorder implements playback.Recorder using the Prometheus
// metrics declared in this package.
type playbackRecorder struct{}

// NewPlaybackRecorder creates a recorder that feeds the playback metrics.
func NewPlaybackRecorder() playback.Recorder {
	return &playbackRecorder{}
}

func (r *playbackRecorder) RecordAdvance(reason playback.AdvanceReason) {
	PlaybackAdvancesTotal.WithLabelValues(reason.String()).Inc()
}

func (r *playbackRecorder) RecordPlayFailure(err error) {
	PlaybackFailuresTotal.WithLabelValues(FailureKind(err)).Inc()
}

func (r *playbackRecorder) RecordStaleOutcome() {
	PlaybackStaleOutcomesTotal.Inc()
}

func (r *playbackRecorder) RecordState(state playback.PlaylistState) {
	PlaybackCurrentIndex.Set(float64(state.CurrentIndex))
	if state.IsPlaying {
		PlaybackPlaying.Set(1)
	} else {
		PlaybackPlaying.Set(0)
	}
}

// FailureKind classifies a play failure for the kind label.
func FailureKind(err error) string {
	switch {
	case errors.Is(err, audio.ErrPlaybackBlocked):
		return "blocked"
	case errors.Is(err, audio.ErrLoadFailure), errors.Is(err, audio.ErrNoSource):
		return "load"
	case errors.Is(err, audio.ErrUnavailable):
		return "unavailable"
	default:
		return "other"
	}
}
