package playback

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/isaibox/internal/app/buffer"
	"github.com/osa030/isaibox/internal/app/watchdog"
	"github.com/osa030/isaibox/internal/audio"
	"github.com/osa030/isaibox/internal/domain/playlist"
	"github.com/osa030/isaibox/internal/domain/track"
)

// Errors
var (
	ErrOutOfRange   = playlist.ErrOutOfRange
	ErrStaleRequest = errors.New("stale play outcome ignored")
	ErrClosed       = errors.New("controller closed")
)

// Config holds controller configuration.
type Config struct {
	StallThreshold  time.Duration    // Frozen-position tolerance before forcing an advance
	EventBufferSize int              // Capacity of the event channel
	Recorder        Recorder         // Optional metrics sink
	Clock           func() time.Time // Optional clock for the watchdog
}

// Controller is the only component that mutates the current index and the
// playing flag. Every transition is applied under mu; the lock is never held
// while waiting for a play outcome.
type Controller struct {
	mu sync.Mutex

	playlist *playlist.Playlist
	buffer   *buffer.Buffer
	watchdog *watchdog.Watchdog
	config   Config
	recorder Recorder

	state PlaylistState

	// Play request versioning
	requestSeq uint64
	pending    uint64 // id of the outstanding play request, 0 when none

	eventCh chan Event
	ctx     context.Context
	cancel  context.CancelFunc
	closed  bool
}

// playRequest is one issued play with the identity needed for stale checks.
type playRequest struct {
	id      uint64
	slot    int
	index   int
	outcome <-chan error
}

// NewController creates a controller owning a dual buffer over handles.
func NewController(config Config, pl *playlist.Playlist, handles [2]audio.Handle) *Controller {
	if config.EventBufferSize <= 0 {
		config.EventBufferSize = 32
	}
	recorder := config.Recorder
	if recorder == nil {
		recorder = nopRecorder{}
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		playlist: pl,
		config:   config,
		recorder: recorder,
		eventCh:  make(chan Event, config.EventBufferSize),
		ctx:      ctx,
		cancel:   cancel,
	}

	var opts []watchdog.Option
	if config.Clock != nil {
		opts = append(opts, watchdog.WithClock(config.Clock))
	}
	c.watchdog = watchdog.New(config.StallThreshold, c.OnStallDetected, opts...)
	c.buffer = buffer.New(handles[0], handles[1], &slotObserver{c: c})
	return c
}

// Events returns the event channel. It is closed by Close.
func (c *Controller) Events() <-chan Event {
	return c.eventCh
}

// Catalog returns the playlist being played.
func (c *Controller) Catalog() *playlist.Playlist {
	return c.playlist
}

// Buffer returns the dual playback buffer.
func (c *Controller) Buffer() *buffer.Buffer {
	return c.buffer
}

// Watchdog returns the stall watchdog.
func (c *Controller) Watchdog() *watchdog.Watchdog {
	return c.watchdog
}

// Prepare loads the first track into the active slot without playing it and
// preloads the second one.
func (c *Controller) Prepare() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	first, err := c.playlist.At(0)
	if err != nil {
		return err
	}
	if _, err := c.buffer.LoadActive(first); err != nil {
		return errors.Wrap(err, "failed to prepare first track")
	}
	c.preloadLocked(c.playlist.NextIndex(0))
	c.recorder.RecordState(c.state)

	zlog.Info().Msgf("playback: prepared %d tracks, first=%s", c.playlist.Len(), first.Label)
	return nil
}

// State returns the current playlist state.
func (c *Controller) State() PlaylistState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// CurrentTrack returns the track at the current index.
func (c *Controller) CurrentTrack() track.Track {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, _ := c.playlist.At(c.state.CurrentIndex)
	return t
}

// Status returns a snapshot for display.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	t, _ := c.playlist.At(c.state.CurrentIndex)
	return Status{
		PlaylistState: c.state,
		Track:         t,
		Pending:       c.pending != 0,
		Position:      c.buffer.Position(),
		ActiveSlot:    c.buffer.ActiveID(),
		Preloaded:     c.buffer.StandbySource(),
		Watchdog:      c.watchdog.State(),
	}
}

// SelectTrack makes index current and plays it. It blocks until the play
// outcome is known or ctx is done.
func (c *Controller) SelectTrack(ctx context.Context, index int) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if !c.playlist.Valid(index) {
		c.mu.Unlock()
		return errors.Wrapf(ErrOutOfRange, "index %d not in [0,%d)", index, c.playlist.Len())
	}

	req, err := c.selectLocked(index)
	c.mu.Unlock()
	if err != nil {
		return err
	}

	return c.await(ctx, req)
}

// TogglePlayPause pauses when playing, otherwise plays the current track.
// A toggle while a play request is outstanding does not issue another one.
func (c *Controller) TogglePlayPause(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}

	if c.state.IsPlaying {
		c.pauseLocked()
		c.mu.Unlock()
		return nil
	}

	if c.pending != 0 {
		c.mu.Unlock()
		zlog.Debug().Msg("playback: play already pending, toggle ignored")
		return nil
	}

	t, _ := c.playlist.At(c.state.CurrentIndex)
	if _, err := c.buffer.LoadActive(t); err != nil {
		err = c.failLocked(c.state.CurrentIndex, err)
		c.mu.Unlock()
		return err
	}
	req := c.issuePlayLocked()
	c.mu.Unlock()

	return c.await(ctx, req)
}

// AdvanceToNext moves to the next track, wrapping after the last one.
func (c *Controller) AdvanceToNext(ctx context.Context) error {
	return c.advance(ctx, ReasonNext)
}

// OnTrackEnded handles a natural end of track on the active slot.
func (c *Controller) OnTrackEnded() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	ended := c.state.CurrentIndex
	c.sendEventLocked(EventTrackEnded, nil)
	c.mu.Unlock()

	zlog.Info().Msgf("playback: track %d ended", ended)
	if err := c.advance(c.ctx, ReasonEnded); err != nil {
		zlog.Warn().Err(err).Msg("playback: advance after end failed")
	}
}

// OnStallDetected forces an advance after the watchdog saw frozen playback.
func (c *Controller) OnStallDetected() {
	c.mu.Lock()
	if c.closed || !c.state.IsPlaying {
		c.mu.Unlock()
		return
	}
	stalled := c.state.CurrentIndex
	c.sendEventLocked(EventStallDetected, nil)
	c.mu.Unlock()

	zlog.Warn().Msgf("playback: stall detected on track %d, forcing advance", stalled)
	if err := c.advance(c.ctx, ReasonStall); err != nil {
		zlog.Warn().Err(err).Msg("playback: forced advance failed")
	}
}

// OnVisible resumes the active slot when playback is expected but the host
// paused it. The current index is left unchanged.
func (c *Controller) OnVisible(ctx context.Context) error {
	c.mu.Lock()
	if c.closed || !c.state.IsPlaying || c.pending != 0 || !c.buffer.ActivePaused() {
		c.mu.Unlock()
		return nil
	}

	zlog.Info().Msgf("playback: resuming track %d after external pause", c.state.CurrentIndex)
	req := c.issuePlayLocked()
	c.mu.Unlock()

	return c.await(ctx, req)
}

// Seek moves the position of the current track.
func (c *Controller) Seek(pos time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	if pos < 0 {
		return errors.Newf("invalid seek position %v", pos)
	}
	if err := c.buffer.Seek(pos); err != nil {
		return errors.Wrap(err, "failed to seek")
	}
	// The position jumps; the next sample only sets the baseline.
	c.watchdog.Reset()
	return nil
}

// Close stops playback and releases both slots.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.pending = 0
	c.watchdog.Disarm()
	c.buffer.PauseAll()
	c.cancel()
	close(c.eventCh)
	c.mu.Unlock()

	if err := c.buffer.Close(); err != nil {
		zlog.Warn().Err(err).Msg("playback: failed to close audio handles")
	}
}

// advance pauses the outgoing slot, swaps, and selects the next index as one
// transition.
func (c *Controller) advance(ctx context.Context, reason AdvanceReason) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}

	next := c.playlist.NextIndex(c.state.CurrentIndex)
	c.buffer.Pause()
	slot := c.buffer.Swap()
	// The incoming slot may hold the next track from an earlier pass.
	if err := c.buffer.RewindActive(); err != nil {
		zlog.Debug().Err(err).Msgf("playback: rewind slot %d", slot)
	}
	c.watchdog.Reset()
	c.recorder.RecordAdvance(reason)

	zlog.Debug().Msgf("playback: advance (%s) %d -> %d on slot %d", reason, c.state.CurrentIndex, next, slot)

	req, err := c.selectLocked(next)
	c.mu.Unlock()
	if err != nil {
		return err
	}

	return c.await(ctx, req)
}

// selectLocked sets the index, loads the track and issues the play.
// Must be called with lock held.
func (c *Controller) selectLocked(index int) (playRequest, error) {
	t, _ := c.playlist.At(index)

	if c.state.CurrentIndex != index {
		c.state.CurrentIndex = index
		c.sendEventLocked(EventIndexChanged, nil)
		c.recorder.RecordState(c.state)
	}

	// Disarmed until the new play succeeds so a slow start is not a stall.
	c.watchdog.Disarm()

	if _, err := c.buffer.LoadActive(t); err != nil {
		return playRequest{}, c.failLocked(index, err)
	}
	return c.issuePlayLocked(), nil
}

// issuePlayLocked starts a versioned play on the active slot.
// Must be called with lock held.
func (c *Controller) issuePlayLocked() playRequest {
	c.requestSeq++
	c.pending = c.requestSeq

	r := c.buffer.Play()
	return playRequest{
		id:      c.pending,
		slot:    r.Slot,
		index:   c.state.CurrentIndex,
		outcome: r.Outcome,
	}
}

// await waits for req's outcome. If ctx ends first the outcome is still
// settled in the background. Stale outcomes are not reported as errors.
func (c *Controller) await(ctx context.Context, req playRequest) error {
	var err error
	select {
	case outcome := <-req.outcome:
		err = c.settle(req, outcome)
	case <-ctx.Done():
		go func() {
			_ = c.settle(req, <-req.outcome)
		}()
		return errors.Wrap(ctx.Err(), "waiting for playback to start")
	}

	if errors.Is(err, ErrStaleRequest) {
		return nil
	}
	return err
}

// settle applies a play outcome unless it has been superseded.
func (c *Controller) settle(req playRequest, outcome error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if req.id != c.pending || c.buffer.ActiveID() != req.slot {
		zlog.Debug().Msgf("playback: dropping stale outcome: request=%d pending=%d slot=%d err=%v",
			req.id, c.pending, req.slot, outcome)
		c.recorder.RecordStaleOutcome()
		return ErrStaleRequest
	}
	c.pending = 0

	if outcome != nil {
		return c.failLocked(req.index, outcome)
	}

	if !c.state.IsPlaying {
		c.state.IsPlaying = true
		c.sendEventLocked(EventPlayingChanged, nil)
		c.recorder.RecordState(c.state)
	}
	c.watchdog.Arm()
	c.preloadLocked(c.playlist.NextIndex(c.state.CurrentIndex))

	t, _ := c.playlist.At(c.state.CurrentIndex)
	zlog.Info().Msgf("playback: playing track %d: %s", c.state.CurrentIndex, t.Label)
	return nil
}

// failLocked reverts to not playing and reports err.
// Must be called with lock held.
func (c *Controller) failLocked(index int, err error) error {
	c.pending = 0
	c.watchdog.Disarm()
	if c.state.IsPlaying {
		c.state.IsPlaying = false
		c.sendEventLocked(EventPlayingChanged, nil)
		c.recorder.RecordState(c.state)
	}
	c.sendEventLocked(EventPlayFailed, err)
	c.recorder.RecordPlayFailure(err)

	zlog.Warn().Err(err).Msgf("playback: failed to play track %d", index)
	return errors.Wrapf(err, "failed to play track %d", index)
}

// pauseLocked stops the active slot. Any outstanding play becomes stale.
// Must be called with lock held.
func (c *Controller) pauseLocked() {
	c.pending = 0
	c.buffer.Pause()
	c.watchdog.Disarm()
	c.state.IsPlaying = false
	c.sendEventLocked(EventPlayingChanged, nil)
	c.recorder.RecordState(c.state)

	zlog.Info().Msgf("playback: paused track %d", c.state.CurrentIndex)
}

// preloadLocked loads index into the standby slot. Failures are logged only;
// the track is loaded again when it becomes active.
// Must be called with lock held.
func (c *Controller) preloadLocked(index int) {
	t, _ := c.playlist.At(index)
	if err := c.buffer.Preload(t); err != nil {
		zlog.Warn().Err(err).Msgf("playback: failed to preload track %d", index)
	}
}

// onExternalPause handles the host pausing the active slot behind our back.
func (c *Controller) onExternalPause() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || !c.state.IsPlaying {
		return
	}
	// IsPlaying stays true so OnVisible can resume.
	c.watchdog.Disarm()
	zlog.Info().Msgf("playback: track %d paused externally", c.state.CurrentIndex)
}

// sendEventLocked sends an event without blocking.
// Must be called with lock held.
func (c *Controller) sendEventLocked(typ EventType, err error) {
	if c.closed {
		return
	}
	t, _ := c.playlist.At(c.state.CurrentIndex)
	e := Event{
		Type:    typ,
		Index:   c.state.CurrentIndex,
		Track:   t,
		Playing: c.state.IsPlaying,
		Err:     err,
	}

	select {
	case c.eventCh <- e:
		// Successfully sent
	case <-c.ctx.Done():
		// Context cancelled, don't send
	default:
		zlog.Debug().Msgf("playback: event channel full, dropping %s", typ)
	}
}

// slotObserver routes notifications of the active slot into the controller.
type slotObserver struct {
	c *Controller
}

func (o *slotObserver) TrackEnded() {
	o.c.OnTrackEnded()
}

func (o *slotObserver) PositionUpdated(pos time.Duration) {
	o.c.watchdog.Observe(pos)
}

func (o *slotObserver) PausedExternally() {
	o.c.onExternalPause()
}
