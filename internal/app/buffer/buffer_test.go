package buffer

import (
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/isaibox/internal/audio"
	"github.com/osa030/isaibox/internal/audio/audiotest"
	"github.com/osa030/isaibox/internal/domain/track"
)

type recordingObserver struct {
	mu        sync.Mutex
	ended     int
	positions []time.Duration
	paused    int
}

func (o *recordingObserver) TrackEnded() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.ended++
}

func (o *recordingObserver) PositionUpdated(pos time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.positions = append(o.positions, pos)
}

func (o *recordingObserver) PausedExternally() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.paused++
}

func newTestBuffer() (*Buffer, *audiotest.Handle, *audiotest.Handle, *recordingObserver) {
	a := audiotest.New("a")
	b := audiotest.New("b")
	obs := &recordingObserver{}
	return New(a, b, obs), a, b, obs
}

var (
	t0 = track.New("music/t0.mp3", "", "")
	t1 = track.New("music/t1.mp3", "", "")
	t2 = track.New("music/t2.mp3", "", "")
)

func TestBuffer_LoadActiveIsIdempotent(t *testing.T) {
	buf, a, _, _ := newTestBuffer()

	loaded, err := buf.LoadActive(t0)
	require.NoError(t, err)
	assert.True(t, loaded)

	loaded, err = buf.LoadActive(t0)
	require.NoError(t, err)
	assert.False(t, loaded)

	assert.Equal(t, []string{t0.Path}, a.Loads())
	assert.Equal(t, t0.Path, buf.ActiveSource())
}

func TestBuffer_LoadActiveFailure(t *testing.T) {
	buf, a, _, _ := newTestBuffer()
	a.FailLoad(t0.Path, errors.New("no such file"))

	_, err := buf.LoadActive(t0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, audio.ErrLoadFailure))
	assert.Empty(t, buf.ActiveSource())

	// A failed load is retried on the next request.
	a.FailLoad(t0.Path, nil)
	loaded, err := buf.LoadActive(t0)
	require.NoError(t, err)
	assert.True(t, loaded)
	assert.Equal(t, []string{t0.Path, t0.Path}, a.Loads())
}

func TestBuffer_PreloadTargetsStandby(t *testing.T) {
	buf, a, b, _ := newTestBuffer()

	require.NoError(t, buf.Preload(t1))
	assert.Empty(t, a.Loads())
	assert.Equal(t, []string{t1.Path}, b.Loads())
	assert.Equal(t, t1.Path, buf.StandbySource())
	assert.True(t, b.Paused(), "preload must not start playback")

	// Every preload overwrites the standby resource, even with the same track.
	require.NoError(t, buf.Preload(t1))
	require.NoError(t, buf.Preload(t2))
	assert.Equal(t, []string{t1.Path, t1.Path, t2.Path}, b.Loads())
	assert.Equal(t, t2.Path, buf.StandbySource())
}

func TestBuffer_SwapMovesObservation(t *testing.T) {
	buf, a, b, obs := newTestBuffer()

	a.Tick(time.Second)
	b.Tick(2 * time.Second) // standby, dropped
	b.End()                 // standby, dropped

	assert.Equal(t, 1, buf.Swap())

	a.End() // old active, dropped
	b.Tick(3 * time.Second)
	b.ExternalPause()

	obs.mu.Lock()
	defer obs.mu.Unlock()
	assert.Equal(t, []time.Duration{time.Second, 3 * time.Second}, obs.positions)
	assert.Equal(t, 0, obs.ended)
	assert.Equal(t, 1, obs.paused)
}

func TestBuffer_SwapUsesPreloadedSlot(t *testing.T) {
	buf, a, b, _ := newTestBuffer()

	_, err := buf.LoadActive(t0)
	require.NoError(t, err)
	require.NoError(t, buf.Preload(t1))

	buf.Swap()
	assert.Equal(t, t1.Path, buf.ActiveSource())
	assert.Equal(t, t0.Path, buf.StandbySource())

	loaded, err := buf.LoadActive(t1)
	require.NoError(t, err)
	assert.False(t, loaded, "preloaded track must not be loaded again")
	assert.Equal(t, []string{t0.Path}, a.Loads())
	assert.Equal(t, []string{t1.Path}, b.Loads())
}

func TestBuffer_PreloadRestartsPlayedSlot(t *testing.T) {
	buf, a, _, _ := newTestBuffer()

	_, err := buf.LoadActive(t0)
	require.NoError(t, err)
	require.NoError(t, <-buf.Play().Outcome)
	a.Tick(42 * time.Second)

	// Slot 0 goes standby holding t0 mid-track, then t0 is preloaded again.
	buf.Swap()
	require.NoError(t, buf.Preload(t0))
	assert.Equal(t, []string{t0.Path, t0.Path}, a.Loads())
	assert.Zero(t, a.Position())
	assert.True(t, a.Paused())
}

func TestBuffer_RewindActive(t *testing.T) {
	buf, a, _, _ := newTestBuffer()

	// Nothing loaded yet.
	require.NoError(t, buf.RewindActive())

	_, err := buf.LoadActive(t0)
	require.NoError(t, err)
	a.Tick(30 * time.Second)
	assert.Equal(t, 30*time.Second, buf.Position())

	require.NoError(t, buf.RewindActive())
	assert.Zero(t, buf.Position())
	assert.Equal(t, []string{t0.Path}, a.Loads(), "rewinding must not reload")
}

func TestBuffer_PlayAndPause(t *testing.T) {
	buf, a, b, _ := newTestBuffer()

	_, err := buf.LoadActive(t0)
	require.NoError(t, err)

	req := buf.Play()
	assert.Equal(t, 0, req.Slot)
	assert.NoError(t, <-req.Outcome)
	assert.False(t, buf.ActivePaused())

	buf.Pause()
	buf.Pause()
	assert.True(t, buf.ActivePaused())
	assert.Equal(t, 2, a.Pauses())
	assert.Equal(t, 0, b.Plays())
}

func TestBuffer_PlayFailure(t *testing.T) {
	buf, a, _, _ := newTestBuffer()
	a.FailPlay(audio.ErrPlaybackBlocked)

	_, err := buf.LoadActive(t0)
	require.NoError(t, err)

	req := buf.Play()
	err = <-req.Outcome
	assert.True(t, errors.Is(err, audio.ErrPlaybackBlocked))
	assert.True(t, buf.ActivePaused())
}

func TestBuffer_Close(t *testing.T) {
	buf, a, b, _ := newTestBuffer()
	require.NoError(t, buf.Close())
	assert.True(t, a.Closed())
	assert.True(t, b.Closed())
}
