package simaudio

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/isaibox/internal/audio"
)

type listener struct {
	mu      sync.Mutex
	ended   int
	updates int
	paused  int
}

func (l *listener) OnEnded() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ended++
}

func (l *listener) OnTimeUpdate(time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.updates++
}

func (l *listener) OnExternalPause() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.paused++
}

func (l *listener) counts() (ended, updates, paused int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ended, l.updates, l.paused
}

func wait(t *testing.T, ch <-chan error) error {
	t.Helper()
	select {
	case err := <-ch:
		return err
	case <-time.After(time.Second):
		t.Fatal("play outcome not delivered")
		return nil
	}
}

func TestHandle_PlayWithoutSource(t *testing.T) {
	h := New("test", Settings{TrackLength: time.Minute}, 10*time.Millisecond)

	err := wait(t, h.Play())
	assert.True(t, errors.Is(err, audio.ErrNoSource))
	assert.True(t, h.Paused())
}

func TestHandle_PlaysToEnd(t *testing.T) {
	l := &listener{}
	h := New("test", Settings{TrackLength: 60 * time.Millisecond}, 5*time.Millisecond)
	h.SetListener(l)
	t.Cleanup(func() { _ = h.Close() })

	require.NoError(t, h.Load("music/a.mp3"))
	require.NoError(t, wait(t, h.Play()))
	assert.False(t, h.Paused())

	assert.Eventually(t, func() bool {
		ended, _, _ := l.counts()
		return ended == 1
	}, time.Second, 5*time.Millisecond)

	_, updates, _ := l.counts()
	assert.Positive(t, updates)
	assert.True(t, h.Paused())
	assert.Equal(t, 60*time.Millisecond, h.Position())
}

func TestHandle_PauseAbortsPendingPlay(t *testing.T) {
	h := New("test", Settings{TrackLength: time.Minute, StartLatency: 50 * time.Millisecond}, 10*time.Millisecond)
	require.NoError(t, h.Load("music/a.mp3"))

	outcome := h.Play()
	h.Pause()

	assert.True(t, errors.Is(wait(t, outcome), audio.ErrAborted))
	assert.True(t, h.Paused())
}

func TestHandle_PauseKeepsPosition(t *testing.T) {
	h := New("test", Settings{TrackLength: time.Minute}, 10*time.Millisecond)
	require.NoError(t, h.Load("music/a.mp3"))
	require.NoError(t, h.Seek(20*time.Second))

	require.NoError(t, wait(t, h.Play()))
	h.Pause()

	pos := h.Position()
	assert.GreaterOrEqual(t, pos, 20*time.Second)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, pos, h.Position())
}

func TestHandle_Seek(t *testing.T) {
	tests := []struct {
		name string
		pos  time.Duration
		want time.Duration
	}{
		{name: "inside", pos: 10 * time.Second, want: 10 * time.Second},
		{name: "negative", pos: -time.Second, want: 0},
		{name: "past end", pos: 5 * time.Minute, want: time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := New("test", Settings{TrackLength: time.Minute}, 10*time.Millisecond)
			require.NoError(t, h.Load("music/a.mp3"))

			require.NoError(t, h.Seek(tt.pos))
			assert.Equal(t, tt.want, h.Position())
		})
	}

	h := New("test", Settings{TrackLength: time.Minute}, 10*time.Millisecond)
	assert.True(t, errors.Is(h.Seek(time.Second), audio.ErrNoSource))
}

func TestHandle_Suspend(t *testing.T) {
	l := &listener{}
	h := New("test", Settings{TrackLength: time.Minute}, 10*time.Millisecond)
	h.SetListener(l)
	t.Cleanup(func() { _ = h.Close() })

	// Suspending a paused handle is silent.
	h.Suspend()
	_, _, paused := l.counts()
	assert.Zero(t, paused)

	require.NoError(t, h.Load("music/a.mp3"))
	require.NoError(t, wait(t, h.Play()))
	h.Suspend()

	_, _, paused = l.counts()
	assert.Equal(t, 1, paused)
	assert.True(t, h.Paused())
}

func TestHandle_CheckFiles(t *testing.T) {
	dir := t.TempDir()
	present := filepath.Join(dir, "a.mp3")
	require.NoError(t, os.WriteFile(present, []byte("x"), 0o644))

	h := New("test", Settings{TrackLength: time.Minute, CheckFiles: true}, 10*time.Millisecond)
	t.Cleanup(func() { _ = h.Close() })

	require.NoError(t, h.Load(filepath.Join(dir, "missing.mp3")))
	assert.True(t, errors.Is(wait(t, h.Play()), audio.ErrLoadFailure))

	require.NoError(t, h.Load(present))
	assert.NoError(t, wait(t, h.Play()))
}

func TestHandle_Closed(t *testing.T) {
	h := New("test", Settings{TrackLength: time.Minute}, 10*time.Millisecond)
	require.NoError(t, h.Close())

	assert.True(t, errors.Is(h.Load("music/a.mp3"), audio.ErrUnavailable))
	assert.True(t, errors.Is(wait(t, h.Play()), audio.ErrUnavailable))
}
