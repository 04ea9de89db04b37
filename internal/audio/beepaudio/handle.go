//go:build cgo

package beepaudio

import (
	"os"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/wav"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/isaibox/internal/audio"
	"github.com/osa030/isaibox/internal/domain/track"
)

// Available indicates whether speaker output is supported in this build.
const Available = true

var (
	speakerOnce sync.Once
	speakerErr  error
	speakerRate beep.SampleRate
)

// initSpeaker initialises the shared speaker once.
func initSpeaker(settings Settings) error {
	speakerOnce.Do(func() {
		speakerRate = beep.SampleRate(settings.SampleRate)
		speakerErr = speaker.Init(speakerRate, speakerRate.N(settings.BufferSize))
		if speakerErr == nil {
			zlog.Info().Msgf("beepaudio: speaker initialised: rate=%d buffer=%v", settings.SampleRate, settings.BufferSize)
		}
	})
	return speakerErr
}

// Handle is one speaker stream.
type Handle struct {
	mu sync.Mutex

	name     string
	settings Settings
	interval time.Duration
	listener audio.Listener

	source  string
	ready   chan struct{} // closed when decoding of source finished
	buffer  *beep.Buffer
	loadErr error

	streamer beep.StreamSeeker
	ctrl     *beep.Ctrl
	playing  bool
	gen      uint64 // bumped on load/pause/close; stale goroutines compare against it
	stream   uint64 // identifies the ctrl currently on the speaker
	closed   bool
}

// New creates a speaker-backed handle emitting time updates every interval.
func New(name string, settings Settings, interval time.Duration) (audio.Handle, error) {
	if err := initSpeaker(settings); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "failed to initialise speaker"), audio.ErrUnavailable)
	}
	return &Handle{
		name:     name,
		settings: settings,
		interval: interval,
		listener: audio.NopListener{},
	}, nil
}

// Load implements audio.Handle. Decoding runs in the background.
func (h *Handle) Load(path string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return audio.ErrUnavailable
	}

	h.stopLocked()
	h.gen++
	h.source = path
	h.buffer = nil
	h.loadErr = nil
	h.ready = make(chan struct{})

	go h.decode(h.gen, path, h.ready)
	return nil
}

// decode fills an in-memory buffer with the resampled contents of path.
func (h *Handle) decode(gen uint64, path string, ready chan struct{}) {
	defer close(ready)

	buf, err := decodeFile(path, h.settings.Quality)

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.gen != gen {
		return
	}
	if err != nil {
		h.loadErr = errors.Mark(err, audio.ErrLoadFailure)
		zlog.Warn().Err(err).Msgf("beepaudio: %s failed to decode %s", h.name, path)
		return
	}
	h.buffer = buf
	zlog.Debug().Msgf("beepaudio: %s decoded %s (%v)", h.name, path, speakerRate.D(buf.Len()))
}

func decodeFile(path string, quality int) (*beep.Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", path)
	}

	var (
		streamer beep.StreamSeekCloser
		format   beep.Format
	)
	switch ext := (track.Track{Path: path}).Ext(); ext {
	case "mp3":
		streamer, format, err = mp3.Decode(f)
	case "wav":
		streamer, format, err = wav.Decode(f)
	default:
		f.Close()
		return nil, errors.Newf("unsupported format %q", ext)
	}
	if err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "failed to decode %s", path)
	}
	defer streamer.Close()

	var source beep.Streamer = streamer
	if format.SampleRate != speakerRate {
		source = beep.Resample(quality, format.SampleRate, speakerRate, streamer)
	}

	buf := beep.NewBuffer(beep.Format{SampleRate: speakerRate, NumChannels: 2, Precision: 2})
	buf.Append(source)
	if err := streamer.Err(); err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", path)
	}
	return buf, nil
}

// Play implements audio.Handle. The outcome resolves once decoding is done.
func (h *Handle) Play() <-chan error {
	h.mu.Lock()
	defer h.mu.Unlock()

	switch {
	case h.closed:
		return audio.Resolved(audio.ErrUnavailable)
	case h.source == "":
		return audio.Resolved(audio.ErrNoSource)
	case h.playing:
		return audio.Resolved(nil)
	}

	gen := h.gen
	ready := h.ready
	outcome := make(chan error, 1)

	go func() {
		<-ready
		outcome <- h.start(gen)
	}()

	return outcome
}

// start puts the decoded buffer on the speaker.
func (h *Handle) start(gen uint64) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.gen != gen || h.closed {
		return audio.ErrAborted
	}
	if h.loadErr != nil {
		return h.loadErr
	}
	if h.buffer == nil {
		return errors.Mark(errors.Newf("%s not decoded", h.source), audio.ErrLoadFailure)
	}

	if h.ctrl == nil {
		if h.streamer == nil {
			h.streamer = h.buffer.Streamer(0, h.buffer.Len())
		}
		volume := &effects.Volume{
			Streamer: h.streamer,
			Base:     2,
			Volume:   h.settings.Volume,
		}
		h.stream++
		stream := h.stream
		h.ctrl = &beep.Ctrl{
			Streamer: beep.Seq(volume, beep.Callback(func() {
				// Runs on the speaker goroutine with the speaker locked.
				go h.ended(stream)
			})),
		}
		speaker.Play(h.ctrl)
	} else {
		speaker.Lock()
		h.ctrl.Paused = false
		speaker.Unlock()
	}

	h.playing = true
	go h.tick(gen)
	return nil
}

func (h *Handle) ended(stream uint64) {
	h.mu.Lock()
	if h.ctrl == nil || h.stream != stream {
		h.mu.Unlock()
		return
	}
	h.gen++
	h.playing = false
	h.ctrl = nil
	h.streamer = nil
	l := h.listener
	h.mu.Unlock()

	l.OnEnded()
}

// tick emits time updates while gen is current.
func (h *Handle) tick(gen uint64) {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for range ticker.C {
		h.mu.Lock()
		if h.gen != gen || !h.playing {
			h.mu.Unlock()
			return
		}
		pos := h.positionLocked()
		l := h.listener
		h.mu.Unlock()

		l.OnTimeUpdate(pos)
	}
}

// Pause implements audio.Handle.
func (h *Handle) Pause() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.gen++
	h.playing = false
	if h.ctrl != nil {
		speaker.Lock()
		h.ctrl.Paused = true
		speaker.Unlock()
	}
}

// stopLocked detaches the current stream from the speaker for good.
func (h *Handle) stopLocked() {
	if h.ctrl != nil {
		speaker.Lock()
		h.ctrl.Streamer = nil
		speaker.Unlock()
	}
	h.stream++
	h.ctrl = nil
	h.streamer = nil
	h.playing = false
}

// Seek implements audio.Handle.
func (h *Handle) Seek(pos time.Duration) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.buffer == nil {
		return audio.ErrNoSource
	}
	if h.streamer == nil {
		h.streamer = h.buffer.Streamer(0, h.buffer.Len())
	}

	n := speakerRate.N(pos)
	if n < 0 {
		n = 0
	}
	if last := h.streamer.Len() - 1; n > last {
		n = last
	}

	speaker.Lock()
	defer speaker.Unlock()
	return h.streamer.Seek(n)
}

// Position implements audio.Handle.
func (h *Handle) Position() time.Duration {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.positionLocked()
}

func (h *Handle) positionLocked() time.Duration {
	if h.streamer == nil {
		return 0
	}
	speaker.Lock()
	pos := h.streamer.Position()
	speaker.Unlock()
	return speakerRate.D(pos)
}

// Paused implements audio.Handle.
func (h *Handle) Paused() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return !h.playing
}

// SetListener implements audio.Handle.
func (h *Handle) SetListener(l audio.Listener) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.listener = l
}

// Close implements audio.Handle.
func (h *Handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.stopLocked()
	h.gen++
	h.closed = true
	h.buffer = nil
	return nil
}
