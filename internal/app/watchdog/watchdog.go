// Package watchdog detects frozen playback.
//
// The watchdog is fed the active slot's position on every position update.
// While armed, a position that stays unchanged for longer than the threshold
// counts as a stall: the stall callback fires once and the watchdog stays
// triggered until it is armed or disarmed again.
package watchdog

import (
	"sync"
	"time"

	zlog "github.com/rs/zerolog/log"
)

// State represents the watchdog state.
type State int

const (
	StateIdle      State = iota // Playback not expected to progress
	StateArmed                  // Watching for a frozen position
	StateTriggered              // Stall reported, waiting for re-arm
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateArmed:
		return "armed"
	case StateTriggered:
		return "triggered"
	default:
		return "unknown"
	}
}

// Sample is the baseline the next position is compared against.
type Sample struct {
	Position time.Duration
	At       time.Time
}

// Watchdog tracks one position stream.
type Watchdog struct {
	mu sync.Mutex

	threshold time.Duration
	now       func() time.Time
	onStall   func()

	state    State
	baseline *Sample
}

// Option configures a Watchdog.
type Option func(*Watchdog)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(w *Watchdog) {
		w.now = now
	}
}

// New creates an idle watchdog calling onStall on each detected stall.
func New(threshold time.Duration, onStall func(), opts ...Option) *Watchdog {
	w := &Watchdog{
		threshold: threshold,
		now:       time.Now,
		onStall:   onStall,
		state:     StateIdle,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Arm starts watching. The next sample only sets the baseline.
func (w *Watchdog) Arm() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.state = StateArmed
	w.baseline = nil
}

// Disarm stops watching.
func (w *Watchdog) Disarm() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.state = StateIdle
	w.baseline = nil
}

// Reset drops the baseline without changing state. Used when the observed
// slot changes or the position jumps.
func (w *Watchdog) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.baseline = nil
}

// State returns the current state.
func (w *Watchdog) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Baseline returns a copy of the current baseline, if any.
func (w *Watchdog) Baseline() (Sample, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.baseline == nil {
		return Sample{}, false
	}
	return *w.baseline, true
}

// Observe records a position sample. It reports whether a stall was detected.
func (w *Watchdog) Observe(pos time.Duration) bool {
	w.mu.Lock()

	if w.state != StateArmed {
		w.mu.Unlock()
		return false
	}

	now := w.now()
	if w.baseline == nil || w.baseline.Position != pos {
		w.baseline = &Sample{Position: pos, At: now}
		w.mu.Unlock()
		return false
	}

	frozen := now.Sub(w.baseline.At)
	if frozen <= w.threshold {
		w.mu.Unlock()
		return false
	}

	w.state = StateTriggered
	w.baseline = nil
	w.mu.Unlock()

	zlog.Debug().Msgf("watchdog: position frozen at %v for %v", pos, frozen)
	if w.onStall != nil {
		w.onStall()
	}
	return true
}
