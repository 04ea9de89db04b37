//go:build !cgo

package beepaudio

import (
	"time"

	"github.com/osa030/isaibox/internal/audio"
)

// Available indicates whether speaker output is supported in this build.
// The speaker needs cgo for the native sound libraries.
const Available = false

// New always fails when cgo is disabled.
func New(name string, settings Settings, interval time.Duration) (audio.Handle, error) {
	return nil, audio.ErrUnavailable
}
