// Package beepaudio plays audio through the system speaker using beep.
//
// Each Handle decodes its file fully into memory when loaded, so a handle
// loaded ahead of time starts without a decoding gap. All handles share the
// process-wide beep speaker, which is initialised once with the sample rate
// from Settings.
package beepaudio

import "time"

// Settings configures the beep backend.
type Settings struct {
	SampleRate int           `mapstructure:"sample_rate" default:"44100" validate:"gte=8000,lte=192000"`
	BufferSize time.Duration `mapstructure:"buffer_size" default:"100ms" validate:"gt=0"`
	Volume     float64       `mapstructure:"volume" validate:"gte=-10,lte=2"` // base-2 gain, 0 is unchanged
	Quality    int           `mapstructure:"resample_quality" default:"4" validate:"gte=1,lte=64"`
}
