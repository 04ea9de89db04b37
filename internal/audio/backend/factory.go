// Package backend builds audio handles from configuration.
package backend

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/isaibox/internal/audio"
	"github.com/osa030/isaibox/internal/audio/beepaudio"
	"github.com/osa030/isaibox/internal/audio/simaudio"
	"github.com/osa030/isaibox/internal/infra/config"
)

// SlotNames are the names given to the two handles of a pair.
var SlotNames = [2]string{"slot-a", "slot-b"}

// NewPair creates the two handles backing the dual playback buffer.
func NewPair(cfg config.AudioConfig, interval time.Duration) ([2]audio.Handle, error) {
	var pair [2]audio.Handle

	zlog.Debug().Msgf("creating audio backend: type=%s settings=%+v", cfg.Backend, cfg.Settings)
	switch cfg.Backend {
	case "beep":
		var settings beepaudio.Settings
		if err := decodeSettings(cfg.Settings, &settings); err != nil {
			return pair, errors.Wrap(err, "invalid beep settings")
		}
		for i, name := range SlotNames {
			h, err := beepaudio.New(name, settings, interval)
			if err != nil {
				closeAll(pair[:i])
				return pair, errors.Wrapf(err, "failed to create handle %s", name)
			}
			pair[i] = h
		}

	case "sim":
		var settings simaudio.Settings
		if err := decodeSettings(cfg.Settings, &settings); err != nil {
			return pair, errors.Wrap(err, "invalid sim settings")
		}
		for i, name := range SlotNames {
			pair[i] = simaudio.New(name, settings, interval)
		}

	default:
		return pair, errors.Newf("unsupported audio backend: %s", cfg.Backend)
	}

	zlog.Info().Msgf("audio backend ready: type=%s", cfg.Backend)
	return pair, nil
}

// decodeSettings decodes map[string]any into out, then applies defaults and validation.
func decodeSettings(settings map[string]any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return errors.Wrap(err, "failed to create decoder")
	}

	if err := decoder.Decode(settings); err != nil {
		return errors.Wrap(err, "failed to decode settings")
	}

	if err := defaults.Set(out); err != nil {
		return errors.Wrap(err, "failed to set defaults")
	}

	if err := validator.New().Struct(out); err != nil {
		return errors.Wrap(err, "settings validation failed")
	}
	return nil
}

func closeAll(handles []audio.Handle) {
	for _, h := range handles {
		if h != nil {
			_ = h.Close()
		}
	}
}
