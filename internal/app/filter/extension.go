package filter

import (
	"context"
	"strings"

	"github.com/samber/lo"

	"github.com/osa030/isaibox/internal/domain/track"
)

// ExtensionConfig represents the configuration for ExtensionFilter.
type ExtensionConfig struct {
	Allowed []string `mapstructure:"allowed" default:"[\"mp3\",\"wav\"]" validate:"min=1,dive,required"`
}

// ExtensionFilter accepts only files the audio backends can decode.
type ExtensionFilter struct {
	allowed []string
}

func (f *ExtensionFilter) Name() string {
	return "extension_filter"
}

func (f *ExtensionFilter) Description() string {
	return "Drops catalog entries whose file extension is not in the allowed list"
}

func (f *ExtensionFilter) ReturnCodes() []string {
	return []string{"unsupported_extension"}
}

func (f *ExtensionFilter) ValidateConfig(settings map[string]any) error {
	var config ExtensionConfig
	if err := decodeSettings(settings, &config); err != nil {
		return err
	}
	f.allowed = lo.Map(config.Allowed, func(ext string, _ int) string {
		return strings.TrimPrefix(strings.ToLower(ext), ".")
	})
	return nil
}

func (f *ExtensionFilter) Check(ctx context.Context, t track.Track) Result {
	// Unconfigured filter accepts all tracks
	if len(f.allowed) == 0 {
		return Accept()
	}
	if !lo.Contains(f.allowed, t.Ext()) {
		return Reject("unsupported_extension")
	}
	return Accept()
}

func init() {
	Register("extension_filter", func() Filter {
		return &ExtensionFilter{}
	})
}
