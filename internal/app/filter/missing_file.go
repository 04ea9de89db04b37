package filter

import (
	"context"
	"os"

	"github.com/osa030/isaibox/internal/domain/track"
)

// MissingFileConfig represents the configuration for MissingFileFilter.
type MissingFileConfig struct {
	// MinBytes rejects files smaller than this (0 accepts empty files).
	MinBytes int64 `mapstructure:"min_bytes" validate:"gte=0"`
}

// MissingFileFilter drops entries that do not point at a readable regular file.
type MissingFileFilter struct {
	config MissingFileConfig
}

func (f *MissingFileFilter) Name() string {
	return "missing_file_filter"
}

func (f *MissingFileFilter) Description() string {
	return "Drops catalog entries whose file does not exist or is too small"
}

func (f *MissingFileFilter) ReturnCodes() []string {
	return []string{"missing_file", "file_too_small"}
}

func (f *MissingFileFilter) ValidateConfig(settings map[string]any) error {
	return decodeSettings(settings, &f.config)
}

func (f *MissingFileFilter) Check(ctx context.Context, t track.Track) Result {
	info, err := os.Stat(t.Path)
	if err != nil || !info.Mode().IsRegular() {
		return Reject("missing_file")
	}
	if info.Size() < f.config.MinBytes {
		return Reject("file_too_small")
	}
	return Accept()
}

func init() {
	Register("missing_file_filter", func() Filter {
		return &MissingFileFilter{}
	})
}
