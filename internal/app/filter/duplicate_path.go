package filter

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/osa030/isaibox/internal/domain/track"
)

// DuplicatePathConfig represents the configuration for DuplicatePathFilter.
type DuplicatePathConfig struct {
	IgnoreCase bool `mapstructure:"ignore_case"`
}

// DuplicatePathFilter keeps the first entry for each path.
// Paths are compared after filepath.Clean, so "a/../b.mp3" equals "b.mp3".
type DuplicatePathFilter struct {
	config DuplicatePathConfig
	seen   map[string]struct{}
}

// NewDuplicatePathFilter creates a new duplicate path filter.
func NewDuplicatePathFilter() *DuplicatePathFilter {
	return &DuplicatePathFilter{seen: make(map[string]struct{})}
}

func (f *DuplicatePathFilter) Name() string {
	return "duplicate_path_filter"
}

func (f *DuplicatePathFilter) Description() string {
	return "Drops catalog entries whose file already appears earlier in the catalog"
}

func (f *DuplicatePathFilter) ReturnCodes() []string {
	return []string{"duplicate_path"}
}

func (f *DuplicatePathFilter) ValidateConfig(settings map[string]any) error {
	return decodeSettings(settings, &f.config)
}

func (f *DuplicatePathFilter) Check(ctx context.Context, t track.Track) Result {
	key := filepath.Clean(t.Path)
	if f.config.IgnoreCase {
		key = strings.ToLower(key)
	}

	if _, ok := f.seen[key]; ok {
		return Reject("duplicate_path")
	}
	f.seen[key] = struct{}{}
	return Accept()
}

func init() {
	Register("duplicate_path_filter", func() Filter {
		return NewDuplicatePathFilter()
	})
}
