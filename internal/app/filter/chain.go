package filter

import (
	"context"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/isaibox/internal/domain/playlist"
	"github.com/osa030/isaibox/internal/domain/track"
	"github.com/osa030/isaibox/internal/infra/config"
)

// Rejection records a dropped catalog entry.
type Rejection struct {
	Track  track.Track
	Filter string
	Code   string
}

// Chain executes filters in sequence.
type Chain struct {
	filters []Filter
}

// NewChain creates a new filter chain.
func NewChain() *Chain {
	return &Chain{
		filters: make([]Filter, 0),
	}
}

// Build creates a chain from the enabled filters in cfgs, in name order.
func Build(cfgs map[string]config.FilterConfig) (*Chain, error) {
	chain := NewChain()
	for _, name := range Names() {
		cfg, ok := cfgs[name]
		if !ok || !cfg.Enabled {
			continue
		}
		f := registry[name]()
		if err := f.ValidateConfig(cfg.Settings); err != nil {
			return nil, errors.Wrapf(err, "filter %s", name)
		}
		chain.Add(f)
	}

	for name := range cfgs {
		if _, ok := registry[name]; !ok {
			return nil, errors.Newf("unknown filter %q", name)
		}
	}
	return chain, nil
}

// Add adds a filter to the chain.
func (c *Chain) Add(f Filter) {
	c.filters = append(c.filters, f)
}

// Execute runs all filters in sequence.
// Returns immediately if any filter rejects the track; name is the rejecting filter.
func (c *Chain) Execute(ctx context.Context, t track.Track) (Result, string) {
	for _, f := range c.filters {
		if result := f.Check(ctx, t); !result.Accepted {
			return result, f.Name()
		}
	}
	return Accept(), ""
}

// Apply filters pl and returns a playlist of the accepted tracks, in order.
// It fails with playlist.ErrEmpty when every track is rejected.
func (c *Chain) Apply(ctx context.Context, pl *playlist.Playlist) (*playlist.Playlist, []Rejection, error) {
	if len(c.filters) == 0 {
		return pl, nil, nil
	}

	var (
		kept     []track.Track
		rejected []Rejection
	)
	for _, t := range pl.Tracks() {
		result, name := c.Execute(ctx, t)
		if !result.Accepted {
			zlog.Warn().Msgf("filter: dropping %s (%s: %s)", t.Path, name, result.Code)
			rejected = append(rejected, Rejection{Track: t, Filter: name, Code: result.Code})
			continue
		}
		kept = append(kept, t)
	}

	filtered, err := playlist.New(pl.Name(), kept)
	if err != nil {
		return nil, rejected, errors.Wrap(err, "no playable tracks left after filtering")
	}
	return filtered, rejected, nil
}

// Filters returns all filters in the chain.
func (c *Chain) Filters() []Filter {
	return c.filters
}
