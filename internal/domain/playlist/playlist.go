// Package playlist provides the Playlist domain entity (the track catalog).
package playlist

import (
	"github.com/cockroachdb/errors"
	"github.com/samber/lo"

	"github.com/osa030/isaibox/internal/domain/track"
)

var (
	ErrEmpty      = errors.New("playlist has no tracks")
	ErrOutOfRange = errors.New("track index out of range")
)

// Playlist is an ordered, read-only list of tracks.
type Playlist struct {
	name   string
	tracks []track.Track
}

// New creates a playlist from tracks. The slice is copied.
func New(name string, tracks []track.Track) (*Playlist, error) {
	if len(tracks) == 0 {
		return nil, ErrEmpty
	}
	for i, t := range tracks {
		if t.Path == "" {
			return nil, errors.Newf("track %d has no path", i)
		}
	}

	copied := make([]track.Track, len(tracks))
	copy(copied, tracks)
	return &Playlist{name: name, tracks: copied}, nil
}

// Name returns the playlist name.
func (p *Playlist) Name() string {
	return p.name
}

// Len returns the number of tracks.
func (p *Playlist) Len() int {
	return len(p.tracks)
}

// At returns the track at index i.
func (p *Playlist) At(i int) (track.Track, error) {
	if !p.Valid(i) {
		return track.Track{}, errors.Wrapf(ErrOutOfRange, "index %d not in [0,%d)", i, len(p.tracks))
	}
	return p.tracks[i], nil
}

// Valid reports whether i is a valid index.
func (p *Playlist) Valid(i int) bool {
	return i >= 0 && i < len(p.tracks)
}

// NextIndex returns the index following i, wrapping to 0 after the last track.
func (p *Playlist) NextIndex(i int) int {
	return (i + 1) % len(p.tracks)
}

// Tracks returns a copy of all tracks.
func (p *Playlist) Tracks() []track.Track {
	result := make([]track.Track, len(p.tracks))
	copy(result, p.tracks)
	return result
}

// Paths returns all track paths.
func (p *Playlist) Paths() []string {
	return lo.Map(p.tracks, func(t track.Track, _ int) string {
		return t.Path
	})
}
