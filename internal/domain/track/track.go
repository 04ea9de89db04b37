// Package track provides the Track domain entity.
package track

import (
	"path/filepath"
	"strings"
)

// Track describes one playable audio file in the catalog.
// Tracks are immutable once loaded.
type Track struct {
	Path    string // Resource locator (file path)
	Label   string // Display label
	Details string // Secondary display line (artist, album, notes)
}

// New creates a track, deriving the label from the file name when empty.
func New(path, label, details string) Track {
	if label == "" {
		label = LabelFromPath(path)
	}
	return Track{
		Path:    path,
		Label:   label,
		Details: details,
	}
}

// LabelFromPath returns the file name of path without its extension.
func LabelFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Ext returns the lower-cased file extension without the dot.
func (t Track) Ext() string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(t.Path)), ".")
}

// String returns "Label" or "Label (Details)".
func (t Track) String() string {
	if t.Details == "" {
		return t.Label
	}
	return t.Label + " (" + t.Details + ")"
}
