// Package catalogfile builds the track catalog from a YAML file or a directory.
package catalogfile

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"github.com/osa030/isaibox/internal/domain/playlist"
	"github.com/osa030/isaibox/internal/domain/track"
	"github.com/osa030/isaibox/internal/infra/config"
)

// Extensions lists the file types picked up by Scan.
var Extensions = []string{"mp3", "wav"}

type fileEntry struct {
	Path    string `yaml:"path"`
	Label   string `yaml:"label"`
	Details string `yaml:"details"`
}

type file struct {
	Name   string      `yaml:"name"`
	Tracks []fileEntry `yaml:"tracks"`
}

// Open builds the catalog selected by cfg.
func Open(cfg config.CatalogConfig) (*playlist.Playlist, error) {
	if cfg.File != "" {
		return Load(cfg.File, cfg.Name)
	}
	return Scan(cfg.Dir, cfg.Name)
}

// Load reads a YAML catalog. Relative track paths are resolved against the
// directory containing the catalog file. A name in the file wins over name.
func Load(path, name string) (*playlist.Playlist, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read catalog file")
	}

	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrap(err, "failed to parse catalog file")
	}
	if f.Name != "" {
		name = f.Name
	}

	base := filepath.Dir(path)
	tracks := lo.Map(f.Tracks, func(e fileEntry, _ int) track.Track {
		p := e.Path
		if p != "" && !filepath.IsAbs(p) {
			p = filepath.Join(base, p)
		}
		return track.New(p, e.Label, e.Details)
	})

	pl, err := playlist.New(name, tracks)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid catalog %s", path)
	}
	return pl, nil
}

// Scan builds a catalog from the supported audio files directly inside dir,
// sorted by file name.
func Scan(dir, name string) (*playlist.Playlist, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read catalog directory")
	}

	names := lo.FilterMap(entries, func(e os.DirEntry, _ int) (string, bool) {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			return "", false
		}
		ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(e.Name())), ".")
		return e.Name(), lo.Contains(Extensions, ext)
	})
	sort.Strings(names)

	tracks := lo.Map(names, func(n string, _ int) track.Track {
		return track.New(filepath.Join(dir, n), "", "")
	})

	pl, err := playlist.New(name, tracks)
	if err != nil {
		return nil, errors.Wrapf(err, "no playable files in %s", dir)
	}
	return pl, nil
}
