// Package file provides a contrib/config.Source that reads a single
// local YAML file, tolerating a missing file (relay's config overlay
// is optional — the CLI contract in spec.md §6 is the only required
// input).
package file

import (
	"os"
	"path/filepath"

	"github.com/relayhttp/relay/contrib/config"
)

var _ config.Source = (*fileSource)(nil)

type fileSource struct {
	path string
}

// NewSource returns a Source reading path. Load returns no KeyValues
// (not an error) when path does not exist.
func NewSource(path string) config.Source {
	return &fileSource{path: path}
}

func (f *fileSource) Load() ([]*config.KeyValue, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	format := "yaml"
	if ext := filepath.Ext(f.path); ext == ".json" {
		format = "json"
	}

	return []*config.KeyValue{
		{
			Key:    f.path,
			Value:  data,
			Format: format,
		},
	}, nil
}

func (f *fileSource) Watch() (config.Watcher, error) {
	return nil, nil
}
