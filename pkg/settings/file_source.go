package settings

import (
	"context"
	"errors"
	"os"

	"gopkg.in/yaml.v3"
)

// FileSource reads settings from a YAML mapping on disk, such as a mounted
// ConfigMap. The file is re-read on every lookup the resolver does not serve
// from its cache.
type FileSource struct {
	path string
}

// NewFileSource creates a source over the YAML file at path
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Settings implements Source. An empty file yields no settings.
func (s *FileSource) Settings(ctx context.Context) (map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Join(ErrSourceUnavailable, err)
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, errors.Join(ErrSourceUnavailable, err)
	}

	var out map[string]any
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, errors.Join(ErrSourceUnavailable, ErrInvalidValue, err)
	}
	if out == nil {
		out = map[string]any{}
	}
	return out, nil
}
