// Package storage locates demo screenshots for the seed pipeline, either in
// a local directory or in a Supabase storage bucket.
package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrNotFound is returned when no screenshot exists for a slug.
var ErrNotFound = errors.New("screenshot not found")

// Extensions are tried in this order for each slug.
var Extensions = []string{".jpg", ".jpeg", ".png"}

type Screenshot struct {
	Name string
	Data []byte
}

type Source interface {
	Find(ctx context.Context, slug string) (*Screenshot, error)
}

// DirSource reads <slug>.jpg, <slug>.jpeg or <slug>.png from a directory.
type DirSource struct {
	dir string
}

func NewDirSource(dir string) *DirSource {
	return &DirSource{dir: dir}
}

func (s *DirSource) Find(ctx context.Context, slug string) (*Screenshot, error) {
	for _, ext := range Extensions {
		name := slug + ext
		data, err := os.ReadFile(filepath.Join(s.dir, name))
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
		return &Screenshot{Name: name, Data: data}, nil
	}
	return nil, fmt.Errorf("%w: %s in %s", ErrNotFound, slug, s.dir)
}
