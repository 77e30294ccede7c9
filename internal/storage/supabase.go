package storage

import (
	"context"
	"fmt"
	"strings"

	storage_go "github.com/supabase-community/storage-go"
)

// SupabaseSource looks screenshots up in one storage bucket. Objects are
// matched by name, so "cyberpunk" finds "cyberpunk.png" at the bucket root.
type SupabaseSource struct {
	client *storage_go.Client
	bucket string
}

func NewSupabaseSource(supabaseURL, serviceKey, bucket string) *SupabaseSource {
	baseURL := strings.TrimSuffix(supabaseURL, "/")
	return &SupabaseSource{
		client: storage_go.NewClient(baseURL+"/storage/v1", serviceKey, nil),
		bucket: bucket,
	}
}

func (s *SupabaseSource) Find(ctx context.Context, slug string) (*Screenshot, error) {
	files, err := s.client.ListFiles(s.bucket, "", storage_go.FileSearchOptions{
		Limit: 1000,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list bucket %s: %w", s.bucket, err)
	}

	names := make(map[string]bool, len(files))
	for _, file := range files {
		names[file.Name] = true
	}

	for _, ext := range Extensions {
		name := slug + ext
		if !names[name] {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := s.client.DownloadFile(s.bucket, name)
		if err != nil {
			return nil, fmt.Errorf("failed to download file: %w", err)
		}
		return &Screenshot{Name: name, Data: data}, nil
	}

	return nil, fmt.Errorf("%w: %s in bucket %s", ErrNotFound, slug, s.bucket)
}
