// Package cache holds the persistent stores for the water source catalog.
package cache

import (
	"agri_service/internal/domain/model"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

const DefaultCacheFile = "turkiye_water_sources_cache.json"

var (
	// ErrCacheMiss means the store holds no catalog yet.
	ErrCacheMiss = errors.New("water source cache miss")
	// ErrCacheCorrupt means a catalog exists but cannot be decoded.
	ErrCacheCorrupt = errors.New("water source cache corrupt")
)

// FileStore keeps the catalog as an indented JSON array on disk.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	if path == "" {
		path = DefaultCacheFile
	}
	return &FileStore{path: path}
}

func (s *FileStore) Name() string {
	return "file:" + s.path
}

func (s *FileStore) Path() string {
	return s.path
}

// Load returns ErrCacheMiss when the file does not exist, ErrCacheCorrupt when it
// cannot be parsed and a wrapped I/O error otherwise.
func (s *FileStore) Load(ctx context.Context) ([]model.WaterFeature, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("failed to read cache file %s: %w", s.path, err)
	}

	var features []model.WaterFeature
	if err := json.Unmarshal(data, &features); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCacheCorrupt, s.path, err)
	}
	if features == nil {
		features = []model.WaterFeature{}
	}

	return features, nil
}

func (s *FileStore) Save(ctx context.Context, features []model.WaterFeature) error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create cache directory: %w", err)
		}
	}

	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(features); err != nil {
		return fmt.Errorf("failed to encode water sources: %w", err)
	}

	if err := os.WriteFile(s.path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write cache file %s: %w", s.path, err)
	}
	return nil
}
