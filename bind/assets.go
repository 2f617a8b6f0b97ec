package bind

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sync"

	"github.com/zeebo/blake3"
)

// AssetStore is a content-addressed store for image crops. Assets are
// keyed by the blake3 hash of their encoded bytes, so identical crops
// from overlapping boxes are stored exactly once. The store is safe for
// concurrent use by page workers.
type AssetStore struct {
	mu   sync.Mutex
	root string
	// paths caches hash -> relative path for crops already written
	paths map[string]string
}

// NewAssetStore creates a store rooted at dir. Assets are written under
// dir as <hash>.png. An empty dir creates an in-memory store that
// registers hashes without writing files (useful for dry runs and tests).
func NewAssetStore(dir string) *AssetStore {
	return &AssetStore{
		root:  dir,
		paths: make(map[string]string),
	}
}

// Put registers an image crop and returns its content hash and relative
// path. The path is stable across runs for identical pixel content.
func (s *AssetStore) Put(img image.Image) (hash, relPath string, err error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", "", fmt.Errorf("encode asset: %w", err)
	}

	sum := blake3.Sum256(buf.Bytes())
	hash = hex.EncodeToString(sum[:])
	relPath = hash + ".png"

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.paths[hash]; ok {
		return hash, existing, nil
	}

	if s.root != "" {
		fullPath := filepath.Join(s.root, relPath)
		if err := os.MkdirAll(s.root, 0755); err != nil {
			return "", "", fmt.Errorf("create asset directory: %w", err)
		}
		// A file that already exists has identical content by
		// construction; skip the rewrite.
		if _, statErr := os.Stat(fullPath); os.IsNotExist(statErr) {
			if err := os.WriteFile(fullPath, buf.Bytes(), 0644); err != nil {
				return "", "", fmt.Errorf("write asset: %w", err)
			}
		}
	}

	s.paths[hash] = relPath
	return hash, relPath, nil
}

// Len returns the number of distinct assets registered
func (s *AssetStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.paths)
}
