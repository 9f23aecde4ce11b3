package service

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// RenderCache keeps recently rendered pages. Documents are immutable, so a
// fingerprint, page and zoom fully identify an image.
type RenderCache struct {
	pages *lru.Cache[string, []byte]
}

// NewRenderCache creates a cache holding at most size pages.
func NewRenderCache(size int) (*RenderCache, error) {
	pages, err := lru.New[string, []byte](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create render cache: %w", err)
	}
	return &RenderCache{pages: pages}, nil
}

func renderKey(fingerprint string, page, zoomPercent int) string {
	return fmt.Sprintf("%s/%d@%d", fingerprint, page, zoomPercent)
}

// Get returns a cached image.
func (c *RenderCache) Get(fingerprint string, page, zoomPercent int) ([]byte, bool) {
	return c.pages.Get(renderKey(fingerprint, page, zoomPercent))
}

// Put stores an image.
func (c *RenderCache) Put(fingerprint string, page, zoomPercent int, image []byte) {
	c.pages.Add(renderKey(fingerprint, page, zoomPercent), image)
}

// Len returns the number of cached pages.
func (c *RenderCache) Len() int {
	return c.pages.Len()
}
