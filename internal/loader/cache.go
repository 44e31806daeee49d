package loader

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru"

	"github.com/abbot-build/abbot/internal/document"
	"github.com/abbot-build/abbot/internal/metrics"
)

// FileLoader parses one configuration file.
type FileLoader interface {
	LoadFile(path string, format Format) (*document.Document, error)
}

// Cache keeps recently loaded documents keyed by file path, size and
// modification time, so that several bundle trees built in one process parse
// each file once. A file that changes on disk is loaded again.
type Cache struct {
	next  FileLoader
	cache *lru.Cache
}

func NewCache(next FileLoader, size int) (*Cache, error) {
	c, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &Cache{next: next, cache: c}, nil
}

func (c *Cache) Load(root string) (*document.Document, error) {
	path, f, fi, err := Find(root)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return document.New(), nil
	}

	key := fmt.Sprintf("%s@%d:%d", path, fi.ModTime().UnixNano(), fi.Size())
	if doc, ok := c.cache.Get(key); ok {
		metrics.ConfigCacheHits.Inc()
		return doc.(*document.Document), nil
	}

	doc, err := c.next.LoadFile(path, f.Format)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, doc)
	return doc, nil
}

// Len returns the number of cached documents.
func (c *Cache) Len() int {
	return c.cache.Len()
}
