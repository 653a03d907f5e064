package cardclient

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"time"
)

// Cache keeps the last successfully fetched record per member so the card
// can be shown without network access.
type Cache interface {
	Get(ctx context.Context, id string) ([]byte, bool, error)
	Put(ctx context.Context, id string, payload []byte) error
}

// CacheKey is the storage key for a member's cached record.
func CacheKey(id string) string {
	return "member_" + id
}

// FileCache stores one JSON file per member under dir.
type FileCache struct {
	dir string
}

// NewFileCache creates dir if needed.
func NewFileCache(dir string) (*FileCache, error) {
	if dir == "" {
		return nil, fmt.Errorf("cache dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &FileCache{dir: dir}, nil
}

// path escapes the key so distinct ids never share a file and no id can
// leave dir.
func (c *FileCache) path(id string) string {
	return filepath.Join(c.dir, url.PathEscape(CacheKey(id))+".json")
}

func (c *FileCache) Get(_ context.Context, id string) ([]byte, bool, error) {
	raw, err := os.ReadFile(c.path(id))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read cached card: %w", err)
	}
	return raw, true, nil
}

func (c *FileCache) Put(_ context.Context, id string, payload []byte) error {
	tmp, err := os.CreateTemp(c.dir, ".card-*")
	if err != nil {
		return fmt.Errorf("cache card: %w", err)
	}
	if _, err := tmp.Write(payload); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("cache card: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("cache card: %w", err)
	}
	if err := os.Rename(tmp.Name(), c.path(id)); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("cache card: %w", err)
	}
	return nil
}

type redisCardStore interface {
	CacheCard(ctx context.Context, memberID string, payload []byte, ttl time.Duration) error
	CachedCard(ctx context.Context, memberID string) ([]byte, bool, error)
}

// RedisCache shares cached cards between processes through redis.
type RedisCache struct {
	store redisCardStore
	ttl   time.Duration
}

// NewRedisCache wraps the redis client; ttl <= 0 keeps entries forever.
func NewRedisCache(store redisCardStore, ttl time.Duration) (*RedisCache, error) {
	if store == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if ttl < 0 {
		ttl = 0
	}
	return &RedisCache{store: store, ttl: ttl}, nil
}

func (c *RedisCache) Get(ctx context.Context, id string) ([]byte, bool, error) {
	return c.store.CachedCard(ctx, id)
}

func (c *RedisCache) Put(ctx context.Context, id string, payload []byte) error {
	return c.store.CacheCard(ctx, id, payload, c.ttl)
}
