package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/membercards/pkg/config"
	"github.com/angelmondragon/membercards/pkg/logger"
	"github.com/redis/go-redis/v9"
)

// Every key lives under mc:<kind>:...
const (
	keyNamespace  = "mc"
	kindReplay    = "idempotency"
	kindRateLimit = "rate_limit"
	kindCardCache = "card"
	cardKeyPrefix = "member_"
)

// ErrNotInitialized is returned by every helper when the client has no connection.
var ErrNotInitialized = errors.New("redis client not initialized")

type cmdable interface {
	Ping(context.Context) *redis.StatusCmd
	Set(context.Context, string, any, time.Duration) *redis.StatusCmd
	Get(context.Context, string) *redis.StringCmd
	SetNX(context.Context, string, any, time.Duration) *redis.BoolCmd
	Incr(context.Context, string) *redis.IntCmd
	Expire(context.Context, string, time.Duration) *redis.BoolCmd
}

// Client backs login throttling, member-create replays and the shared card
// cache. A zero Client reports ErrNotInitialized from every call.
type Client struct {
	store cmdable
	raw   *redis.Client
}

// Replay is the response stored for an Idempotency-Key on POST /api/members.
type Replay struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type,omitempty"`
	Body        []byte `json:"body"`
	RequestHash string `json:"request_hash"`
}

// IdempotencyStore is what the create-replay middleware needs.
type IdempotencyStore interface {
	LookupReplay(ctx context.Context, scope, id string) (*Replay, error)
	SaveReplay(ctx context.Context, scope, id string, replay Replay, ttl time.Duration) (bool, error)
}

// RateLimiter counts attempts per scope in fixed windows.
type RateLimiter interface {
	Allow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// New connects using cfg and fails when the server does not answer a ping.
func New(ctx context.Context, cfg config.RedisConfig, logg *logger.Logger) (*Client, error) {
	opts, err := optionsFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	raw := redis.NewClient(opts)
	if err := raw.Ping(ctx).Err(); err != nil {
		_ = raw.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", opts.Addr, err)
	}
	if logg != nil {
		logg.Info(logg.WithFields(ctx, map[string]any{"addr": opts.Addr, "db": opts.DB}), "redis connection established")
	}
	return &Client{store: raw, raw: raw}, nil
}

// optionsFromConfig prefers the URL; pool and timeout settings from cfg fill
// whatever the URL leaves unset.
func optionsFromConfig(cfg config.RedisConfig) (*redis.Options, error) {
	if !cfg.Enabled() {
		return nil, errors.New("redis url or address is required")
	}

	opts := &redis.Options{Addr: strings.TrimSpace(cfg.Address), Password: cfg.Password, DB: cfg.DB}
	if u := strings.TrimSpace(cfg.URL); u != "" {
		parsed, err := redis.ParseURL(u)
		if err != nil {
			return nil, fmt.Errorf("parsing redis url: %w", err)
		}
		opts = parsed
	}

	fillInt(&opts.DB, cfg.DB)
	fillInt(&opts.PoolSize, cfg.PoolSize)
	fillInt(&opts.MinIdleConns, cfg.MinIdleConns)
	fillDuration(&opts.DialTimeout, cfg.DialTimeout)
	fillDuration(&opts.ReadTimeout, cfg.ReadTimeout)
	fillDuration(&opts.WriteTimeout, cfg.WriteTimeout)
	return opts, nil
}

func fillInt(dst *int, v int) {
	if *dst == 0 {
		*dst = v
	}
}

func fillDuration(dst *time.Duration, v time.Duration) {
	if *dst == 0 {
		*dst = v
	}
}

func (c *Client) conn() (cmdable, error) {
	if c == nil || c.store == nil {
		return nil, ErrNotInitialized
	}
	return c.store, nil
}

// Allow increments the window counter for scope and reports whether the
// attempt is within limit. The window starts at the first attempt.
func (c *Client) Allow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error) {
	store, err := c.conn()
	if err != nil {
		return false, 0, err
	}
	key := c.RateLimitKey(scope)
	count, err := store.Incr(ctx, key).Result()
	if err != nil {
		return false, 0, err
	}
	if count == 1 && window > 0 {
		if err := store.Expire(ctx, key, window).Err(); err != nil {
			return false, count, err
		}
	}
	return count <= limit, count, nil
}

// LookupReplay returns the stored replay, or nil when none exists.
func (c *Client) LookupReplay(ctx context.Context, scope, id string) (*Replay, error) {
	store, err := c.conn()
	if err != nil {
		return nil, err
	}
	raw, err := store.Get(ctx, c.IdempotencyKey(scope, id)).Bytes()
	if IsNil(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var replay Replay
	if err := json.Unmarshal(raw, &replay); err != nil {
		return nil, fmt.Errorf("decode replay: %w", err)
	}
	return &replay, nil
}

// SaveReplay stores replay unless the key is already taken; ok is false when
// a concurrent request won.
func (c *Client) SaveReplay(ctx context.Context, scope, id string, replay Replay, ttl time.Duration) (bool, error) {
	store, err := c.conn()
	if err != nil {
		return false, err
	}
	payload, err := json.Marshal(replay)
	if err != nil {
		return false, fmt.Errorf("encode replay: %w", err)
	}
	return store.SetNX(ctx, c.IdempotencyKey(scope, id), payload, ttl).Result()
}

// CacheCard stores the serialized member record for offline card rendering.
func (c *Client) CacheCard(ctx context.Context, memberID string, payload []byte, ttl time.Duration) error {
	store, err := c.conn()
	if err != nil {
		return err
	}
	return store.Set(ctx, c.CardCacheKey(memberID), string(payload), ttl).Err()
}

// CachedCard returns the cached record; ok is false on a cache miss.
func (c *Client) CachedCard(ctx context.Context, memberID string) ([]byte, bool, error) {
	store, err := c.conn()
	if err != nil {
		return nil, false, err
	}
	value, err := store.Get(ctx, c.CardCacheKey(memberID)).Bytes()
	switch {
	case IsNil(err):
		return nil, false, nil
	case err != nil:
		return nil, false, err
	}
	return value, true, nil
}

func (c *Client) IdempotencyKey(scope, id string) string {
	return buildKey(kindReplay, scope, id)
}

func (c *Client) RateLimitKey(scope string) string {
	return buildKey(kindRateLimit, scope)
}

// CardCacheKey matches the card client's cache key, member_<id>.
func (c *Client) CardCacheKey(memberID string) string {
	return buildKey(kindCardCache, cardKeyPrefix+memberID)
}

// IsNil reports whether err is redis' missing-key sentinel.
func IsNil(err error) bool {
	return errors.Is(err, redis.Nil)
}

// Ping backs the /health/ready redis check.
func (c *Client) Ping(ctx context.Context) error {
	store, err := c.conn()
	if err != nil {
		return err
	}
	return store.Ping(ctx).Err()
}

func (c *Client) Close() error {
	if c == nil || c.raw == nil {
		return nil
	}
	return c.raw.Close()
}

// buildKey joins the namespace, kind and non-empty parts.
func buildKey(kind string, parts ...string) string {
	out := []string{keyNamespace, kind}
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return strings.Join(out, ":")
}
