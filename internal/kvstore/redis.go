package kvstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// Redis is a Backend on a Redis server.
type Redis struct {
	rdb *goredis.Client
	ttl time.Duration
}

// RedisOpts configures the Redis backend.
type RedisOpts struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// RedisOption configures NewRedis.
type RedisOption func(*RedisOpts)

// WithRedisAddr sets the server address (host:port).
func WithRedisAddr(addr string) RedisOption {
	return func(o *RedisOpts) { o.Addr = strings.TrimSpace(addr) }
}

// WithRedisPassword sets the AUTH password.
func WithRedisPassword(pw string) RedisOption {
	return func(o *RedisOpts) { o.Password = pw }
}

// WithRedisDB selects the logical database.
func WithRedisDB(db int) RedisOption {
	return func(o *RedisOpts) { o.DB = db }
}

// WithRedisTTL expires keys after ttl. Zero keeps them forever.
func WithRedisTTL(ttl time.Duration) RedisOption {
	return func(o *RedisOpts) { o.TTL = ttl }
}

// NewRedis creates a Redis backend. It does not dial; Select probes it with Ping.
func NewRedis(opts ...RedisOption) (*Redis, error) {
	var cfg RedisOpts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Addr == "" {
		return nil, fmt.Errorf("missing redis address")
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})
	slog.Debug("kvstore.NewRedis: client created", "addr", cfg.Addr, "db", cfg.DB)
	return &Redis{rdb: rdb, ttl: cfg.TTL}, nil
}

func (r *Redis) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := r.rdb.Get(ctx, key).Result()
	if errors.Is(err, goredis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return v, true, nil
}

func (r *Redis) Set(ctx context.Context, key, value string) error {
	if err := r.rdb.Set(ctx, key, value, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (r *Redis) Delete(ctx context.Context, key string) error {
	if err := r.rdb.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

func (r *Redis) Ping(ctx context.Context) error {
	if err := r.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

func (r *Redis) Name() string { return "redis" }

// Close releases the client's connections.
func (r *Redis) Close() error {
	return r.rdb.Close()
}
