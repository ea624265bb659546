package bootstrap

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	appconfig "github.com/wolfman30/orch-console/internal/config"
	"github.com/wolfman30/orch-console/internal/session"
	"github.com/wolfman30/orch-console/pkg/logging"
)

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available", "error", err)
		_ = client.Close()
		return nil
	}
	return client
}

// SessionBackend is the session store the console runs on, plus the health
// probe and release hook that belong to it.
type SessionBackend struct {
	Store  session.Store
	Kind   string
	Health func(context.Context) error
	Close  func() error
}

// BuildSessionStore picks the session store from config. SESSION_STORE=redis
// with a reachable REDIS_ADDR gives the shared Redis store; anything else
// falls back to the in-process store.
func BuildSessionStore(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (*SessionBackend, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	if cfg.UseRedisSessions() {
		client := BuildRedisClient(ctx, cfg, logger, true)
		if client != nil {
			logger.Info("session store ready", "kind", "redis", "addr", cfg.RedisAddr, "ttl", cfg.SessionTTL.String())
			return &SessionBackend{
				Store:  session.NewRedisStore(client, cfg.SessionTTL),
				Kind:   "redis",
				Health: func(ctx context.Context) error { return client.Ping(ctx).Err() },
				Close:  client.Close,
			}, nil
		}
		logger.Warn("redis session store unavailable; using memory store")
	} else if cfg.SessionStore == "redis" {
		logger.Warn("SESSION_STORE=redis without REDIS_ADDR; using memory store")
	}

	mem := session.NewMemoryStore(cfg.SessionTTL)
	logger.Info("session store ready", "kind", "memory", "ttl", cfg.SessionTTL.String())
	return &SessionBackend{
		Store: mem,
		Kind:  "memory",
		Close: func() error { mem.Close(); return nil },
	}, nil
}
