package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ikkim/shopauth-backend/config"
	"github.com/ikkim/shopauth-backend/pkg/logger"
	"github.com/redis/go-redis/v9"
)

const blacklistPrefix = "blacklist:"

var client *redis.Client

// Init initializes Redis connection
func Init(cfg *config.RedisConfig) error {
	logger.Info("Initializing Redis connection", map[string]interface{}{
		"host": cfg.Host,
		"port": cfg.Port,
		"db":   cfg.DB,
	})

	client = redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logger.Error("Failed to connect to Redis", err, map[string]interface{}{
			"host": cfg.Host,
			"port": cfg.Port,
		})
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Redis connection established successfully")
	return nil
}

// GetClient returns the Redis client instance
func GetClient() *redis.Client {
	return client
}

// Close closes the Redis connection
func Close() error {
	if client != nil {
		logger.Info("Closing Redis connection")
		return client.Close()
	}
	return nil
}

// Blacklist records revoked session ids until they would have expired anyway.
type Blacklist struct {
	client *redis.Client
}

func NewBlacklist(c *redis.Client) *Blacklist {
	return &Blacklist{client: c}
}

// Revoke blacklists a session id for ttl. A non-positive ttl means the
// session is already expired and nothing is stored.
func (b *Blacklist) Revoke(ctx context.Context, sessionID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}

	logger.Debug("Adding session to blacklist", map[string]interface{}{
		"expiry": ttl.String(),
	})

	if err := b.client.Set(ctx, blacklistKey(sessionID), "revoked", ttl).Err(); err != nil {
		logger.Error("Failed to blacklist session", err)
		return err
	}
	return nil
}

// IsRevoked reports whether a session id is in the blacklist.
func (b *Blacklist) IsRevoked(ctx context.Context, sessionID string) (bool, error) {
	val, err := b.client.Get(ctx, blacklistKey(sessionID)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		logger.Error("Failed to check session blacklist", err)
		return false, err
	}
	return val == "revoked", nil
}

func blacklistKey(sessionID string) string {
	return blacklistPrefix + sessionID
}
