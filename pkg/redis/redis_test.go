package redis

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

// unreachableClient points at a port nothing listens on.
func unreachableClient(t *testing.T) *redis.Client {
	c := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestBlacklist_RevokeExpiredSessionIsNoop(t *testing.T) {
	b := NewBlacklist(unreachableClient(t))

	assert.NoError(t, b.Revoke(context.Background(), "jti", 0))
	assert.NoError(t, b.Revoke(context.Background(), "jti", -time.Minute))
}

func TestBlacklist_ConnectionErrors(t *testing.T) {
	b := NewBlacklist(unreachableClient(t))

	assert.Error(t, b.Revoke(context.Background(), "jti", time.Minute))

	revoked, err := b.IsRevoked(context.Background(), "jti")
	assert.Error(t, err)
	assert.False(t, revoked)
}

func TestBlacklistKey(t *testing.T) {
	assert.Equal(t, "blacklist:abc", blacklistKey("abc"))
}
