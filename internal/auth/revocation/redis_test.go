package revocation

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestRedisCache_KeyIsHashedAndPrefixed(t *testing.T) {
	cache := NewRedisCache(redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"}))

	key := cache.key("eyJhbGciOiJIUzI1NiJ9.payload.sig")
	if !strings.HasPrefix(key, "revoked:") {
		t.Errorf("expected revoked: prefix, got %s", key)
	}
	if strings.Contains(key, "payload") {
		t.Error("expected raw token not to appear in key")
	}
	if len(key) != len("revoked:")+64 {
		t.Errorf("expected sha256 hex digest, got %s", key)
	}
	if key != cache.key("eyJhbGciOiJIUzI1NiJ9.payload.sig") {
		t.Error("expected deterministic key")
	}
}

func TestRedisCache_UnreachableServerReturnsError(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()
	cache := NewRedisCache(client)

	_, found, err := cache.Get(context.Background(), "token")
	if err == nil {
		t.Fatal("expected error from unreachable server")
	}
	if found {
		t.Error("expected found=false on error")
	}
}

func TestRedisCache_NonPositiveTTLIsNoop(t *testing.T) {
	cache := NewRedisCache(redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"}))

	if err := cache.Put(context.Background(), "token", "revoked", 0); err != nil {
		t.Errorf("expected no error, got %v", err)
	}
}

func TestNewRedisClient_PingFailure(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if _, err := NewRedisClient(ctx, RedisOptions{Addr: "127.0.0.1:1"}); err == nil {
		t.Fatal("expected ping failure")
	}
}
