package ratelimit

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// tokenBucketScript refills and consumes a bucket stored as a redis hash.
// KEYS[1] bucket key
// ARGV rate (tokens/s), capacity, now (unix seconds, fractional), ttl (seconds)
var tokenBucketScript = redis.NewScript(`
local key = KEYS[1]
local rate = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local now = tonumber(ARGV[3])
local ttl = tonumber(ARGV[4])

local bucket = redis.call('HMGET', key, 'last_refill', 'tokens')
local last_refill = tonumber(bucket[1]) or now
local tokens = tonumber(bucket[2]) or capacity

local elapsed = math.max(0, now - last_refill)
tokens = math.min(capacity, tokens + elapsed * rate)

local allowed = 0
if tokens >= 1 then
	tokens = tokens - 1
	allowed = 1
end

redis.call('HSET', key, 'last_refill', tostring(now), 'tokens', tostring(tokens))
redis.call('EXPIRE', key, ttl)
return allowed
`)

// Config holds configuration for the token bucket.
type Config struct {
	RequestsPerSecond float64
	BurstCapacity     int
}

// TokenBucket is a redis-backed token bucket limiter shared by every API instance.
type TokenBucket struct {
	client redis.Scripter
	config Config
	ttl    int
	log    *zap.Logger
	now    func() time.Time
}

// NewTokenBucket creates a TokenBucket over client.
func NewTokenBucket(client redis.Scripter, config Config, log *zap.Logger) *TokenBucket {
	// Keep a bucket until it would have refilled completely
	ttl := int(math.Ceil(float64(config.BurstCapacity)/config.RequestsPerSecond)) + 1

	return &TokenBucket{
		client: client,
		config: config,
		ttl:    ttl,
		log:    log,
		now:    time.Now,
	}
}

// Allow consumes one token from the bucket at key and reports whether one was available.
func (tb *TokenBucket) Allow(ctx context.Context, key string) (bool, error) {
	now := float64(tb.now().UnixMicro()) / 1e6

	allowed, err := tokenBucketScript.Run(ctx, tb.client, []string{key},
		tb.config.RequestsPerSecond,
		tb.config.BurstCapacity,
		now,
		tb.ttl,
	).Int64()
	if err != nil {
		return false, fmt.Errorf("failed to evaluate token bucket: %w", err)
	}

	if allowed == 0 {
		tb.log.Debug("token bucket empty", zap.String("key", key))
	}
	return allowed == 1, nil
}
