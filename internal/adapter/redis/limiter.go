package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

var tokenBucket = goredis.NewScript(`
	local key = KEYS[1]
	local now_ms = tonumber(ARGV[1])
	local capacity = tonumber(ARGV[2])
	local refill_tokens = tonumber(ARGV[3])
	local interval_ms = tonumber(ARGV[4])
	local ttl_seconds = tonumber(ARGV[5])

	local state = redis.call('HMGET', key, 'tokens', 'last_refill_ms')
	local tokens = tonumber(state[1])
	local last_refill = tonumber(state[2])

	if tokens == nil or last_refill == nil then
		tokens = capacity
		last_refill = now_ms
	end

	if interval_ms > 0 and refill_tokens > 0 then
		local elapsed = math.max(0, now_ms - last_refill)
		local intervals = math.floor(elapsed / interval_ms)
		if intervals > 0 then
			tokens = math.min(capacity, tokens + (intervals * refill_tokens))
			last_refill = last_refill + (intervals * interval_ms)
		end
	end

	local allowed = 0
	if tokens > 0 then
		allowed = 1
		tokens = tokens - 1
	end

	redis.call('HSET', key, 'tokens', tokens, 'last_refill_ms', last_refill)
	redis.call('EXPIRE', key, ttl_seconds)

	return allowed
`)

type BucketConfig struct {
	Capacity       int
	RefillTokens   int
	RefillInterval time.Duration
	TTL            time.Duration
}

// Limiter is a token bucket per key evaluated atomically in Redis.
type Limiter struct {
	rdb    goredis.Scripter
	prefix string
	cfg    BucketConfig
	now    func() time.Time
}

func NewLimiter(rdb goredis.Scripter, prefix string, cfg BucketConfig) *Limiter {
	if cfg.TTL <= 0 {
		cfg.TTL = time.Hour
	}
	return &Limiter{rdb: rdb, prefix: prefix, cfg: cfg, now: time.Now}
}

func (l *Limiter) Allow(ctx context.Context, key string) (bool, error) {
	res, err := tokenBucket.Run(ctx, l.rdb, []string{l.prefix + key},
		l.now().UnixMilli(),
		l.cfg.Capacity,
		l.cfg.RefillTokens,
		l.cfg.RefillInterval.Milliseconds(),
		int64(l.cfg.TTL/time.Second),
	).Int()
	if err != nil {
		return false, fmt.Errorf("Limiter.Allow: %w", err)
	}
	return res == 1, nil
}
