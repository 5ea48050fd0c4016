package rate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrRateLimited      = errors.New("rate limited")
	ErrRedisUnavailable = errors.New("redis unavailable")
)

// Config holds limiter tuning. MaxAttempts failures are tolerated per window;
// the next check is refused until the window expires.
type Config struct {
	MaxAttempts int
	Window      time.Duration
	// Prefix namespaces the counter keys.
	Prefix string
	// PerIP also counts failures per client address.
	PerIP bool
}

// Limiter counts failed login attempts in Redis fixed windows.
type Limiter struct {
	redis  redis.UniversalClient
	config Config
}

func New(rdb redis.UniversalClient, cfg Config) (*Limiter, error) {
	if rdb == nil {
		return nil, errors.New("rate: redis client is required")
	}
	if cfg.MaxAttempts <= 0 {
		return nil, errors.New("rate: MaxAttempts must be > 0")
	}
	if cfg.Window <= 0 {
		return nil, errors.New("rate: Window must be > 0")
	}
	return &Limiter{redis: rdb, config: cfg}, nil
}

// Check refuses with [ErrRateLimited] once account or ip has used up its
// failure budget.
func (l *Limiter) Check(ctx context.Context, account, ip string) error {
	for _, key := range l.keys(account, ip) {
		count, err := l.redis.Get(ctx, key).Int64()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
		if count >= int64(l.config.MaxAttempts) {
			return ErrRateLimited
		}
	}
	return nil
}

// Fail records one failed attempt and returns the account's count in the
// current window.
func (l *Limiter) Fail(ctx context.Context, account, ip string) (int64, error) {
	var first int64
	for i, key := range l.keys(account, ip) {
		count, err := l.redis.Incr(ctx, key).Result()
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
		// Fixed window: only the first hit sets the expiry.
		if count == 1 {
			if err := l.redis.Expire(ctx, key, l.config.Window).Err(); err != nil {
				return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
			}
		}
		if i == 0 {
			first = count
		}
	}
	return first, nil
}

// Reset clears the account counter after a successful login. The ip counter
// is left alone.
func (l *Limiter) Reset(ctx context.Context, account string) error {
	if err := l.redis.Del(ctx, l.accountKey(account)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Attempts returns the account's failure count in the current window.
func (l *Limiter) Attempts(ctx context.Context, account string) (int, error) {
	count, err := l.redis.Get(ctx, l.accountKey(account)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return int(max(count, 0)), nil
}

func (l *Limiter) keys(account, ip string) []string {
	keys := []string{l.accountKey(account)}
	if l.config.PerIP && ip != "" {
		keys = append(keys, l.config.Prefix+"rl:ip:"+ip)
	}
	return keys
}

func (l *Limiter) accountKey(account string) string {
	return l.config.Prefix + "rl:acct:" + strings.ToLower(strings.TrimSpace(account))
}
