package service

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Ventana fija: el primer INCR de cada email arma la expiración.
const redisAllowScript = `
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("EXPIRE", KEYS[1], ARGV[1])
end
return current
`

const redisLimiterTimeout = 500 * time.Millisecond

type redisEvaler interface {
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

type redisRateLimiter struct {
	client redisEvaler
	logger *zap.Logger
	window time.Duration
	max    int
	prefix string
}

// NewRedisRateLimiter comparte el contador de solicitudes de reseteo entre réplicas.
// Si Redis no responde la solicitud se deja pasar y se registra un warning.
func NewRedisRateLimiter(client *redis.Client, logger *zap.Logger, prefix string, window time.Duration, max int) RateLimiter {
	if client == nil {
		return nil
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if window < time.Second {
		window = time.Minute
	}
	if max <= 0 {
		max = 1
	}
	return &redisRateLimiter{
		client: client,
		logger: logger,
		window: window,
		max:    max,
		prefix: prefix,
	}
}

func (l *redisRateLimiter) Allow(ctx context.Context, email string) bool {
	if l == nil || l.client == nil {
		return true
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, redisLimiterTimeout)
	defer cancel()

	count, err := l.client.Eval(ctx, redisAllowScript, []string{l.prefix + email}, int(l.window/time.Second)).Int()
	if err != nil {
		l.logger.Warn("reset rate limiter unavailable, allowing request", zap.Error(err))
		return true
	}
	return count <= l.max
}
