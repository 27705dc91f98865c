// Package redis implementa el rate limiter compartido entre réplicas:
// ventana fija con INCR + EXPIRE.
package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"dog-registry/internal/ports/ratelimit"
)

type Limiter struct {
	client      *goredis.Client
	maxRequests int
	windowSize  time.Duration
}

var _ ratelimit.Limiter = (*Limiter)(nil)

// NewLimiter arma el limiter desde una URL de redis
// (redis://host:puerto/db). Hace ping para fallar temprano si el
// backend no está.
func NewLimiter(url string, maxRequests int, windowSize time.Duration) (*Limiter, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}

	client := goredis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Limiter{
		client:      client,
		maxRequests: maxRequests,
		windowSize:  windowSize,
	}, nil
}

func (l *Limiter) Allow(ctx context.Context, key string) (bool, error) {
	rkey := fmt.Sprintf("ratelimit:%s", key)

	count, err := l.client.Incr(ctx, rkey).Result()
	if err != nil {
		return false, err
	}
	if count == 1 {
		// Primera entrada de la ventana: arranca el TTL.
		if err := l.client.Expire(ctx, rkey, l.windowSize).Err(); err != nil {
			return false, err
		}
	}

	return count <= int64(l.maxRequests), nil
}

func (l *Limiter) Close() error {
	return l.client.Close()
}
