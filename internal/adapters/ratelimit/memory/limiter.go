// Package memory implementa el rate limiter in-process para dev y
// tests. Ventana fija por key; el estado vive en el limiter inyectado,
// nunca en globals de proceso.
package memory

import (
	"context"
	"sync"
	"time"

	"dog-registry/internal/ports/ratelimit"
)

type window struct {
	start time.Time
	count int
}

type Limiter struct {
	maxRequests int
	windowSize  time.Duration
	now         func() time.Time

	mu      sync.Mutex
	windows map[string]*window
}

var _ ratelimit.Limiter = (*Limiter)(nil)

func NewLimiter(maxRequests int, windowSize time.Duration) *Limiter {
	return &Limiter{
		maxRequests: maxRequests,
		windowSize:  windowSize,
		now:         time.Now,
		windows:     make(map[string]*window),
	}
}

func (l *Limiter) Allow(ctx context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.windows[key]
	if !ok || now.Sub(w.start) >= l.windowSize {
		l.windows[key] = &window{start: now, count: 1}
		return true, nil
	}

	if w.count >= l.maxRequests {
		return false, nil
	}
	w.count++
	return true, nil
}
