package service

import (
	"sync"
	"time"
)

// Limiter: contador de ventana deslizante por actor. check-and-increment es
// un solo paso atómico para que dos eventos casi simultáneos no pasen los
// dos por un cupo pensado para uno.
type Limiter struct {
	mu      sync.Mutex
	rate    int
	per     time.Duration
	now     func() time.Time
	buckets map[string]*window
}

type window struct {
	start time.Time
	count int
}

func NewLimiter(rate int, per time.Duration) *Limiter {
	return &Limiter{
		rate:    rate,
		per:     per,
		now:     time.Now,
		buckets: map[string]*window{},
	}
}

// CheckAndIncrement consume un cupo del actor. Si no hay cupo devuelve
// ok=false y cuánto falta para que la ventana se abra, sin incrementar.
func (l *Limiter) CheckAndIncrement(key string) (retryAfter time.Duration, ok bool) {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()

	w, exists := l.buckets[key]
	if !exists || now.Sub(w.start) >= l.per {
		l.buckets[key] = &window{start: now, count: 1}
		return 0, true
	}
	if w.count < l.rate {
		w.count++
		return 0, true
	}
	return w.start.Add(l.per).Sub(now), false
}

// Reset borra la ventana del actor (p.ej. al abandonar el dueño un room,
// para abrir de inmediato la ventana de reclamo).
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.buckets, key)
}
