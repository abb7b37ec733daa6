package ratelimit

import (
	"context"
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	sweepInterval = 10 * time.Minute
	idleTimeout   = 10 * time.Minute
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Memory is a per-process limiter holding one token bucket per key. A bucket
// holds limit tokens and refills fully over window.
type Memory struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	every    rate.Limit
	max      int
	now      func() time.Time
	stop     chan struct{}
	once     sync.Once
}

// NewMemory creates a Memory limiter allowing limit requests per window and
// starts the goroutine that forgets idle keys. Call Close to stop it.
func NewMemory(limit int, window time.Duration) *Memory {
	m := &Memory{
		visitors: make(map[string]*visitor),
		every:    rate.Every(window / time.Duration(limit)),
		max:      limit,
		now:      time.Now,
		stop:     make(chan struct{}),
	}
	go m.sweepLoop()
	return m
}

// Allow consumes one token for key if available.
func (m *Memory) Allow(_ context.Context, key string) (Decision, error) {
	now := m.now()
	lim := m.limiter(key, now)

	d := Decision{Limit: m.max}
	if lim.AllowN(now, 1) {
		d.Allowed = true
		d.Remaining = int(math.Floor(lim.TokensAt(now)))
		return d, nil
	}

	missing := 1 - lim.TokensAt(now)
	d.RetryAfter = time.Duration(missing / float64(m.every) * float64(time.Second))
	return d, nil
}

// Close stops the idle-key sweeper.
func (m *Memory) Close() error {
	m.once.Do(func() { close(m.stop) })
	return nil
}

func (m *Memory) limiter(key string, now time.Time) *rate.Limiter {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(m.every, m.max)}
		m.visitors[key] = v
	}
	v.lastSeen = now
	return v.limiter
}

func (m *Memory) sweepLoop() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			m.sweep(m.now())
		}
	}
}

// sweep drops keys not seen for idleTimeout.
func (m *Memory) sweep(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for key, v := range m.visitors {
		if now.Sub(v.lastSeen) > idleTimeout {
			delete(m.visitors, key)
		}
	}
}
