// Package redistest provides an in-memory redis.Cmdable for tests.
package redistest

import (
	"context"
	"fmt"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

type entry struct {
	value     string
	expiresAt time.Time
}

// Memory is a goroutine-safe key/value store honouring TTLs against Now.
type Memory struct {
	mu   sync.Mutex
	data map[string]entry
	Now  func() time.Time
}

func NewMemory() *Memory {
	return &Memory{data: make(map[string]entry), Now: time.Now}
}

func (m *Memory) live(key string) (entry, bool) {
	e, ok := m.data[key]
	if !ok {
		return entry{}, false
	}
	if !e.expiresAt.IsZero() && !m.Now().Before(e.expiresAt) {
		delete(m.data, key)
		return entry{}, false
	}
	return e, true
}

func (m *Memory) Ping(context.Context) *goredis.StatusCmd {
	return goredis.NewStatusResult("PONG", nil)
}

func (m *Memory) Set(_ context.Context, key string, value any, ttl time.Duration) *goredis.StatusCmd {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := entry{value: fmt.Sprint(value)}
	if ttl > 0 {
		e.expiresAt = m.Now().Add(ttl)
	}
	m.data[key] = e
	return goredis.NewStatusResult("OK", nil)
}

func (m *Memory) Get(_ context.Context, key string) *goredis.StringCmd {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.live(key)
	if !ok {
		return goredis.NewStringResult("", goredis.Nil)
	}
	return goredis.NewStringResult(e.value, nil)
}

func (m *Memory) Del(_ context.Context, keys ...string) *goredis.IntCmd {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for _, key := range keys {
		if _, ok := m.live(key); ok {
			delete(m.data, key)
			n++
		}
	}
	return goredis.NewIntResult(n, nil)
}

func (m *Memory) TTL(_ context.Context, key string) *goredis.DurationCmd {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.live(key)
	switch {
	case !ok:
		return goredis.NewDurationResult(-2*time.Second, nil)
	case e.expiresAt.IsZero():
		return goredis.NewDurationResult(-1*time.Second, nil)
	default:
		return goredis.NewDurationResult(e.expiresAt.Sub(m.Now()), nil)
	}
}

// Len returns the number of live keys.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for k := range m.data {
		if _, ok := m.live(k); ok {
			n++
		}
	}
	return n
}
