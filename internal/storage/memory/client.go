package memory

import (
	"context"
	"sync"
	"time"
)

// Client: in-memory счётчик попыток входа (скользящее окно) для -dev и тестов.
// Ключи без попыток в окне удаляются не реже раза за окно.
type Client struct {
	mu        sync.Mutex
	hits      map[string][]time.Time
	max       int
	window    time.Duration
	now       func() time.Time
	lastPrune time.Time
}

func New(max int, window time.Duration) *Client {
	return &Client{
		hits:   make(map[string][]time.Time),
		max:    max,
		window: window,
		now:    time.Now,
	}
}

func (c *Client) Close() error { return nil }

func (c *Client) Allow(ctx context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	cut := now.Add(-c.window)
	if now.Sub(c.lastPrune) >= c.window {
		for k, ts := range c.hits {
			if len(ts) == 0 || !ts[len(ts)-1].After(cut) {
				delete(c.hits, k)
			}
		}
		c.lastPrune = now
	}
	kept := c.hits[key][:0]
	for _, t := range c.hits[key] {
		if t.After(cut) {
			kept = append(kept, t)
		}
	}
	if len(kept) >= c.max {
		c.hits[key] = kept
		return false, nil
	}
	c.hits[key] = append(kept, now)
	return true, nil
}

func (c *Client) Reset(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.hits, key)
	return nil
}
