package netpool

import (
	"context"
	"net"
	"sync"
	"time"
)

type PoolGroup struct {
	sync.RWMutex
	pools map[interface{}]*Pool

	maxConnsPerHost, maxIdlePerHost uint
	maxIdleDuration                 time.Duration
}

func NewGroup(maxConnsPerHost, maxIdlePerHost uint, maxIdleDuration time.Duration) *PoolGroup {
	return &PoolGroup{
		pools:           map[interface{}]*Pool{},
		maxConnsPerHost: maxConnsPerHost, maxIdlePerHost: maxIdlePerHost,
		maxIdleDuration: maxIdleDuration,
	}
}

// NewEmpty returns a group with the same limits and no pools.
func (g *PoolGroup) NewEmpty() *PoolGroup {
	if g == nil {
		return nil
	}
	return NewGroup(g.maxConnsPerHost, g.maxIdlePerHost, g.maxIdleDuration)
}

func (g *PoolGroup) pool(key interface{}) *Pool {
	g.RLock()
	p, ok := g.pools[key]
	g.RUnlock()
	if ok {
		return p
	}
	g.Lock()
	if p, ok = g.pools[key]; !ok {
		p = NewPool(g.maxIdlePerHost, g.maxConnsPerHost, g.maxIdleDuration)
		g.pools[key] = p
	}
	g.Unlock()
	return p
}

func (g *PoolGroup) Connect(ctx context.Context, key interface{}, dial func(ctx context.Context) (net.Conn, error)) (Conn, error) {
	return g.pool(key).Connect(ctx, dial)
}

// Stats returns the counters of the pool for key, zero if there's none yet.
func (g *PoolGroup) Stats(key interface{}) Stats {
	g.RLock()
	p, ok := g.pools[key]
	g.RUnlock()
	if !ok {
		return Stats{}
	}
	return p.Stats()
}

func (g *PoolGroup) Close() {
	g.Lock()
	defer g.Unlock()
	for k, p := range g.pools {
		p.Close()
		delete(g.pools, k)
	}
}
