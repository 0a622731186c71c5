package mpd

import (
	"context"
	"sync"
	"time"

	"github.com/pior/mpd/internal/coarsetime"
)

// NewChannelPool creates a pool that keeps idle connections in a buffered
// channel. This is the default.
//
// A released connection that still holds unread reply bytes is closed instead
// of being kept: the next command would read a stale reply.
func NewChannelPool(constructor func(ctx context.Context) (*Connection, error), maxSize int32) (Pool, error) {
	return &channelPool{
		dial:     constructor,
		capacity: maxSize,
		idle:     make(chan *pooledConn, maxSize),
		freed:    make(chan struct{}, maxSize),
	}, nil
}

// pooledConn is a connection checked out from, or idle in, a channelPool.
type pooledConn struct {
	conn     *Connection
	pool     *channelPool
	created  time.Time
	lastUsed time.Time
}

func (r *pooledConn) Value() *Connection { return r.conn }
func (r *pooledConn) CreationTime() time.Time { return r.created }
func (r *pooledConn) IdleDuration() time.Duration { return coarsetime.Since(r.lastUsed) }

func (r *pooledConn) Release() {
	r.lastUsed = coarsetime.Now()
	r.pool.checkIn(r)
}

// ReleaseUnused returns the connection without marking it used, so health
// check pings do not extend its idle time.
func (r *pooledConn) ReleaseUnused() {
	r.pool.checkIn(r)
}

func (r *pooledConn) Destroy() {
	r.pool.discard(r)
}

type channelPool struct {
	dial     func(ctx context.Context) (*Connection, error)
	capacity int32

	mu     sync.Mutex
	idle   chan *pooledConn
	freed  chan struct{} // a slot was given back by a destroyed connection
	open   int32
	closed bool

	stats poolStatsCollector
}

func (p *channelPool) Acquire(ctx context.Context) (Resource, error) {
	p.stats.recordAcquire()

	if res, ok, err := p.takeIdle(); ok || err != nil {
		return res, err
	}

	if res, ok, err := p.create(ctx); ok || err != nil {
		return res, err
	}

	return p.wait(ctx)
}

// takeIdle returns an idle connection without blocking.
func (p *channelPool) takeIdle() (Resource, bool, error) {
	select {
	case res, ok := <-p.idle:
		if !ok {
			p.stats.recordAcquireError()
			return nil, false, ErrPoolClosed
		}
		p.stats.recordAcquireFromIdle()
		return res, true, nil
	default:
		return nil, false, nil
	}
}

// create dials a new connection when the pool is below capacity.
func (p *channelPool) create(ctx context.Context) (Resource, bool, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		p.stats.recordAcquireError()
		return nil, false, ErrPoolClosed
	}
	if p.open >= p.capacity {
		p.mu.Unlock()
		return nil, false, nil
	}
	p.open++
	p.mu.Unlock()

	conn, err := p.dial(ctx)
	if err != nil {
		p.mu.Lock()
		p.open--
		p.mu.Unlock()
		p.stats.recordAcquireError()
		return nil, false, err
	}

	p.stats.recordCreate()
	p.stats.recordActivate()

	now := coarsetime.Now()
	return &pooledConn{conn: conn, pool: p, created: now, lastUsed: now}, true, nil
}

// wait blocks until a connection is checked in, a slot is freed or ctx is
// done. A freed slot may be taken by a concurrent Acquire, in which case wait
// keeps waiting.
func (p *channelPool) wait(ctx context.Context) (Resource, error) {
	start := time.Now()

	for {
		select {
		case res, ok := <-p.idle:
			if !ok {
				p.stats.recordAcquireError()
				return nil, ErrPoolClosed
			}
			p.stats.recordAcquireWait(time.Since(start))
			p.stats.recordAcquireFromIdle()
			return res, nil
		case <-p.freed:
			res, ok, err := p.create(ctx)
			if err != nil {
				return nil, err
			}
			if ok {
				p.stats.recordAcquireWait(time.Since(start))
				return res, nil
			}
		case <-ctx.Done():
			p.stats.recordAcquireError()
			return nil, ctx.Err()
		}
	}
}

func (p *channelPool) checkIn(res *pooledConn) {
	if !res.conn.InSync() {
		p.discard(res)
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.closed {
		select {
		case p.idle <- res:
			p.stats.recordRelease()
			return
		default:
		}
	}

	res.conn.Close()
	p.open--
	p.stats.recordDestroy()
	p.notifyFreed()
}

func (p *channelPool) discard(res *pooledConn) {
	res.conn.Close()

	p.mu.Lock()
	p.open--
	p.mu.Unlock()
	p.stats.recordDestroy()
	p.notifyFreed()
}

// notifyFreed wakes one waiter, if any. Waiters only listen on idle
// otherwise, which a destroyed connection never reaches.
func (p *channelPool) notifyFreed() {
	select {
	case p.freed <- struct{}{}:
	default:
	}
}

func (p *channelPool) AcquireAllIdle() []Resource {
	var all []Resource
	for {
		res, ok, _ := p.takeIdle()
		if !ok {
			return all
		}
		all = append(all, res)
	}
}

func (p *channelPool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	p.closed = true

	close(p.idle)
	for res := range p.idle {
		res.conn.Close()
		p.open--
		p.stats.recordDestroyIdle()
	}
}

func (p *channelPool) Stats() PoolStats {
	return p.stats.snapshot()
}
