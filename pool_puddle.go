package mpd

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/jackc/puddle/v2"
)

// NewPuddlePool creates a connection pool backed by puddle.
func NewPuddlePool(constructor func(ctx context.Context) (*Connection, error), maxSize int32) (Pool, error) {
	p := &puddlePool{}

	pool, err := puddle.NewPool(&puddle.Config[*Connection]{
		Constructor: func(ctx context.Context) (*Connection, error) {
			conn, err := constructor(ctx)
			if err == nil {
				p.created.Add(1)
			}
			return conn, err
		},
		Destructor: func(conn *Connection) {
			p.destroyed.Add(1)
			_ = conn.Close()
		},
		MaxSize: maxSize,
	})
	if err != nil {
		return nil, err
	}
	p.pool = pool
	return p, nil
}

type puddlePool struct {
	pool      *puddle.Pool[*Connection]
	created   atomic.Uint64
	destroyed atomic.Uint64
}

// puddleConn destroys connections released with unread reply bytes.
type puddleConn struct {
	*puddle.Resource[*Connection]
}

func (r puddleConn) Release() {
	if !r.Value().InSync() {
		r.Destroy()
		return
	}
	r.Resource.Release()
}

func (r puddleConn) ReleaseUnused() {
	if !r.Value().InSync() {
		r.Destroy()
		return
	}
	r.Resource.ReleaseUnused()
}

func (p *puddlePool) Acquire(ctx context.Context) (Resource, error) {
	res, err := p.pool.Acquire(ctx)
	if errors.Is(err, puddle.ErrClosedPool) {
		return nil, ErrPoolClosed
	}
	if err != nil {
		return nil, err
	}
	return puddleConn{res}, nil
}

func (p *puddlePool) AcquireAllIdle() []Resource {
	idle := p.pool.AcquireAllIdle()
	resources := make([]Resource, len(idle))
	for i, res := range idle {
		resources[i] = puddleConn{res}
	}
	return resources
}

func (p *puddlePool) Close() {
	p.pool.Close()
}

// Stats maps puddle's statistics to PoolStats. Puddle counts every acquire
// that found no idle connection as a wait.
func (p *puddlePool) Stats() PoolStats {
	s := p.pool.Stat()

	return PoolStats{
		AcquireCount:      uint64(s.AcquireCount()),
		AcquireWaitCount:  uint64(s.EmptyAcquireCount()),
		AcquireWaitTimeNs: uint64(s.EmptyAcquireWaitTime().Nanoseconds()),
		AcquireErrors:     uint64(s.CanceledAcquireCount()),
		CreatedConns:      p.created.Load(),
		DestroyedConns:    p.destroyed.Load(),
		TotalConns:        s.TotalResources(),
		IdleConns:         s.IdleResources(),
		ActiveConns:       s.AcquiredResources(),
	}
}
