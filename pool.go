package mpd

import (
	"context"
	"errors"
	"time"
)

var ErrPoolClosed = errors.New("mpd: pool closed")

// Pool hands out connections to one caller at a time.
type Pool interface {
	// Acquire returns an idle connection or creates one, waiting when the
	// pool is full.
	Acquire(ctx context.Context) (Resource, error)

	// AcquireAllIdle acquires every idle connection, for health checks.
	AcquireAllIdle() []Resource

	Close()

	Stats() PoolStats
}

// Resource is a connection checked out from a Pool.
type Resource interface {
	Value() *Connection
	Release()
	ReleaseUnused()
	Destroy()
	CreationTime() time.Time
	IdleDuration() time.Duration
}

// PoolFactory builds a Pool from a connection constructor.
type PoolFactory func(constructor func(ctx context.Context) (*Connection, error), maxSize int32) (Pool, error)
