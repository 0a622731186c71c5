package mpd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/pior/mpd/protocol"
	"github.com/pior/mpd/response"
	"github.com/sony/gobreaker/v2"
)

const (
	DefaultMaxSize = 4

	healthCheckTimeout = 5 * time.Second
)

var ErrNoAddr = errors.New("mpd: no server address")

// Config holds configuration for the client and its connection pool.
type Config struct {
	// Addr is the server address: host:port, or the path of a unix socket.
	// Required.
	Addr string

	// Password is sent after the greeting on every new connection when set.
	Password string

	// MaxSize is the maximum number of connections in the pool.
	// Zero means DefaultMaxSize.
	MaxSize int32

	// MaxConnLifetime is the maximum duration a connection can be reused.
	// Zero means no limit.
	MaxConnLifetime time.Duration

	// MaxConnIdleTime is the maximum duration a connection can be idle before being closed.
	// The server drops idle clients after its connection_timeout (60s by default).
	// Zero means no limit.
	MaxConnIdleTime time.Duration

	// HealthCheckInterval is how often idle connections are pinged.
	// Zero disables health checks.
	HealthCheckInterval time.Duration

	// Dialer is used to create new connections.
	// If nil, the default net.Dialer is used.
	Dialer *net.Dialer

	// Pool is the connection pool factory.
	// If nil, NewChannelPool is used.
	Pool PoolFactory

	// NewCircuitBreaker creates the circuit breaker guarding the server.
	// If nil, no circuit breaker is used.
	NewCircuitBreaker func(addr string) *CircuitBreaker

	// Logger receives connection lifecycle events.
	// If nil, slog.Default() is used.
	Logger *slog.Logger

	// for testing purposes only
	constructor func(ctx context.Context) (*Connection, error)
}

// Client executes commands and command lists over a pool of connections.
// It is safe for concurrent use.
type Client struct {
	addr           string
	pool           Pool
	circuitBreaker *CircuitBreaker
	logger         *slog.Logger

	maxConnLifetime time.Duration
	maxConnIdleTime time.Duration

	stopHealthCheck chan struct{}
	closeOnce       sync.Once

	stats clientStatsCollector
}

// NewClient creates a client for the server at config.Addr.
// No connection is opened until the first command.
func NewClient(config Config) (*Client, error) {
	if config.Addr == "" {
		return nil, ErrNoAddr
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("addr", config.Addr)

	maxSize := config.MaxSize
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}

	dialer := config.Dialer
	if dialer == nil {
		dialer = &net.Dialer{}
	}

	poolFactory := config.Pool
	if poolFactory == nil {
		poolFactory = NewChannelPool
	}

	constructor := config.constructor
	if constructor == nil {
		constructor = func(ctx context.Context) (*Connection, error) {
			netConn, err := dialer.DialContext(ctx, network(config.Addr), config.Addr)
			if err != nil {
				return nil, &protocol.ConnectionError{Op: "dial", Err: err}
			}

			conn := NewConnection(netConn)
			if err := conn.Handshake(ctx, config.Password); err != nil {
				conn.Close()
				logger.Error("mpd: handshake failed", "error", err)
				return nil, err
			}

			logger.Debug("mpd: connected", "greeting", conn.Greeting().Raw)
			return conn, nil
		}
	}

	pool, err := poolFactory(constructor, maxSize)
	if err != nil {
		return nil, fmt.Errorf("mpd: creating pool: %w", err)
	}

	client := &Client{
		addr:            config.Addr,
		pool:            pool,
		logger:          logger,
		maxConnLifetime: config.MaxConnLifetime,
		maxConnIdleTime: config.MaxConnIdleTime,
		stopHealthCheck: make(chan struct{}),
	}

	if config.NewCircuitBreaker != nil {
		client.circuitBreaker = config.NewCircuitBreaker(config.Addr)
	}

	if config.HealthCheckInterval > 0 {
		go client.healthCheckLoop(config.HealthCheckInterval)
	}

	return client, nil
}

// network picks the dial network for addr: absolute paths and abstract
// sockets (@name) are unix sockets.
func network(addr string) string {
	if strings.HasPrefix(addr, "/") || strings.HasPrefix(addr, "@") {
		return "unix"
	}
	return "tcp"
}

// Close stops the health checks and closes every connection.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.stopHealthCheck)
		c.pool.Close()
	})
}

// Do executes a single command. The returned batch holds one segment, or none
// when the reply is empty.
//
// A command rejected by the server returns a *protocol.AckError.
func (c *Client) Do(ctx context.Context, cmd *protocol.Command) (*response.Batch, error) {
	b, err := c.execute(ctx, func(conn *Connection) (*response.Batch, error) {
		return conn.Execute(ctx, cmd)
	})
	if err == nil {
		c.stats.recordCommand()
	}
	return b, err
}

// DoList executes cmds as one command list. The returned batch holds one
// segment per command, except that a single command with an empty reply
// yields an empty payload and therefore zero segments.
//
// When a command is rejected, the batch of the replies that preceded it is
// returned together with the *protocol.AckError.
func (c *Client) DoList(ctx context.Context, cmds ...*protocol.Command) (*response.Batch, error) {
	b, err := c.execute(ctx, func(conn *Connection) (*response.Batch, error) {
		return conn.ExecuteList(ctx, cmds)
	})
	if err == nil {
		c.stats.recordCommandList()
	}
	return b, err
}

// Ping checks that the server answers.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.Do(ctx, protocol.NewCommand(protocol.CmdPing))
	return err
}

// Stats returns a snapshot of client statistics.
func (c *Client) Stats() ClientStats {
	return c.stats.snapshot()
}

// ServerStats contains the pool and circuit breaker state of the client.
type ServerStats struct {
	Addr                 string
	PoolStats            PoolStats
	CircuitBreakerState  gobreaker.State
	CircuitBreakerCounts gobreaker.Counts
}

// ServerStats returns a snapshot of the pool and circuit breaker state.
func (c *Client) ServerStats() ServerStats {
	stats := ServerStats{
		Addr:      c.addr,
		PoolStats: c.pool.Stats(),
	}
	if c.circuitBreaker != nil {
		stats.CircuitBreakerState = c.circuitBreaker.State()
		stats.CircuitBreakerCounts = c.circuitBreaker.Counts()
	}
	return stats
}

// execute runs fn on a pooled connection, through the circuit breaker when one
// is configured.
func (c *Client) execute(ctx context.Context, fn func(conn *Connection) (*response.Batch, error)) (*response.Batch, error) {
	var b *response.Batch
	var err error

	if c.circuitBreaker == nil {
		b, err = c.executeDirect(ctx, fn)
	} else {
		b, err = c.circuitBreaker.Execute(func() (*response.Batch, error) {
			return c.executeDirect(ctx, fn)
		})
	}

	switch {
	case err == nil:
		c.stats.recordSegments(b.Len())
	case protocol.IsAck(err):
		c.stats.recordAck()
		if b != nil {
			c.stats.recordSegments(b.Len())
		}
	default:
		c.stats.recordError()
	}
	return b, err
}

func (c *Client) executeDirect(ctx context.Context, fn func(conn *Connection) (*response.Batch, error)) (*response.Batch, error) {
	resource, err := c.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	b, err := fn(resource.Value())
	if protocol.ShouldCloseConnection(err) {
		c.logger.Warn("mpd: closing connection", "error", err)
		resource.Destroy()
		return b, err
	}

	resource.Release()
	return b, err
}

// healthCheckLoop periodically checks idle connections for health and lifecycle limits.
func (c *Client) healthCheckLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopHealthCheck:
			return
		case <-ticker.C:
			c.checkIdleConnections()
		}
	}
}

// checkIdleConnections destroys idle connections that are stale or do not answer a ping.
func (c *Client) checkIdleConnections() {
	now := time.Now()

	for _, res := range c.pool.AcquireAllIdle() {
		if c.maxConnLifetime > 0 && now.Sub(res.CreationTime()) > c.maxConnLifetime {
			res.Destroy()
			continue
		}

		if c.maxConnIdleTime > 0 && res.IdleDuration() > c.maxConnIdleTime {
			res.Destroy()
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), healthCheckTimeout)
		err := res.Value().Ping(ctx)
		cancel()
		if err != nil {
			c.logger.Warn("mpd: health check failed", "error", err)
			res.Destroy()
			continue
		}

		res.ReleaseUnused()
	}
}
