package graph

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/yash-kalathiya/GraphRAG-Compliance-Agent/internal/types"
)

// Pool owns a single shared Driver and hands out sessions scoped to one
// unit of work. The driver is created lazily on first Acquire and reused
// by every caller until CloseAll.
//
// Pool is safe for concurrent use.
type Pool struct {
	cfg     ClientConfig
	factory DriverFactory
	logger  *slog.Logger

	mu     sync.RWMutex
	driver Driver
}

// PoolOption configures a Pool.
type PoolOption func(*Pool)

// WithDriverFactory replaces the Neo4j driver constructor. Tests use this to
// inject fakes.
func WithDriverFactory(factory DriverFactory) PoolOption {
	return func(p *Pool) {
		if factory != nil {
			p.factory = factory
		}
	}
}

// WithPoolLogger sets the logger used for lifecycle events.
func WithPoolLogger(logger *slog.Logger) PoolOption {
	return func(p *Pool) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewPool creates a pool. No connection is made until the first Acquire.
func NewPool(cfg ClientConfig, opts ...PoolOption) *Pool {
	p := &Pool{
		cfg:     cfg,
		factory: NewNeo4jDriver,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// URI returns the configured database URI.
func (p *Pool) URI() string {
	return p.cfg.URI
}

// getDriver returns the live driver, creating it if needed. Concurrent first
// callers block on the write lock; only one of them creates the driver.
func (p *Pool) getDriver(ctx context.Context) (Driver, error) {
	p.mu.RLock()
	driver := p.driver
	p.mu.RUnlock()
	if driver != nil {
		return driver, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.driver != nil {
		return p.driver, nil
	}

	if err := p.cfg.Validate(); err != nil {
		return nil, err
	}

	driver, err := p.factory(ctx, p.cfg)
	if err != nil {
		return nil, types.NewDatabaseConnectionError(p.cfg.URI, err)
	}

	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, types.NewDatabaseConnectionError(p.cfg.URI, err)
	}

	p.driver = driver
	p.logger.Info("graph driver initialized", "uri", p.cfg.URI, "database", p.cfg.Database)
	return driver, nil
}

// Acquire returns a new session on the shared driver. The caller must Close
// it; prefer WithSession, which does so on every exit path.
func (p *Pool) Acquire(ctx context.Context) (Session, error) {
	driver, err := p.getDriver(ctx)
	if err != nil {
		return nil, err
	}
	return driver.NewSession(ctx), nil
}

// WithSession acquires a session, runs fn with it and releases it whether
// fn succeeds, fails or panics.
func (p *Pool) WithSession(ctx context.Context, fn func(context.Context, Session) error) error {
	session, err := p.Acquire(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := session.Close(ctx); closeErr != nil {
			p.logger.Debug("session close failed", "error", closeErr)
		}
	}()
	return fn(ctx, session)
}

// CloseAll tears down the shared driver. The next Acquire creates a new one.
func (p *Pool) CloseAll(ctx context.Context) error {
	p.mu.Lock()
	driver := p.driver
	p.driver = nil
	p.mu.Unlock()

	if driver == nil {
		return nil
	}
	p.logger.Info("graph driver closed", "uri", p.cfg.URI)
	return driver.Close(ctx)
}

// Ping runs a trivial round-trip query. It does not retry: an unreachable
// database fails immediately with DATABASE_CONNECTION_FAILED.
func (p *Pool) Ping(ctx context.Context) error {
	err := p.WithSession(ctx, func(ctx context.Context, s Session) error {
		_, err := s.Run(ctx, AccessRead, pingQuery, nil)
		return err
	})
	if err == nil {
		return nil
	}
	if types.CodeOf(err) == types.DATABASE_CONNECTION_FAILED {
		return err
	}
	return types.NewDatabaseConnectionError(p.cfg.URI, err)
}

// Health pings the database and reports the outcome with its latency.
func (p *Pool) Health(ctx context.Context) types.HealthStatus {
	start := time.Now()
	err := p.Ping(ctx)
	latency := time.Since(start)

	var status types.HealthStatus
	if err != nil {
		status = types.Unhealthy(err.Error())
	} else {
		status = types.Healthy("graph database reachable")
	}
	status.URI = p.cfg.URI
	status.Latency = latency
	return status
}

var (
	defaultMu     sync.Mutex
	defaultOnce   sync.Once
	defaultPool   *Pool
	defaultConfig = DefaultClientConfig()
	defaultOpts   []PoolOption
)

// ConfigureDefault sets the configuration used by DefaultPool. It must be
// called before the first DefaultPool call; afterwards it returns an error
// and leaves the live pool untouched.
func ConfigureDefault(cfg ClientConfig, opts ...PoolOption) error {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultPool != nil {
		return types.NewError(types.CONFIG_VALIDATION_FAILED, "default graph pool already in use")
	}
	defaultConfig = cfg
	defaultOpts = opts
	return nil
}

// DefaultPool returns the process-wide pool.
func DefaultPool() *Pool {
	defaultOnce.Do(func() {
		defaultMu.Lock()
		defer defaultMu.Unlock()
		defaultPool = NewPool(defaultConfig, defaultOpts...)
	})
	return defaultPool
}
