package graph

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yash-kalathiya/GraphRAG-Compliance-Agent/internal/types"
)

func newTestPool(driver *MockDriver) *Pool {
	return NewPool(DefaultClientConfig(), WithDriverFactory(driver.Factory()))
}

func TestClientConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ClientConfig)
		wantErr bool
	}{
		{name: "default", mutate: func(*ClientConfig) {}, wantErr: false},
		{name: "neo4j+s scheme", mutate: func(c *ClientConfig) { c.URI = "neo4j+s://db.example.com:7687" }, wantErr: false},
		{name: "empty URI", mutate: func(c *ClientConfig) { c.URI = "" }, wantErr: true},
		{name: "http scheme", mutate: func(c *ClientConfig) { c.URI = "http://localhost:7474" }, wantErr: true},
		{name: "empty username", mutate: func(c *ClientConfig) { c.Username = "" }, wantErr: true},
		{name: "empty password", mutate: func(c *ClientConfig) { c.Password = "" }, wantErr: true},
		{name: "zero timeout", mutate: func(c *ClientConfig) { c.ConnectionTimeout = 0 }, wantErr: true},
		{name: "negative retry time", mutate: func(c *ClientConfig) { c.MaxTransactionRetryTime = -time.Second }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultClientConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, types.CONFIG_VALIDATION_FAILED, types.CodeOf(err))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestPool_LazyInitialization(t *testing.T) {
	driver := NewMockDriver()
	pool := newTestPool(driver)

	assert.Equal(t, 0, driver.Created(), "no driver before first acquire")

	session, err := pool.Acquire(context.Background())
	require.NoError(t, err)
	require.NoError(t, session.Close(context.Background()))

	session, err = pool.Acquire(context.Background())
	require.NoError(t, err)
	require.NoError(t, session.Close(context.Background()))

	assert.Equal(t, 1, driver.Created())
	opened, closed := driver.Sessions()
	assert.Equal(t, 2, opened)
	assert.Equal(t, 2, closed)
}

func TestPool_ConcurrentFirstAcquireCreatesOneDriver(t *testing.T) {
	driver := NewMockDriver()
	pool := newTestPool(driver)

	const callers = 50
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	start := make(chan struct{})

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			errs <- pool.WithSession(context.Background(), func(ctx context.Context, s Session) error {
				_, err := s.Run(ctx, AccessRead, pingQuery, nil)
				return err
			})
		}()
	}
	close(start)
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, 1, driver.Created())
	opened, closed := driver.Sessions()
	assert.Equal(t, callers, opened)
	assert.Equal(t, callers, closed)
}

func TestPool_WithSessionReleasesOnError(t *testing.T) {
	driver := NewMockDriver()
	pool := newTestPool(driver)
	boom := errors.New("boom")

	err := pool.WithSession(context.Background(), func(context.Context, Session) error {
		return boom
	})

	assert.ErrorIs(t, err, boom)
	opened, closed := driver.Sessions()
	assert.Equal(t, 1, opened)
	assert.Equal(t, 1, closed)
}

func TestPool_WithSessionReleasesOnPanic(t *testing.T) {
	driver := NewMockDriver()
	pool := newTestPool(driver)

	assert.Panics(t, func() {
		_ = pool.WithSession(context.Background(), func(context.Context, Session) error {
			panic("boom")
		})
	})

	opened, closed := driver.Sessions()
	assert.Equal(t, 1, opened)
	assert.Equal(t, 1, closed)
}

func TestPool_CloseAllReinitializes(t *testing.T) {
	driver := NewMockDriver()
	pool := newTestPool(driver)
	ctx := context.Background()

	require.NoError(t, pool.Ping(ctx))
	require.NoError(t, pool.CloseAll(ctx))
	assert.True(t, driver.Closed())

	require.NoError(t, pool.Ping(ctx))
	assert.Equal(t, 2, driver.Created())
	assert.False(t, driver.Closed())

	// closing twice is harmless
	require.NoError(t, pool.CloseAll(ctx))
	require.NoError(t, pool.CloseAll(ctx))
}

func TestPool_VerifyConnectivityFailure(t *testing.T) {
	driver := NewMockDriver()
	driver.SetVerifyError(errors.New("connection refused"))
	pool := newTestPool(driver)

	_, err := pool.Acquire(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrDatabaseConnection))
	assert.True(t, driver.Closed(), "failed driver is closed")

	// the failed driver is not cached
	driver.SetVerifyError(nil)
	_, err = pool.Acquire(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, driver.Created())
}

func TestPool_InvalidConfig(t *testing.T) {
	driver := NewMockDriver()
	cfg := DefaultClientConfig()
	cfg.URI = "http://localhost"
	pool := NewPool(cfg, WithDriverFactory(driver.Factory()))

	_, err := pool.Acquire(context.Background())
	require.Error(t, err)
	assert.Equal(t, types.CONFIG_VALIDATION_FAILED, types.CodeOf(err))
	assert.Equal(t, 0, driver.Created())
}

func TestPool_PingDoesNotRetry(t *testing.T) {
	driver := NewMockDriver()
	driver.SetResponder(func(MockRun) (QueryResult, error) {
		return QueryResult{}, errors.New("server unavailable")
	})
	pool := newTestPool(driver)

	err := pool.Ping(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrDatabaseConnection))
	assert.Len(t, driver.Runs(), 1)
	assert.Equal(t, pingQuery, driver.Runs()[0].Cypher)
}

func TestPool_Health(t *testing.T) {
	driver := NewMockDriver()
	pool := newTestPool(driver)

	status := pool.Health(context.Background())
	assert.True(t, status.IsHealthy())
	assert.Equal(t, "bolt://localhost:7687", status.URI)

	driver.SetResponder(func(MockRun) (QueryResult, error) {
		return QueryResult{}, errors.New("down")
	})
	status = pool.Health(context.Background())
	assert.False(t, status.IsHealthy())
	assert.Contains(t, status.Message, "DATABASE_CONNECTION_FAILED")
}

func TestDefaultPool(t *testing.T) {
	driver := NewMockDriver()
	require.NoError(t, ConfigureDefault(DefaultClientConfig(), WithDriverFactory(driver.Factory())))

	p1 := DefaultPool()
	p2 := DefaultPool()
	assert.Same(t, p1, p2)

	err := ConfigureDefault(DefaultClientConfig())
	require.Error(t, err)

	require.NoError(t, p1.Ping(context.Background()))
	assert.Equal(t, 1, driver.Created())
	require.NoError(t, p1.CloseAll(context.Background()))
}
