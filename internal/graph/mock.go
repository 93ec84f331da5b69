package graph

import (
	"context"
	"sync"
	"time"
)

// MockRun is a recorded query executed through a MockDriver session.
type MockRun struct {
	Mode      AccessMode
	Cypher    string
	Params    map[string]any
	Timestamp time.Time
}

// Responder produces the result for a recorded run.
type Responder func(run MockRun) (QueryResult, error)

// MockDriver is an in-process Driver for tests. It records every query,
// counts sessions and answers through a configurable Responder. By default
// every query succeeds with one empty record.
type MockDriver struct {
	mu sync.Mutex

	runs           []MockRun
	created        int
	sessionsOpened int
	sessionsClosed int
	closed         bool

	verifyErr  error
	factoryErr error
	responder  Responder
}

// NewMockDriver creates a mock driver.
func NewMockDriver() *MockDriver {
	return &MockDriver{
		responder: func(MockRun) (QueryResult, error) {
			return QueryResult{Records: []map[string]any{{}}}, nil
		},
	}
}

// SetResponder replaces the query responder.
func (m *MockDriver) SetResponder(fn Responder) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responder = fn
}

// SetVerifyError makes VerifyConnectivity fail with err.
func (m *MockDriver) SetVerifyError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.verifyErr = err
}

// SetFactoryError makes the factory fail with err.
func (m *MockDriver) SetFactoryError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.factoryErr = err
}

// Factory returns a DriverFactory that hands out this driver and counts how
// many times it was asked to.
func (m *MockDriver) Factory() DriverFactory {
	return func(context.Context, ClientConfig) (Driver, error) {
		m.mu.Lock()
		defer m.mu.Unlock()
		if m.factoryErr != nil {
			return nil, m.factoryErr
		}
		m.created++
		m.closed = false
		return m, nil
	}
}

func (m *MockDriver) NewSession(context.Context) Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessionsOpened++
	return &mockSession{driver: m}
}

func (m *MockDriver) VerifyConnectivity(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.verifyErr
}

func (m *MockDriver) Close(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Runs returns a copy of every recorded query.
func (m *MockDriver) Runs() []MockRun {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockRun, len(m.runs))
	copy(out, m.runs)
	return out
}

// Created returns how many times the factory produced the driver.
func (m *MockDriver) Created() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.created
}

// Sessions returns the number of sessions opened and closed.
func (m *MockDriver) Sessions() (opened, closed int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessionsOpened, m.sessionsClosed
}

// Closed reports whether Close was called since the last creation.
func (m *MockDriver) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

type mockSession struct {
	driver *MockDriver
	once   sync.Once
}

func (s *mockSession) Run(_ context.Context, mode AccessMode, cypher string, params map[string]any) (QueryResult, error) {
	run := MockRun{Mode: mode, Cypher: cypher, Params: params, Timestamp: time.Now()}

	s.driver.mu.Lock()
	s.driver.runs = append(s.driver.runs, run)
	responder := s.driver.responder
	s.driver.mu.Unlock()

	return responder(run)
}

func (s *mockSession) Close(context.Context) error {
	s.once.Do(func() {
		s.driver.mu.Lock()
		s.driver.sessionsClosed++
		s.driver.mu.Unlock()
	})
	return nil
}
