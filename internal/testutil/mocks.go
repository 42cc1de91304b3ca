package testutil

import (
	"annolist/internal/builder"
	"annolist/internal/models"
	"annolist/internal/providers"
	"context"
	"fmt"
	"sync"
	"time"
)

// MockLogger implements providers.Logger and records calls.
type MockLogger struct {
	mu   sync.Mutex
	Logs []LogEntry
}

type LogEntry struct {
	Level  string
	Type   providers.TypeEnum
	Format string
	Args   []interface{}
}

func (e LogEntry) Message() string {
	return fmt.Sprintf(e.Format, e.Args...)
}

func (m *MockLogger) record(level string, t providers.TypeEnum, format string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Logs = append(m.Logs, LogEntry{Level: level, Type: t, Format: format, Args: args})
}

func (m *MockLogger) Errorf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("error", t, format, args...)
}
func (m *MockLogger) Warnf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("warn", t, format, args...)
}
func (m *MockLogger) Debugf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("debug", t, format, args...)
}
func (m *MockLogger) Infof(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("info", t, format, args...)
}
func (m *MockLogger) Fatalf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("fatal", t, format, args...)
}
func (m *MockLogger) Close() {}

// Entries returns the recorded entries of one level.
func (m *MockLogger) Entries(level string) []LogEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []LogEntry
	for _, e := range m.Logs {
		if e.Level == level {
			out = append(out, e)
		}
	}
	return out
}

// MockMetrics implements providers.MetricsProviderInterface with counters.
type MockMetrics struct {
	mu             sync.Mutex
	BackendErrors  map[string]int // key: "backend:class"
	StaleResponses int
	MalformedRows  int
	PanelsTotal    int
	Persisted      int
	BackendCalls   int
}

func NewMockMetrics() *MockMetrics {
	return &MockMetrics{BackendErrors: make(map[string]int)}
}

func (m *MockMetrics) IncRequestsTotal(_ string, _ int)                 {}
func (m *MockMetrics) ObserveRequestDuration(_ string, _ time.Duration) {}
func (m *MockMetrics) IncCacheHits()                                    {}
func (m *MockMetrics) IncCacheMisses()                                  {}

func (m *MockMetrics) ObserveBackendDuration(_ string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.BackendCalls++
}

func (m *MockMetrics) IncBackendErrors(backend, class string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.BackendErrors[backend+":"+class]++
}

func (m *MockMetrics) IncStaleResponses() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StaleResponses++
}

func (m *MockMetrics) AddMalformedRows(_ string, count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.MalformedRows += count
}

func (m *MockMetrics) SetPanelsTotal(count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PanelsTotal = count
}

func (m *MockMetrics) ObservePersistenceDuration(_ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Persisted++
}

// MockCache implements providers.CacheProviderInterface.
type MockCache struct {
	mu   sync.Mutex
	Data map[string][]byte
}

func NewMockCache() *MockCache {
	return &MockCache{Data: make(map[string][]byte)}
}

func (m *MockCache) Get(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	val, ok := m.Data[key]
	return val, ok
}

func (m *MockCache) Set(key string, value []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Data[key] = value
}

// MockSource implements backends.SourceInterface. FetchFn sees every query;
// without it Body is returned.
type MockSource struct {
	mu      sync.Mutex
	Body    []byte
	Err     error
	FetchFn func(ctx context.Context, q builder.BackendQuery) ([]byte, error)
	Names   []string
	Queries []builder.BackendQuery
}

func (m *MockSource) Fetch(ctx context.Context, q builder.BackendQuery) ([]byte, error) {
	m.mu.Lock()
	m.Queries = append(m.Queries, q)
	fn := m.FetchFn
	m.mu.Unlock()
	if fn != nil {
		return fn(ctx, q)
	}
	return m.Body, m.Err
}

func (m *MockSource) Datasources() []string {
	if m.Names == nil {
		return []string{models.NativeDatasource}
	}
	return m.Names
}

// LastQuery returns the most recent fetched query.
func (m *MockSource) LastQuery() builder.BackendQuery {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Queries) == 0 {
		return builder.BackendQuery{}
	}
	return m.Queries[len(m.Queries)-1]
}

// MockSearcher implements the dashboard search interface.
type MockSearcher struct {
	mu      sync.Mutex
	Results map[int64][]models.DashboardSummary
	Err     error
	Calls   []int64
}

func (m *MockSearcher) SearchDashboards(_ context.Context, dashboardID int64) ([]models.DashboardSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, dashboardID)
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Results[dashboardID], nil
}

// MockCompressor implements interfaces.CompressorInterface with injectable behavior.
type MockCompressor struct {
	CompressFn   func([]byte) ([]byte, error)
	DecompressFn func([]byte) ([]byte, error)
	Closed       bool
}

func (m *MockCompressor) Close() { m.Closed = true }

func (m *MockCompressor) Compress(val []byte) ([]byte, error) {
	if m.CompressFn != nil {
		return m.CompressFn(val)
	}
	out := make([]byte, len(val))
	copy(out, val)
	return out, nil
}

func (m *MockCompressor) Decompress(val []byte) ([]byte, error) {
	if m.DecompressFn != nil {
		return m.DecompressFn(val)
	}
	out := make([]byte, len(val))
	copy(out, val)
	return out, nil
}
