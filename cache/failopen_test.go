package cache

import (
	"context"
	"errors"
	"path"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type fakeBackend struct {
	mu        sync.Mutex
	entries   map[string][]byte
	ttls      map[string]time.Duration
	err       error
	panicOn   string
	calls     int
	lastCtxOK bool
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{entries: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (f *fakeBackend) enter(op string, ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastCtxOK = ctx.Err() == nil
	if f.panicOn == op {
		panic("backend exploded")
	}
	return f.err
}

func (f *fakeBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := f.enter("get", ctx); err != nil {
		return nil, false, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.entries[key]
	return v, ok, nil
}

func (f *fakeBackend) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := f.enter("set", ctx); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[key] = value
	f.ttls[key] = ttl
	return nil
}

func (f *fakeBackend) Delete(ctx context.Context, key string) error {
	if err := f.enter("delete", ctx); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.entries, key)
	return nil
}

func (f *fakeBackend) DeleteByPattern(ctx context.Context, pattern string) (int, error) {
	if err := f.enter("delete_by_pattern", ctx); err != nil {
		return 0, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	removed := 0
	for key := range f.entries {
		if ok, _ := path.Match(pattern, key); ok {
			delete(f.entries, key)
			removed++
		}
	}
	return removed, nil
}

func (f *fakeBackend) Ping(ctx context.Context) error { return f.enter("ping", ctx) }

func (f *fakeBackend) Close() error { return nil }

type countingObserver struct {
	mu     sync.Mutex
	hits   int
	misses int
	errors map[string]int
}

func (o *countingObserver) ObserveCacheResult(hit bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if hit {
		o.hits++
	} else {
		o.misses++
	}
}

func (o *countingObserver) ObserveCacheError(operation string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.errors == nil {
		o.errors = map[string]int{}
	}
	o.errors[operation]++
}

type payload struct {
	Name  string    `json:"name"`
	Count *int      `json:"count,omitempty"`
	At    time.Time `json:"at"`
}

func noBreakerConfig() Config {
	cfg := DefaultConfig()
	cfg.Breaker.Enabled = false
	return cfg
}

func TestFailOpen_RoundTrip(t *testing.T) {
	backend := newFakeBackend()
	obs := &countingObserver{}
	svc, err := NewFailOpen(backend, noBreakerConfig(), WithObserver(obs))
	if err != nil {
		t.Fatalf("NewFailOpen() error = %v", err)
	}

	ctx := context.Background()
	count := 3
	at := time.Date(2024, 1, 2, 3, 4, 5, 6000, time.UTC)
	svc.Set(ctx, "k", payload{Name: "lamp", Count: &count, At: at}, 0)

	if backend.ttls["k"] != DefaultTTL {
		t.Errorf("ttl = %v, want %v", backend.ttls["k"], DefaultTTL)
	}

	got, ok := Get[payload](ctx, svc, "k")
	if !ok {
		t.Fatalf("Get() ok = false, want true")
	}
	if got.Name != "lamp" || got.Count == nil || *got.Count != 3 || !got.At.Equal(at) {
		t.Errorf("Get() = %+v, want name=lamp count=3 at=%v", got, at)
	}

	if _, ok := Get[payload](ctx, svc, "other"); ok {
		t.Errorf("Get() on missing key ok = true")
	}

	if obs.hits != 1 || obs.misses != 1 {
		t.Errorf("observer hits=%d misses=%d, want 1 and 1", obs.hits, obs.misses)
	}
}

func TestFailOpen_SwallowsBackendErrors(t *testing.T) {
	backend := newFakeBackend()
	backend.err = errors.New("connection refused")

	core, logs := observer.New(zap.WarnLevel)
	obs := &countingObserver{}
	svc, err := NewFailOpen(backend, noBreakerConfig(), WithLogger(zap.New(core)), WithObserver(obs))
	if err != nil {
		t.Fatalf("NewFailOpen() error = %v", err)
	}

	ctx := context.Background()
	svc.Set(ctx, "k", "v", time.Minute)
	svc.Remove(ctx, "k")
	svc.RemoveByPattern(ctx, "devices:*")
	if _, ok := Get[string](ctx, svc, "k"); ok {
		t.Fatalf("Get() ok = true on failing backend")
	}

	if logs.Len() != 4 {
		t.Errorf("logged %d failures, want 4", logs.Len())
	}
	for _, op := range []string{"get", "set", "remove", "remove_by_pattern"} {
		if obs.errors[op] != 1 {
			t.Errorf("observer errors[%s] = %d, want 1", op, obs.errors[op])
		}
	}
	if obs.misses != 1 {
		t.Errorf("observer misses = %d, want 1", obs.misses)
	}

	if err := svc.Ping(ctx); err == nil {
		t.Errorf("Ping() error = nil, want backend error")
	}
}

func TestFailOpen_RecoversPanics(t *testing.T) {
	tests := []struct {
		name string
		op   string
		run  func(svc *FailOpen)
	}{
		{name: "get", op: "get", run: func(svc *FailOpen) {
			if _, ok := Get[string](context.Background(), svc, "k"); ok {
				t.Errorf("Get() ok = true after panic")
			}
		}},
		{name: "set", op: "set", run: func(svc *FailOpen) { svc.Set(context.Background(), "k", "v", 0) }},
		{name: "delete", op: "delete", run: func(svc *FailOpen) { svc.Remove(context.Background(), "k") }},
		{name: "pattern", op: "delete_by_pattern", run: func(svc *FailOpen) { svc.RemoveByPattern(context.Background(), "*") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := newFakeBackend()
			backend.panicOn = tt.op
			svc, err := NewFailOpen(backend, DefaultConfig())
			if err != nil {
				t.Fatalf("NewFailOpen() error = %v", err)
			}
			tt.run(svc)
		})
	}
}

func TestFailOpen_DecodeFailureIsMiss(t *testing.T) {
	backend := newFakeBackend()
	backend.entries["k"] = []byte{0xc1} // never used by msgpack
	svc, err := NewFailOpen(backend, noBreakerConfig())
	if err != nil {
		t.Fatalf("NewFailOpen() error = %v", err)
	}

	if _, ok := Get[payload](context.Background(), svc, "k"); ok {
		t.Errorf("Get() ok = true for corrupt payload")
	}
}

func TestFailOpen_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	backend := newFakeBackend()
	backend.err = errors.New("timeout")

	cfg := DefaultConfig()
	cfg.Breaker.ConsecutiveFailures = 2
	cfg.Breaker.OpenTimeout = time.Hour
	svc, err := NewFailOpen(backend, cfg)
	if err != nil {
		t.Fatalf("NewFailOpen() error = %v", err)
	}

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		svc.Remove(ctx, "k")
	}

	if backend.calls != 2 {
		t.Errorf("backend calls = %d, want 2 once the breaker is open", backend.calls)
	}
}

func TestFailOpen_PatternRemoval(t *testing.T) {
	backend := newFakeBackend()
	svc, err := NewFailOpen(backend, noBreakerConfig())
	if err != nil {
		t.Fatalf("NewFailOpen() error = %v", err)
	}

	ctx := context.Background()
	svc.Set(ctx, "device:1", "a", 0)
	svc.Set(ctx, "devices:1:10", "b", 0)
	svc.Set(ctx, "devices:2:10", "c", 0)

	svc.RemoveByPattern(ctx, "devices:*")

	if _, ok := backend.entries["device:1"]; !ok {
		t.Errorf("point key removed by list pattern")
	}
	if len(backend.entries) != 1 {
		t.Errorf("entries left = %d, want 1", len(backend.entries))
	}
}

func TestNewFailOpen_Validation(t *testing.T) {
	if _, err := NewFailOpen(nil, DefaultConfig()); err == nil {
		t.Errorf("NewFailOpen(nil) error = nil, want error")
	}

	cfg := DefaultConfig()
	cfg.DefaultTTL = 0
	if _, err := NewFailOpen(newFakeBackend(), cfg); err == nil {
		t.Errorf("NewFailOpen() with zero ttl error = nil, want error")
	}
}
