package devicecache

import (
	"context"
	"sync"
)

// Status describes how a read was served.
type Status string

const (
	StatusHit    Status = "HIT"
	StatusMiss   Status = "MISS"
	StatusBypass Status = "BYPASS"
)

type bypassContextKey struct{}

type statusContextKey struct{}

// WithCacheBypass makes reads skip the cache lookup. The fresh result is
// still stored, so a bypassing read refreshes the entry.
func WithCacheBypass(ctx context.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, bypassContextKey{}, true)
}

func bypassFromContext(ctx context.Context) bool {
	if ctx == nil {
		return false
	}
	bypass, _ := ctx.Value(bypassContextKey{}).(bool)
	return bypass
}

// StatusRecorder captures the Status of the last read made with its context.
type StatusRecorder struct {
	mu     sync.Mutex
	status Status
}

// Status returns the recorded status, or "" when no cached read happened.
func (r *StatusRecorder) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

func (r *StatusRecorder) set(s Status) {
	r.mu.Lock()
	r.status = s
	r.mu.Unlock()
}

// WithStatusRecorder attaches a recorder that reads report into.
func WithStatusRecorder(ctx context.Context) (context.Context, *StatusRecorder) {
	if ctx == nil {
		ctx = context.Background()
	}
	rec := &StatusRecorder{}
	return context.WithValue(ctx, statusContextKey{}, rec), rec
}

func recordStatus(ctx context.Context, s Status) {
	if ctx == nil {
		return
	}
	if rec, ok := ctx.Value(statusContextKey{}).(*StatusRecorder); ok {
		rec.set(s)
	}
}
