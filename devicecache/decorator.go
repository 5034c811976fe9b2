package devicecache

import (
	"context"
	"time"

	"github.com/goliatone/go-device-cache/cache"
	"github.com/goliatone/go-device-cache/internal/device"
	"github.com/google/uuid"
)

// Interface assertion to ensure CachedService implements device.Service
var _ device.Service = (*CachedService)(nil)

// DefaultInvalidationTimeout bounds the invalidation step of a write.
const DefaultInvalidationTimeout = 2 * time.Second

// CachedService decorates a device.Service with cache-aside reads and
// invalidation after successful writes.
type CachedService struct {
	inner               device.Service
	cache               cache.Service
	keys                Keys
	ttl                 time.Duration
	invalidationTimeout time.Duration
}

// Option configures a CachedService.
type Option func(*CachedService)

// WithTTL sets the TTL of populated entries. Zero defers to the cache default.
func WithTTL(ttl time.Duration) Option {
	return func(c *CachedService) {
		c.ttl = ttl
	}
}

// WithInvalidationTimeout bounds Remove and RemoveByPattern after a write.
func WithInvalidationTimeout(d time.Duration) Option {
	return func(c *CachedService) {
		c.invalidationTimeout = d
	}
}

// WithKeySerializer swaps the serializer used to derive keys.
func WithKeySerializer(serializer cache.KeySerializer) Option {
	return func(c *CachedService) {
		c.keys = NewKeys(serializer)
	}
}

// New creates a CachedService that wraps inner with cacheService.
func New(inner device.Service, cacheService cache.Service, opts ...Option) *CachedService {
	c := &CachedService{
		inner:               inner,
		cache:               cacheService,
		keys:                NewKeys(nil),
		invalidationTimeout: DefaultInvalidationTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Keys exposes the key scheme in use.
func (c *CachedService) Keys() Keys { return c.keys }

// GetDeviceByID serves the point key, falling back to inner on a miss.
// Not-found results are returned without being cached.
func (c *CachedService) GetDeviceByID(ctx context.Context, id uuid.UUID) (device.View, error) {
	key := c.keys.Device(id)
	if view, ok := c.lookupView(ctx, key); ok {
		return view, nil
	}

	view, err := c.inner.GetDeviceByID(ctx, id)
	if err != nil {
		return device.View{}, err
	}

	c.cache.Set(ctx, key, view, c.ttl)
	return view, nil
}

// ListDevices serves the list key of the normalized query shape.
func (c *CachedService) ListDevices(ctx context.Context, filter device.Filter, page device.Pagination) (device.Page[device.View], error) {
	filter = filter.Normalize()
	page = page.Normalize()
	key := c.keys.List(filter, page)

	if result, ok := c.lookupPage(ctx, key); ok {
		return result, nil
	}

	result, err := c.inner.ListDevices(ctx, filter, page)
	if err != nil {
		return device.Page[device.View]{}, err
	}

	c.cache.Set(ctx, key, result, c.ttl)
	return result, nil
}

// RegisterDevice registers through inner, then invalidates.
func (c *CachedService) RegisterDevice(ctx context.Context, in device.RegisterInput) (device.View, error) {
	view, err := c.inner.RegisterDevice(ctx, in)
	if err != nil {
		return device.View{}, err
	}
	c.invalidate(ctx, view.ID)
	return view, nil
}

// UpdateDevice updates through inner, then invalidates. A not-found or
// failed update leaves the cache untouched.
func (c *CachedService) UpdateDevice(ctx context.Context, id uuid.UUID, in device.UpdateInput) (device.View, error) {
	view, err := c.inner.UpdateDevice(ctx, id, in)
	if err != nil {
		return device.View{}, err
	}
	c.invalidate(ctx, id)
	return view, nil
}

// DeleteDevice deletes through inner and invalidates only when a device
// was actually removed.
func (c *CachedService) DeleteDevice(ctx context.Context, id uuid.UUID) (bool, error) {
	deleted, err := c.inner.DeleteDevice(ctx, id)
	if err != nil || !deleted {
		return deleted, err
	}
	c.invalidate(ctx, id)
	return true, nil
}

func (c *CachedService) lookupView(ctx context.Context, key string) (device.View, bool) {
	if bypassFromContext(ctx) {
		recordStatus(ctx, StatusBypass)
		return device.View{}, false
	}
	view, ok := cache.Get[device.View](ctx, c.cache, key)
	if !ok {
		recordStatus(ctx, StatusMiss)
		return device.View{}, false
	}
	recordStatus(ctx, StatusHit)
	return view.UTC(), true
}

func (c *CachedService) lookupPage(ctx context.Context, key string) (device.Page[device.View], bool) {
	if bypassFromContext(ctx) {
		recordStatus(ctx, StatusBypass)
		return device.Page[device.View]{}, false
	}
	result, ok := cache.Get[device.Page[device.View]](ctx, c.cache, key)
	if !ok {
		recordStatus(ctx, StatusMiss)
		return device.Page[device.View]{}, false
	}
	recordStatus(ctx, StatusHit)
	if result.Items == nil {
		result.Items = []device.View{}
	}
	for i := range result.Items {
		result.Items[i] = result.Items[i].UTC()
	}
	return result, true
}

// invalidate drops the point key of id and every listing. It runs after the
// store mutation has committed and is detached from caller cancellation.
func (c *CachedService) invalidate(ctx context.Context, id uuid.UUID) {
	ctx = context.WithoutCancel(ctx)
	if c.invalidationTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.invalidationTimeout)
		defer cancel()
	}

	c.cache.Remove(ctx, c.keys.Device(id))
	c.cache.RemoveByPattern(ctx, ListPattern)
}
