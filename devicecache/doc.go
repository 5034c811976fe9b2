// Package devicecache provides a cache-aside decorator for device.Service.
//
// # Overview
//
// CachedService wraps an uncached device.Service and a fail-open
// cache.Service. Reads consult the cache first; writes go to the wrapped
// service and then invalidate.
//
//	inner := device.NewService(store)
//	cached := devicecache.New(inner, cacheService, devicecache.WithTTL(5*time.Minute))
//
//	view, err := cached.GetDeviceByID(ctx, id) // cache first, store on miss
//	_, err = cached.UpdateDevice(ctx, id, in)  // store, then invalidate
//
// # Key Scheme
//
// A device has exactly one point key, device:{id}. A listing is keyed by
// every field of its normalized filter and pagination, in a fixed order:
//
//	devices:{page}:{size}:{type}:{location}:{isOnline}:{name}:{minThreshold}:{sortBy}:{sortOrder}
//
// The list key space is unbounded, so writes do not try to find the listings
// they affect. Every successful write removes its point key and then every
// key matching devices:*.
//
// # Read Path
//
//   - Point reads: Get device:{id}; on miss call the wrapped service and Set
//     the result. Not-found results are not cached, so a device registered
//     right after a miss is visible on the next read.
//   - List reads: Get the list key; on miss call the wrapped service and Set
//     the result page.
//
// Errors from the wrapped service are returned unchanged and never cached.
//
// # Write Path
//
// Register, Update and Delete call the wrapped service first. Only when it
// succeeds (for Delete, only when a device was removed) is the cache
// invalidated. Invalidation uses a context detached from the caller, bounded
// by the invalidation timeout, so a disconnecting client cannot skip it.
//
// # Consistency
//
// A read that misses, then loads from the store before a concurrent write
// commits, and stores its result after that write's invalidation, leaves a
// stale entry until the TTL expires or the next write. Entries are not
// versioned; this window is accepted.
//
// # Request Options
//
//   - WithCacheBypass: skip the lookup but still store the fresh result.
//   - WithStatusRecorder: learn whether a read was a HIT, MISS or BYPASS.
package devicecache
