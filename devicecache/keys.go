package devicecache

import (
	"github.com/goliatone/go-device-cache/cache"
	"github.com/goliatone/go-device-cache/internal/device"
	"github.com/google/uuid"
)

const (
	// PointNamespace prefixes single device entries.
	PointNamespace = "device"
	// ListNamespace prefixes every cached listing.
	ListNamespace = "devices"
	// ListPattern matches every key under ListNamespace and nothing else.
	ListPattern = ListNamespace + cache.KeySeparator + "*"
)

// Keys derives cache keys for devices and device listings.
type Keys struct {
	serializer cache.KeySerializer
}

// NewKeys returns Keys built on serializer, or on the default serializer when nil.
func NewKeys(serializer cache.KeySerializer) Keys {
	if serializer == nil {
		serializer = cache.NewDefaultKeySerializer()
	}
	return Keys{serializer: serializer}
}

// Device returns the point key for id.
func (k Keys) Device(id uuid.UUID) string {
	return k.serializer.SerializeKey(PointNamespace, id)
}

// List returns the key of one listing. Every field of the normalized filter
// and pagination takes part, always in the same order, so two listings share
// a key only when every field is equal.
func (k Keys) List(filter device.Filter, page device.Pagination) string {
	f := filter.Normalize()
	p := page.Normalize()
	return k.serializer.SerializeKey(ListNamespace,
		p.Page,
		p.Size,
		f.Type,
		f.Location,
		f.IsOnline,
		f.NameContains,
		f.MinThresholdWatts,
		f.SortBy,
		f.SortOrder,
	)
}
