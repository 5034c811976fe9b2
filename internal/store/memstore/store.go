// Package memstore is an in-process device.Store. It applies the same
// filter, sort and page clamping rules as the relational store and is used
// for local runs, demos and tests.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-device-cache/internal/device"
	"github.com/google/uuid"
)

// Store holds devices in a map guarded by a RWMutex.
type Store struct {
	mu      sync.RWMutex
	devices map[uuid.UUID]device.Device
}

var _ device.Store = (*Store)(nil)

// New returns an empty Store.
func New() *Store {
	return &Store{devices: make(map[uuid.UUID]device.Device)}
}

func (s *Store) GetByID(ctx context.Context, id uuid.UUID) (device.Device, error) {
	if err := ctx.Err(); err != nil {
		return device.Device{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.devices[id]
	if !ok {
		return device.Device{}, device.ErrDeviceNotFound
	}
	return d, nil
}

func (s *Store) Add(ctx context.Context, d device.Device) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.devices[d.ID]; exists {
		return fmt.Errorf("device %s already exists", d.ID)
	}
	s.devices[d.ID] = d
	return nil
}

// Update is a no-op for unknown ids, matching a zero-row SQL update.
func (s *Store) Update(ctx context.Context, d device.Device) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.devices[d.ID]
	if !ok {
		return nil
	}
	d.RegisteredAt = current.RegisteredAt
	s.devices[d.ID] = d
	return nil
}

func (s *Store) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.devices[id]; !ok {
		return false, nil
	}
	delete(s.devices, id)
	return true, nil
}

func (s *Store) Query(ctx context.Context, filter device.Filter, page device.Pagination) (device.Page[device.Device], error) {
	if err := ctx.Err(); err != nil {
		return device.Page[device.Device]{}, err
	}
	filter = filter.Normalize()
	page = page.Normalize()

	s.mu.RLock()
	matches := make([]device.Device, 0, len(s.devices))
	for _, d := range s.devices {
		if filter.Matches(d) {
			matches = append(matches, d)
		}
	}
	s.mu.RUnlock()

	total := len(matches)
	if total == 0 {
		return device.EmptyPage[device.Device](page), nil
	}

	number := device.ClampPage(page.Page, page.Size, total)
	sortDevices(matches, filter.SortBy, filter.SortOrder)

	start := (number - 1) * page.Size
	end := start + page.Size
	if end > total {
		end = total
	}
	return device.NewPage(matches[start:end], number, page.Size, total), nil
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Len returns the number of stored devices.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.devices)
}

func sortDevices(items []device.Device, by device.SortField, order device.SortOrder) {
	sort.SliceStable(items, func(i, j int) bool {
		c := compare(items[i], items[j], by)
		if c == 0 {
			return items[i].ID.String() < items[j].ID.String()
		}
		if order == device.SortAscending {
			return c < 0
		}
		return c > 0
	})
}

func compare(a, b device.Device, by device.SortField) int {
	switch by {
	case device.SortByName:
		return strings.Compare(a.Name, b.Name)
	case device.SortByLocation:
		return strings.Compare(a.Location, b.Location)
	case device.SortByType:
		return strings.Compare(a.Type, b.Type)
	case device.SortByIsOnline:
		switch {
		case a.IsOnline == b.IsOnline:
			return 0
		case !a.IsOnline:
			return -1
		default:
			return 1
		}
	default:
		return a.RegisteredAt.Compare(b.RegisteredAt)
	}
}
