package device

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Store is the durable source of truth for devices.
type Store interface {
	// GetByID returns ErrDeviceNotFound when no row matches.
	GetByID(ctx context.Context, id uuid.UUID) (Device, error)
	// Add persists a device whose ID and RegisteredAt are already assigned.
	Add(ctx context.Context, d Device) error
	// Update replaces the mutable fields of the row matching d.ID.
	Update(ctx context.Context, d Device) error
	// Delete reports whether a row existed and was removed.
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	// Query filters, counts, clamps the page, sorts, then slices.
	Query(ctx context.Context, filter Filter, page Pagination) (Page[Device], error)
	Ping(ctx context.Context) error
}

// Service is the device API consumed by transports. Not-found outcomes are
// reported as ErrDeviceNotFound, except DeleteDevice which returns false.
type Service interface {
	RegisterDevice(ctx context.Context, in RegisterInput) (View, error)
	GetDeviceByID(ctx context.Context, id uuid.UUID) (View, error)
	ListDevices(ctx context.Context, filter Filter, page Pagination) (Page[View], error)
	UpdateDevice(ctx context.Context, id uuid.UUID, in UpdateInput) (View, error)
	DeleteDevice(ctx context.Context, id uuid.UUID) (bool, error)
}

// Option configures the core service.
type Option func(*service)

// WithClock overrides the registration time source.
func WithClock(now func() time.Time) Option {
	return func(s *service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator overrides device id assignment.
func WithIDGenerator(newID func() uuid.UUID) Option {
	return func(s *service) {
		if newID != nil {
			s.newID = newID
		}
	}
}

type service struct {
	store Store
	now   func() time.Time
	newID func() uuid.UUID
}

var _ Service = (*service)(nil)

// NewService returns the uncached Service backed by store.
func NewService(store Store, opts ...Option) Service {
	s := &service{
		store: store,
		now:   time.Now,
		newID: uuid.New,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) RegisterDevice(ctx context.Context, in RegisterInput) (View, error) {
	in = in.normalize()
	if err := in.Validate(); err != nil {
		return View{}, err
	}

	d := Device{
		ID:             s.newID(),
		Name:           in.Name,
		Type:           in.Type,
		Location:       in.Location,
		IsOnline:       in.IsOnline,
		ThresholdWatts: in.ThresholdWatts,
		SerialNumber:   in.SerialNumber,
		RegisteredAt:   timestamp(s.now()),
	}

	if err := s.store.Add(ctx, d); err != nil {
		return View{}, fmt.Errorf("add device: %w", err)
	}
	return ToView(d), nil
}

func (s *service) GetDeviceByID(ctx context.Context, id uuid.UUID) (View, error) {
	d, err := s.store.GetByID(ctx, id)
	if err != nil {
		return View{}, err
	}
	return ToView(d), nil
}

func (s *service) ListDevices(ctx context.Context, filter Filter, page Pagination) (Page[View], error) {
	result, err := s.store.Query(ctx, filter.Normalize(), page.Normalize())
	if err != nil {
		return Page[View]{}, fmt.Errorf("query devices: %w", err)
	}
	return MapPage(result, ToView), nil
}

func (s *service) UpdateDevice(ctx context.Context, id uuid.UUID, in UpdateInput) (View, error) {
	in = in.normalize()
	if err := in.Validate(); err != nil {
		return View{}, err
	}

	current, err := s.store.GetByID(ctx, id)
	if err != nil {
		return View{}, err
	}

	updated := in.apply(current)
	if err := s.store.Update(ctx, updated); err != nil {
		return View{}, fmt.Errorf("update device %s: %w", id, err)
	}
	return ToView(updated), nil
}

func (s *service) DeleteDevice(ctx context.Context, id uuid.UUID) (bool, error) {
	if _, err := s.store.GetByID(ctx, id); err != nil {
		if IsNotFound(err) {
			return false, nil
		}
		return false, err
	}

	deleted, err := s.store.Delete(ctx, id)
	if err != nil {
		return false, fmt.Errorf("delete device %s: %w", id, err)
	}
	return deleted, nil
}
