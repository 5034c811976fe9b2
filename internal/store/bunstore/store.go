// Package bunstore implements device.Store on a relational database through
// bun and go-repository-bun.
package bunstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-device-cache/internal/device"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Store is a device.Store over the devices table.
type Store struct {
	db   *bun.DB
	repo repository.Repository[*deviceRecord]
}

var _ device.Store = (*Store)(nil)

// New wraps db. The schema must exist; see Migrate.
func New(db *bun.DB) *Store {
	return &Store{
		db:   db,
		repo: repository.NewRepository[*deviceRecord](db, deviceHandlers()),
	}
}

// DB exposes the underlying handle for lifecycle management.
func (s *Store) DB() *bun.DB { return s.db }

func (s *Store) GetByID(ctx context.Context, id uuid.UUID) (device.Device, error) {
	rec, err := s.repo.GetByID(ctx, id.String())
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return device.Device{}, device.ErrDeviceNotFound
		}
		return device.Device{}, fmt.Errorf("get device %s: %w", id, err)
	}
	if rec == nil {
		return device.Device{}, device.ErrDeviceNotFound
	}
	return rec.toDevice(), nil
}

func (s *Store) Add(ctx context.Context, d device.Device) error {
	if _, err := s.repo.Create(ctx, newRecord(d)); err != nil {
		return fmt.Errorf("insert device %s: %w", d.ID, err)
	}
	return nil
}

// Update rewrites every mutable column of the row with d.ID. Zero affected
// rows is not reported; callers look the device up first.
func (s *Store) Update(ctx context.Context, d device.Device) error {
	_, err := s.db.NewUpdate().
		Model(newRecord(d)).
		Column(mutableColumns...).
		WherePK().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("update device %s: %w", d.ID, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	res, err := s.db.NewDelete().
		Model((*deviceRecord)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("delete device %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete device %s: %w", id, err)
	}
	return n > 0, nil
}

func (s *Store) Query(ctx context.Context, filter device.Filter, page device.Pagination) (device.Page[device.Device], error) {
	filter = filter.Normalize()
	page = page.Normalize()

	criteria := filterCriteria(filter)

	total, err := s.repo.Count(ctx, criteria...)
	if err != nil {
		return device.Page[device.Device]{}, fmt.Errorf("count devices: %w", err)
	}
	if total == 0 {
		return device.EmptyPage[device.Device](page), nil
	}

	number := device.ClampPage(page.Page, page.Size, total)
	clamped := device.Pagination{Page: number, Size: page.Size}

	criteria = append(criteria, orderCriteria(filter), pageCriteria(clamped))
	records, _, err := s.repo.List(ctx, criteria...)
	if err != nil {
		return device.Page[device.Device]{}, fmt.Errorf("list devices: %w", err)
	}

	items := make([]device.Device, 0, len(records))
	for _, rec := range records {
		items = append(items, rec.toDevice())
	}
	return device.NewPage(items, number, page.Size, total), nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}

func filterCriteria(f device.Filter) []repository.SelectCriteria {
	var criteria []repository.SelectCriteria

	if f.NameContains != "" {
		pattern := "%" + escapeLike(f.NameContains) + "%"
		criteria = append(criteria, func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("name LIKE ? ESCAPE '!'", pattern)
		})
	}
	if f.Location != "" {
		location := f.Location
		criteria = append(criteria, func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("location = ?", location)
		})
	}
	if f.Type != "" {
		typ := f.Type
		criteria = append(criteria, func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("type = ?", typ)
		})
	}
	if f.IsOnline != nil {
		online := *f.IsOnline
		criteria = append(criteria, func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("is_online = ?", online)
		})
	}
	if f.MinThresholdWatts != nil {
		minWatts := *f.MinThresholdWatts
		criteria = append(criteria, func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("threshold_watts >= ?", minWatts)
		})
	}
	return criteria
}

var sortColumns = map[device.SortField]string{
	device.SortByRegisteredAt: "registered_at",
	device.SortByName:         "name",
	device.SortByLocation:     "location",
	device.SortByType:         "type",
	device.SortByIsOnline:     "is_online",
}

func orderCriteria(f device.Filter) repository.SelectCriteria {
	column, ok := sortColumns[f.SortBy]
	if !ok {
		column = sortColumns[device.SortByRegisteredAt]
	}
	direction := "DESC"
	if f.SortOrder == device.SortAscending {
		direction = "ASC"
	}
	order := column + " " + direction
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.OrderExpr(order).OrderExpr("id ASC")
	}
}

func pageCriteria(p device.Pagination) repository.SelectCriteria {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Limit(p.Size).Offset(p.Skip())
	}
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
