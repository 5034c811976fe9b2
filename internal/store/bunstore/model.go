package bunstore

import (
	"time"

	"github.com/goliatone/go-device-cache/internal/device"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type deviceRecord struct {
	bun.BaseModel `bun:"table:devices,alias:d"`

	ID             uuid.UUID `bun:"id,pk,type:uuid"`
	Name           string    `bun:"name,notnull,type:varchar(200)"`
	Type           string    `bun:"type,notnull,type:varchar(100)"`
	Location       string    `bun:"location,notnull,type:varchar(200)"`
	IsOnline       bool      `bun:"is_online,notnull"`
	ThresholdWatts *int      `bun:"threshold_watts"`
	SerialNumber   *string   `bun:"serial_number,type:varchar(100)"`
	RegisteredAt   time.Time `bun:"registered_at,notnull"`
}

// mutableColumns are rewritten on every update. id and registered_at are not.
var mutableColumns = []string{
	"name",
	"type",
	"location",
	"is_online",
	"threshold_watts",
	"serial_number",
}

func newRecord(d device.Device) *deviceRecord {
	return &deviceRecord{
		ID:             d.ID,
		Name:           d.Name,
		Type:           d.Type,
		Location:       d.Location,
		IsOnline:       d.IsOnline,
		ThresholdWatts: d.ThresholdWatts,
		SerialNumber:   d.SerialNumber,
		RegisteredAt:   d.RegisteredAt.UTC(),
	}
}

func (r *deviceRecord) toDevice() device.Device {
	return device.Device{
		ID:             r.ID,
		Name:           r.Name,
		Type:           r.Type,
		Location:       r.Location,
		IsOnline:       r.IsOnline,
		ThresholdWatts: r.ThresholdWatts,
		SerialNumber:   r.SerialNumber,
		RegisteredAt:   r.RegisteredAt.UTC(),
	}
}

func deviceHandlers() repository.ModelHandlers[*deviceRecord] {
	return repository.ModelHandlers[*deviceRecord]{
		NewRecord: func() *deviceRecord {
			return &deviceRecord{}
		},
		GetID: func(r *deviceRecord) uuid.UUID {
			if r == nil {
				return uuid.Nil
			}
			return r.ID
		},
		SetID: func(r *deviceRecord, id uuid.UUID) {
			r.ID = id
		},
		GetIdentifier: func() string {
			return "id"
		},
	}
}
