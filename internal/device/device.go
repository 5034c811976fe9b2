package device

import (
	"time"

	"github.com/google/uuid"
)

// Device is a registered smart home device as persisted by a Store.
// ID and RegisteredAt are assigned once at registration and never change.
type Device struct {
	ID             uuid.UUID
	Name           string
	Type           string
	Location       string
	IsOnline       bool
	ThresholdWatts *int
	SerialNumber   *string
	RegisteredAt   time.Time
}

// View is the external representation of a Device. It is what the
// cache stores and what the HTTP layer renders.
type View struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Type           string    `json:"type"`
	Location       string    `json:"location"`
	IsOnline       bool      `json:"isOnline"`
	ThresholdWatts *int      `json:"thresholdWatts,omitempty"`
	SerialNumber   *string   `json:"serialNumber,omitempty"`
	RegisteredAt   time.Time `json:"registeredAt"`
}

// ToView maps a Device to its external representation.
func ToView(d Device) View {
	return View{
		ID:             d.ID,
		Name:           d.Name,
		Type:           d.Type,
		Location:       d.Location,
		IsOnline:       d.IsOnline,
		ThresholdWatts: cloneInt(d.ThresholdWatts),
		SerialNumber:   cloneString(d.SerialNumber),
		RegisteredAt:   d.RegisteredAt.UTC(),
	}
}

// UTC returns a copy of v with RegisteredAt in UTC. Decoders are free to
// hand back local times; callers comparing views should normalize first.
func (v View) UTC() View {
	v.RegisteredAt = v.RegisteredAt.UTC()
	return v
}

// timestamp returns the canonical registration time for t.
// Postgres keeps microseconds, so anything finer would not round-trip.
func timestamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneString(v *string) *string {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
