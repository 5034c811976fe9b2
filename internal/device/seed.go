package device

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type seedDevice struct {
	name      string
	typ       string
	location  string
	online    bool
	threshold int
}

var demoDevices = []seedDevice{
	{"Living Room Thermostat", "thermostat", "Living Room", true, 87},
	{"Kitchen Smart Light", "light", "Kitchen", false, 100},
	{"Basement Humidity Sensor", "sensor", "Basement", true, 76},
	{"Garage Door Controller", "door-controller", "Garage", true, 64},
	{"Bedroom Motion Sensor", "sensor", "Bedroom", true, 59},
	{"Water Leak Detector", "sensor", "Bathroom", false, 42},
	{"Outdoor Security Camera", "camera", "Front Yard", true, 93},
}

// DemoDevices returns the demo fleet registered relative to now, one day
// apart, newest first.
func DemoDevices(now time.Time) []Device {
	out := make([]Device, 0, len(demoDevices))
	for i, s := range demoDevices {
		threshold := s.threshold
		serial := fmt.Sprintf("SH-%04d", i+1)
		out = append(out, Device{
			ID:             uuid.New(),
			Name:           s.name,
			Type:           s.typ,
			Location:       s.location,
			IsOnline:       s.online,
			ThresholdWatts: &threshold,
			SerialNumber:   &serial,
			RegisteredAt:   timestamp(now.Add(-time.Duration(i) * 24 * time.Hour)),
		})
	}
	return out
}

// SeedDemoDevices adds the demo fleet when the store holds no devices. It
// returns the number of devices inserted.
func SeedDemoDevices(ctx context.Context, store Store, now time.Time) (int, error) {
	existing, err := store.Query(ctx, Filter{}.Normalize(), NewPagination(1, 1))
	if err != nil {
		return 0, fmt.Errorf("check existing devices: %w", err)
	}
	if existing.TotalCount > 0 {
		return 0, nil
	}

	devices := DemoDevices(now)
	for _, d := range devices {
		if err := store.Add(ctx, d); err != nil {
			return 0, fmt.Errorf("seed device %q: %w", d.Name, err)
		}
	}
	return len(devices), nil
}
