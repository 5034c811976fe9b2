package testsupport

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-device-cache/internal/device"
	"github.com/goliatone/go-device-cache/internal/store/bunstore"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// LoadFixture loads test data from a fixture file.
// The path is relative to the test package directory.
func LoadFixture(t *testing.T, path string) []byte {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to load fixture from %s: %v", path, err)
	}

	return data
}

// LoadFixtureJSON loads JSON test data from a fixture file and unmarshals it.
// The path is relative to the test package directory.
func LoadFixtureJSON(t *testing.T, path string, dest any) {
	t.Helper()

	data := LoadFixture(t, path)
	if err := json.Unmarshal(data, dest); err != nil {
		t.Fatalf("failed to unmarshal JSON fixture from %s: %v", path, err)
	}
}

// FixturePath constructs a path to a fixture file relative to the testdata directory.
func FixturePath(filename string) string {
	return filepath.Join("testdata", filename)
}

// DeviceFixture is the on-disk shape of a fixture device. RegisteredAt is
// optional; devices without one are spaced an hour apart from Base.
type DeviceFixture struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Type           string     `json:"type"`
	Location       string     `json:"location"`
	IsOnline       bool       `json:"isOnline"`
	ThresholdWatts *int       `json:"thresholdWatts,omitempty"`
	SerialNumber   *string    `json:"serialNumber,omitempty"`
	RegisteredAt   *time.Time `json:"registeredAt,omitempty"`
}

// Base is the registration time assigned to fixtures without one.
var Base = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

// LoadDevices reads a JSON array of DeviceFixture and converts it to
// devices. Fixtures without an id get a generated one.
func LoadDevices(t *testing.T, path string) []device.Device {
	t.Helper()

	var fixtures []DeviceFixture
	LoadFixtureJSON(t, path, &fixtures)

	out := make([]device.Device, 0, len(fixtures))
	for i, f := range fixtures {
		id := uuid.New()
		if f.ID != "" {
			parsed, err := uuid.Parse(f.ID)
			if err != nil {
				t.Fatalf("fixture %d: invalid id %q: %v", i, f.ID, err)
			}
			id = parsed
		}

		registered := Base.Add(time.Duration(i) * time.Hour)
		if f.RegisteredAt != nil {
			registered = f.RegisteredAt.UTC()
		}

		out = append(out, device.Device{
			ID:             id,
			Name:           f.Name,
			Type:           f.Type,
			Location:       f.Location,
			IsOnline:       f.IsOnline,
			ThresholdWatts: f.ThresholdWatts,
			SerialNumber:   f.SerialNumber,
			RegisteredAt:   registered,
		})
	}
	return out
}

// AddDevices inserts devices into store, failing the test on the first error.
func AddDevices(t *testing.T, store device.Store, devices []device.Device) {
	t.Helper()

	ctx := context.Background()
	for _, d := range devices {
		if err := store.Add(ctx, d); err != nil {
			t.Fatalf("failed to add fixture device %q: %v", d.Name, err)
		}
	}
}

// SQLiteDSN returns a shared-cache in-memory DSN unique to the test.
func SQLiteDSN(t *testing.T) string {
	t.Helper()

	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, t.Name())

	return fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
}

// OpenSQLite opens a migrated in-memory SQLite database closed at the end
// of the test.
func OpenSQLite(t *testing.T) *bun.DB {
	t.Helper()

	ctx := context.Background()
	db, err := bunstore.Open(ctx, bunstore.DriverSQLite, SQLiteDSN(t), 1)
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := bunstore.Migrate(ctx, db); err != nil {
		t.Fatalf("failed to migrate sqlite: %v", err)
	}
	return db
}
