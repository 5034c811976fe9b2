package cacheinfra

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/goliatone/go-device-cache/cache"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Capacity != 10000 {
		t.Errorf("expected Capacity to be 10000, got %d", cfg.Capacity)
	}

	if cfg.NumShards != 256 {
		t.Errorf("expected NumShards to be 256, got %d", cfg.NumShards)
	}

	if cfg.TTL != 5*time.Minute {
		t.Errorf("expected TTL to be 5 minutes, got %v", cfg.TTL)
	}

	if cfg.EvictionPercentage != 10 {
		t.Errorf("expected EvictionPercentage to be 10, got %d", cfg.EvictionPercentage)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name      string
		cfg       Config
		wantError bool
		errorMsg  string
	}{
		{
			name:      "valid default config",
			cfg:       DefaultConfig(),
			wantError: false,
		},
		{
			name: "invalid capacity - zero",
			cfg: Config{
				Capacity:           0,
				NumShards:          256,
				TTL:                5 * time.Minute,
				EvictionPercentage: 10,
			},
			wantError: true,
			errorMsg:  "must be greater than 0",
		},
		{
			name: "invalid shards",
			cfg: Config{
				Capacity:           10,
				NumShards:          0,
				TTL:                5 * time.Minute,
				EvictionPercentage: 10,
			},
			wantError: true,
			errorMsg:  "must be greater than 0",
		},
		{
			name: "invalid ttl",
			cfg: Config{
				Capacity:           10,
				NumShards:          1,
				TTL:                0,
				EvictionPercentage: 10,
			},
			wantError: true,
			errorMsg:  "must be greater than 0",
		},
		{
			name: "eviction percentage out of range",
			cfg: Config{
				Capacity:           10,
				NumShards:          1,
				TTL:                time.Minute,
				EvictionPercentage: 101,
			},
			wantError: true,
			errorMsg:  "must be between 1 and 100",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()

			if !tt.wantError {
				if err != nil {
					t.Errorf("expected no error, got %v", err)
				}
				return
			}

			if err == nil {
				t.Fatal("expected error, got nil")
			}

			var cfgErr *cache.ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected *cache.ConfigError, got %T", err)
			}
			if cfgErr.Message != tt.errorMsg {
				t.Errorf("expected message %q, got %q", tt.errorMsg, cfgErr.Message)
			}
		})
	}
}

func newTestSturdyc(t *testing.T) *SturdycBackend {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Capacity = 100
	cfg.NumShards = 4
	backend, err := NewSturdycBackend(cfg)
	if err != nil {
		t.Fatalf("NewSturdycBackend() error = %v", err)
	}
	return backend
}

func TestSturdycBackend_GetSetDelete(t *testing.T) {
	backend := newTestSturdyc(t)
	ctx := context.Background()

	if _, ok, err := backend.Get(ctx, "device:1"); ok || err != nil {
		t.Fatalf("Get() on empty cache = ok %v, err %v", ok, err)
	}

	if err := backend.Set(ctx, "device:1", []byte("payload"), time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	got, ok, err := backend.Get(ctx, "device:1")
	if err != nil || !ok {
		t.Fatalf("Get() = ok %v, err %v", ok, err)
	}
	if string(got) != "payload" {
		t.Errorf("Get() = %q, want %q", got, "payload")
	}

	if err := backend.Delete(ctx, "device:1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, ok, _ := backend.Get(ctx, "device:1"); ok {
		t.Errorf("Get() after Delete ok = true")
	}
}

func TestSturdycBackend_EntryExpiry(t *testing.T) {
	backend := newTestSturdyc(t)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	backend.now = func() time.Time { return now }
	ctx := context.Background()

	if err := backend.Set(ctx, "k", []byte("v"), time.Second); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if _, ok, _ := backend.Get(ctx, "k"); !ok {
		t.Fatalf("Get() before expiry ok = false")
	}

	now = now.Add(2 * time.Second)
	if _, ok, _ := backend.Get(ctx, "k"); ok {
		t.Errorf("Get() after expiry ok = true")
	}
}

func TestSturdycBackend_DeleteByPattern(t *testing.T) {
	backend := newTestSturdyc(t)
	ctx := context.Background()

	keys := []string{
		"device:1",
		"device:2",
		"devices:1:10:::::::registeredAt:desc",
		"devices:2:10:light::::::name:asc",
	}
	for _, k := range keys {
		if err := backend.Set(ctx, k, []byte("x"), time.Minute); err != nil {
			t.Fatalf("Set(%s) error = %v", k, err)
		}
	}

	removed, err := backend.DeleteByPattern(ctx, "devices:*")
	if err != nil {
		t.Fatalf("DeleteByPattern() error = %v", err)
	}
	if removed != 2 {
		t.Errorf("DeleteByPattern() removed = %d, want 2", removed)
	}

	remaining := backend.client.ScanKeys()
	sort.Strings(remaining)
	want := []string{"device:1", "device:2"}
	if len(remaining) != len(want) {
		t.Fatalf("remaining keys = %v, want %v", remaining, want)
	}
	for i := range want {
		if remaining[i] != want[i] {
			t.Errorf("remaining[%d] = %s, want %s", i, remaining[i], want[i])
		}
	}
}

func TestSturdycBackend_BadPattern(t *testing.T) {
	backend := newTestSturdyc(t)
	if _, err := backend.DeleteByPattern(context.Background(), "devices:["); err == nil {
		t.Errorf("DeleteByPattern() with malformed pattern error = nil")
	}
}

func TestSturdycBackend_CancelledContext(t *testing.T) {
	backend := newTestSturdyc(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := backend.Set(ctx, "k", []byte("v"), 0); !errors.Is(err, context.Canceled) {
		t.Errorf("Set() error = %v, want context.Canceled", err)
	}
	if _, _, err := backend.Get(ctx, "k"); !errors.Is(err, context.Canceled) {
		t.Errorf("Get() error = %v, want context.Canceled", err)
	}
}
