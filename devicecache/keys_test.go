package devicecache

import (
	"path"
	"testing"

	"github.com/goliatone/go-device-cache/internal/device"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestKeys_Device(t *testing.T) {
	keys := NewKeys(nil)
	id := uuid.MustParse("0d7c6a5e-1f2b-4c3d-9e8f-7a6b5c4d3e2f")

	assert.Equal(t, "device:0d7c6a5e-1f2b-4c3d-9e8f-7a6b5c4d3e2f", keys.Device(id))
}

func TestKeys_ListFieldOrder(t *testing.T) {
	keys := NewKeys(nil)
	online := true
	threshold := 25

	got := keys.List(device.Filter{
		NameContains:      "lamp",
		Location:          "Kitchen",
		Type:              "light",
		IsOnline:          &online,
		MinThresholdWatts: &threshold,
		SortBy:            device.SortByName,
		SortOrder:         device.SortAscending,
	}, device.NewPagination(2, 20))

	assert.Equal(t, "devices:2:20:light:Kitchen:true:lamp:25:name:asc", got)
}

func TestKeys_ListDefaults(t *testing.T) {
	keys := NewKeys(nil)

	got := keys.List(device.Filter{}, device.Pagination{})
	assert.Equal(t, "devices:1:10::::::registeredAt:desc", got)
}

func TestKeys_ListDistinguishesEveryField(t *testing.T) {
	keys := NewKeys(nil)
	online, offline := true, false
	low, high := 1, 2
	base := device.Filter{}
	page := device.NewPagination(1, 10)

	variants := []struct {
		name   string
		filter device.Filter
		page   device.Pagination
	}{
		{"base", base, page},
		{"page", base, device.NewPagination(2, 10)},
		{"size", base, device.NewPagination(1, 20)},
		{"type", device.Filter{Type: "light"}, page},
		{"location", device.Filter{Location: "light"}, page},
		{"name", device.Filter{NameContains: "light"}, page},
		{"online", device.Filter{IsOnline: &online}, page},
		{"offline", device.Filter{IsOnline: &offline}, page},
		{"threshold low", device.Filter{MinThresholdWatts: &low}, page},
		{"threshold high", device.Filter{MinThresholdWatts: &high}, page},
		{"sort by", device.Filter{SortBy: device.SortByType}, page},
		{"sort order", device.Filter{SortOrder: device.SortAscending}, page},
		{"separator injection", device.Filter{Type: "a:b"}, page},
		{"separator injection split", device.Filter{Type: "a", Location: "b"}, page},
	}

	seen := map[string]string{}
	for _, v := range variants {
		key := keys.List(v.filter, v.page)
		if prev, ok := seen[key]; ok {
			t.Errorf("%s and %s share key %q", prev, v.name, key)
		}
		seen[key] = v.name
	}
}

func TestKeys_ListPatternCoversListsOnly(t *testing.T) {
	keys := NewKeys(nil)
	wildcard := "*?[x]"

	list := keys.List(device.Filter{NameContains: wildcard}, device.NewPagination(1, 10))
	point := keys.Device(uuid.New())

	matched, err := path.Match(ListPattern, list)
	assert.NoError(t, err)
	assert.True(t, matched)

	matched, err = path.Match(ListPattern, point)
	assert.NoError(t, err)
	assert.False(t, matched)
}
