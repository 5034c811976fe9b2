package device

import "strings"

// SortField names the column a device listing is ordered by.
type SortField string

const (
	SortByRegisteredAt SortField = "registeredAt"
	SortByName         SortField = "name"
	SortByLocation     SortField = "location"
	SortByType         SortField = "type"
	SortByIsOnline     SortField = "isOnline"
)

// SortOrder is the direction of a listing.
type SortOrder string

const (
	SortAscending  SortOrder = "asc"
	SortDescending SortOrder = "desc"
)

// ParseSortField resolves a user supplied sort field. Matching is case
// insensitive; unknown or empty values resolve to SortByRegisteredAt.
func ParseSortField(s string) SortField {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "name":
		return SortByName
	case "location":
		return SortByLocation
	case "type":
		return SortByType
	case "isonline", "is_online", "online":
		return SortByIsOnline
	default:
		return SortByRegisteredAt
	}
}

// ParseSortOrder resolves a user supplied direction, defaulting to descending.
func ParseSortOrder(s string) SortOrder {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "asc", "ascending":
		return SortAscending
	default:
		return SortDescending
	}
}

// Filter holds the optional predicates of a device listing. Empty strings
// and nil pointers mean the predicate is not applied. All predicates are
// AND-combined.
type Filter struct {
	NameContains      string
	Location          string
	Type              string
	IsOnline          *bool
	MinThresholdWatts *int
	SortBy            SortField
	SortOrder         SortOrder
}

// Normalize trims string predicates and resolves the sort fields so that
// equivalent filters compare equal.
func (f Filter) Normalize() Filter {
	f.NameContains = strings.TrimSpace(f.NameContains)
	f.Location = strings.TrimSpace(f.Location)
	f.Type = strings.TrimSpace(f.Type)
	f.SortBy = ParseSortField(string(f.SortBy))
	f.SortOrder = ParseSortOrder(string(f.SortOrder))
	f.IsOnline = cloneBool(f.IsOnline)
	f.MinThresholdWatts = cloneInt(f.MinThresholdWatts)
	return f
}

// Matches reports whether d satisfies every predicate of a normalized filter.
func (f Filter) Matches(d Device) bool {
	if f.NameContains != "" && !strings.Contains(d.Name, f.NameContains) {
		return false
	}
	if f.Location != "" && d.Location != f.Location {
		return false
	}
	if f.Type != "" && d.Type != f.Type {
		return false
	}
	if f.IsOnline != nil && d.IsOnline != *f.IsOnline {
		return false
	}
	if f.MinThresholdWatts != nil {
		if d.ThresholdWatts == nil || *d.ThresholdWatts < *f.MinThresholdWatts {
			return false
		}
	}
	return true
}

func cloneBool(v *bool) *bool {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
