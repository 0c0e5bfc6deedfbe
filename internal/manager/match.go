package manager

import (
	"sort"
	"strings"
)

// DefaultNearbyLimit is the number of managers Nearby returns when no limit is given.
const DefaultNearbyLimit = 3

// Nearby returns up to limit managers that serve location, best rated first.
// Managers with equal ratings keep their catalog order. A blank location
// matches nothing. A limit <= 0 means DefaultNearbyLimit.
func Nearby(managers []*Manager, location string, limit int) []*Manager {
	if limit <= 0 {
		limit = DefaultNearbyLimit
	}

	query := strings.ToLower(strings.TrimSpace(location))
	if query == "" {
		return []*Manager{}
	}

	matched := make([]*Manager, 0, len(managers))
	for _, m := range managers {
		if matches(m, query) {
			matched = append(matched, m)
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Rating > matched[j].Rating
	})

	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched
}

// Featured returns the best-rated manager serving location, or nil.
func Featured(managers []*Manager, location string) *Manager {
	nearby := Nearby(managers, location, 1)
	if len(nearby) == 0 {
		return nil
	}
	return nearby[0]
}

// matches reports whether m serves the lower-cased query.
func matches(m *Manager, query string) bool {
	loc := strings.ToLower(m.Location)
	if strings.Contains(loc, query) {
		return true
	}
	if city := cityPrefix(loc); city != "" && strings.Contains(query, city) {
		return true
	}

	queryCity := cityPrefix(query)
	for _, area := range m.ServiceAreas {
		area = strings.ToLower(strings.TrimSpace(area))
		if area == "" {
			continue
		}
		if queryCity != "" && strings.Contains(area, queryCity) {
			return true
		}
		if strings.Contains(query, area) {
			return true
		}
	}
	return false
}

// cityPrefix returns the text before the first comma, trimmed.
func cityPrefix(s string) string {
	city, _, _ := strings.Cut(s, ",")
	return strings.TrimSpace(city)
}
