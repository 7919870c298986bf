package query

import (
	"strconv"
	"strings"
)

const (
	MaxSearchResults        = 20
	DefaultRouteSearchLimit = 10
	DefaultStopSearchLimit  = 15
)

// NormalizeShortName strips leading zeros from all-digit names, so "049" becomes "49"
func NormalizeShortName(name string) string {
	if name == "" {
		return name
	}

	for _, r := range name {
		if r < '0' || r > '9' {
			return name
		}
	}

	trimmed := strings.TrimLeft(name, "0")
	if trimmed == "" {
		return "0"
	}

	return trimmed
}

// ScoreRoute rates how well a route matches an upper-cased query. Zero means no match.
func ScoreRoute(shortName string, longName string, query string) float64 {
	shortName = strings.ToUpper(shortName)
	longName = strings.ToUpper(longName)

	normalizedName := NormalizeShortName(shortName)
	normalizedQuery := NormalizeShortName(query)

	var score float64

	switch {
	case normalizedName == normalizedQuery || shortName == query:
		score = 100
	case strings.HasPrefix(shortName, query) || strings.HasPrefix(normalizedName, normalizedQuery):
		score = 80
	case strings.Contains(shortName, query) || strings.Contains(normalizedName, normalizedQuery):
		score = 60
	case strings.Contains(longName, query):
		score = 40
	}

	if score > 0 && len(shortName) <= 3 {
		score += 10
	}

	return score
}

// ScoreStop rates how well a stop name matches a lower-cased query. Zero means no match.
func ScoreStop(name string, query string) float64 {
	name = strings.ToLower(name)

	index := strings.Index(name, query)
	if index < 0 || query == "" {
		return 0
	}

	score := 50.0

	switch {
	case index == 0:
		score += 50
	case index <= 10:
		score += 30
	default:
		score += 10
	}

	if index == 0 || name[index-1] == ' ' {
		score += 20
	}

	score += 20 * float64(len(query)) / float64(len(name))

	return score
}

// searchLimit applies the default for a missing or non-positive limit and caps the result
func searchLimit(limit int, defaultLimit int) int {
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > MaxSearchResults {
		limit = MaxSearchResults
	}

	return limit
}

// ParseLimit reads an optional limit query parameter
func ParseLimit(value string) (int, error) {
	if value == "" {
		return 0, nil
	}

	return strconv.Atoi(value)
}
