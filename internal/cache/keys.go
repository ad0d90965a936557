package cache

import (
	"fmt"
	"strings"
)

// originKeyPrecision is the number of coordinate decimals kept in cache keys.
// Three decimals is roughly a 110m bucket, so an origin that moves within
// 100-150m keeps hitting the same entries.
const originKeyPrecision = "%.3f,%.3f"

// OriginKey buckets a coordinate pair into a cache key fragment.
func OriginKey(lat, lng float64) string {
	return fmt.Sprintf(originKeyPrecision, lat, lng)
}

// SearchKey identifies one text search scoped by origin bucket and radius.
func SearchKey(originKey, query string, radiusMeters int) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(query)), "+")
	return fmt.Sprintf("search:%s:%d:%s", originKey, radiusMeters, normalized)
}

// DetailsKey identifies one venue's fetched details. Venue details are not
// origin-scoped; the provider ID is globally unique.
func DetailsKey(venueID string) string {
	return "details:" + venueID
}

// DurationKey identifies one walking duration between an origin bucket and a
// venue.
func DurationKey(originKey, venueID string) string {
	return "durn:" + originKey + ":" + venueID
}
