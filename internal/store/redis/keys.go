package redis

import (
	"strconv"
	"strings"
	"time"
)

const (
	// KeyPrefix namespaces every key written by this service.
	KeyPrefix = "demo:"
	// KeyPrefixItem is the prefix for cached items.
	KeyPrefixItem = KeyPrefix + "item:"
	// KeyPrefixStats is the prefix for rate-limit statistics hashes.
	KeyPrefixStats = KeyPrefix + "ratelimit:stats:"

	minuteLayout = "200601021504"
)

// ItemKey returns the cache key of item id.
func ItemKey(id int64) string {
	return KeyPrefixItem + strconv.FormatInt(id, 10)
}

// StatsTotalKey is the hash of cumulative decision counters.
func StatsTotalKey() string {
	return KeyPrefixStats + "total"
}

// StatsMinuteKey is the hash of decision counters for the UTC minute of t.
func StatsMinuteKey(t time.Time) string {
	return KeyPrefixStats + "minute:" + t.UTC().Format(minuteLayout)
}

// StatsRouteKey is the hash of decision counters per route pattern.
func StatsRouteKey() string {
	return KeyPrefixStats + "route"
}

// ItemIDFromKey is the inverse of ItemKey.
func ItemIDFromKey(key string) (int64, bool) {
	raw, ok := strings.CutPrefix(key, KeyPrefixItem)
	if !ok || raw == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
