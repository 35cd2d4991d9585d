package models

import "strings"

// KeyPrefixIP namespaces per-client-IP buckets.
const KeyPrefixIP = "rl:ip"

// SanitizeKeySegment escapes delimiter characters in rate limit key segments
// so an identifier containing ':' cannot address a neighbouring bucket.
func SanitizeKeySegment(s string) string {
	return strings.ReplaceAll(s, ":", "_")
}

// IPKey builds the bucket key for a client IP.
func IPKey(ip string) string {
	return KeyPrefixIP + ":" + SanitizeKeySegment(ip)
}
