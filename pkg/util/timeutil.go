package util

import (
	"time"
	"unicode/utf8"
)

// NowUTC exposes time.Now for deterministic testing.
func NowUTC() time.Time {
	return time.Now().UTC()
}

// TruncateRunes keeps at most limit runes of s. A non-positive limit returns s unchanged.
func TruncateRunes(s string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit])
}

// RuneLen counts characters the way users perceive string length.
func RuneLen(s string) int {
	return utf8.RuneCountInString(s)
}
