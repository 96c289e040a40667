package storage

import "time"

const timestampLayout = "2006-01-02 15:04:05"

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// parseTimestamp accepts SQLite CURRENT_TIMESTAMP text and RFC3339.
func parseTimestamp(s string) time.Time {
	if t, err := time.Parse(timestampLayout, s); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	return time.Time{}
}
