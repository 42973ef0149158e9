package sqlite

import (
	"fmt"
	"time"
)

// SQLite has no native datetime type; timestamps are stored as RFC3339 TEXT
// in UTC so lexicographic order equals chronological order.

func formatRFC3339(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.999999999Z")
}

func parseRFC3339(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("sqlite: parse time %q: %w", s, err)
	}
	return t, nil
}
