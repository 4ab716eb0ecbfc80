package task

import (
	"fmt"
	"strings"
	"time"
)

// ParseDate reads a date typed by a user. A bare "2006-01-02" is midnight
// UTC; full RFC 3339 timestamps are converted to UTC.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD or RFC 3339)", s)
	}
	return t.UTC(), nil
}
