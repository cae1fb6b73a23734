package transportboard

import (
	"time"
)

// The API emits offsets without a colon ("+0100"); some deployments front it
// with proxies that re-serialize to RFC3339.
var departureLayouts = []string{
	"2006-01-02T15:04:05-0700",
	time.RFC3339,
}

func parseDepartureTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range departureLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

func iso8601FromTime(t time.Time) string {
	return t.Format(time.RFC3339)
}
