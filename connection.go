package transportboard

import (
	"time"

	"github.com/miaucl/swiss-transport-board/opendata"
)

// MaxConnections is the fixed number of connection slots the board exposes.
const MaxConnections = 3

// UpdateInterval is the fixed poll cadence against the upstream API.
const UpdateInterval = 90 * time.Second

// Connection is one fetched connection, immutable once published.
// Departure and RemainingTime are nil when the upstream departure string
// could not be parsed.
type Connection struct {
	Departure       *time.Time
	DurationSeconds int
	Platform        string
	RemainingTime   *time.Duration
	Start           string
	Destination     string
	TrainNumber     string
	Transfers       int
	Delay           int // minutes
}

// ResultSet is the ordered outcome of one poll, at most MaxConnections long
// and with no missing slots. It is replaced wholesale on every successful
// refresh and must be treated as read-only by consumers.
type ResultSet []Connection

// buildResultSet maps the client's reshaped connections into a ResultSet,
// truncated to MaxConnections. Remaining time is the delta between the
// parsed departure and now; every field of a record is computed together.
func buildResultSet(conns []opendata.Connection, start, destination string, now time.Time) ResultSet {
	n := len(conns)
	if n > MaxConnections {
		n = MaxConnections
	}

	rs := make(ResultSet, 0, n)
	for i := 0; i < n; i++ {
		raw := conns[i]
		conn := Connection{
			DurationSeconds: raw.DurationSeconds,
			Platform:        raw.Platform,
			Start:           start,
			Destination:     destination,
			TrainNumber:     raw.Number,
			Transfers:       raw.Transfers,
			Delay:           raw.Delay,
		}
		if dep, ok := parseDepartureTime(raw.Departure); ok {
			remaining := dep.Sub(now)
			conn.Departure = &dep
			conn.RemainingTime = &remaining
		}
		rs = append(rs, conn)
	}
	return rs
}
