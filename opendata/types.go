package opendata

// Station is a stop as returned by the API.
type Station struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Checkpoint is the from/to leg of a connection. Departure and Arrival are
// ISO8601 strings with a numeric zone offset; Delay is nil when the API has
// no realtime information for the leg.
type Checkpoint struct {
	Station   Station `json:"station"`
	Departure string  `json:"departure"`
	Arrival   string  `json:"arrival"`
	Platform  string  `json:"platform"`
	Delay     *int    `json:"delay"`
}

// RawConnection mirrors one entry of the connections array on the wire.
type RawConnection struct {
	From      Checkpoint `json:"from"`
	To        Checkpoint `json:"to"`
	Duration  string     `json:"duration"` // "DDdHH:MM:SS"
	Transfers int        `json:"transfers"`
	Products  []string   `json:"products"`
}

type connectionsResponse struct {
	Connections []RawConnection `json:"connections"`
	From        Station         `json:"from"`
	To          Station         `json:"to"`
}

// Connection is the reshaped record the client exposes after a fetch.
type Connection struct {
	// Departure is the raw ISO8601 departure string of the first leg.
	// Parsing is left to the consumer so an unparseable value can be
	// surfaced as a missing timestamp rather than a failed fetch.
	Departure       string
	DurationSeconds int
	Platform        string
	Transfers       int
	Number          string // first product, e.g. "IC 8"
	Delay           int    // minutes
}
