package opendata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DefaultBaseURL is the public transport.opendata.ch endpoint.
const DefaultBaseURL = "https://transport.opendata.ch/v1"

// Public APIs often block default Go user agents
const userAgent = "swiss-transport-board/1.0 (+https://github.com/miaucl/swiss-transport-board)"

const defaultTimeout = 30 * time.Second

// Client fetches connections for one start/destination pair.
type Client struct {
	httpClient *http.Client
	baseURL    string

	start       string
	destination string
	limit       int

	// Populated by the last successful Fetch.
	Connections []Connection
	FromName    string
	ToName      string
}

// NewClient creates a client for the given journey. limit caps how many
// connections a fetch requests from the API.
func NewClient(start, destination string, limit int) *Client {
	return &Client{
		httpClient:  &http.Client{Timeout: defaultTimeout},
		baseURL:     DefaultBaseURL,
		start:       start,
		destination: destination,
		limit:       limit,
	}
}

// SetBaseURL overrides the API endpoint (tests, proxies).
func (c *Client) SetBaseURL(u string) {
	c.baseURL = strings.TrimSuffix(u, "/")
}

// SetTimeout overrides the per-request HTTP timeout.
func (c *Client) SetTimeout(d time.Duration) {
	if d > 0 {
		c.httpClient.Timeout = d
	}
}

// Latest returns the reshaped connections plus the resolved origin and
// destination names from the last successful Fetch.
func (c *Client) Latest() ([]Connection, string, string) {
	return c.Connections, c.FromName, c.ToName
}

// Fetch retrieves the next connections and replaces the client's reshaped
// result. On error the previous result is left untouched.
func (c *Client) Fetch(ctx context.Context) error {
	params := url.Values{}
	params.Set("from", c.start)
	params.Set("to", c.destination)
	params.Set("limit", strconv.Itoa(c.limit))

	reqURL := c.baseURL + "/connections?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("opendata: build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("opendata: fetch connections: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("opendata: HTTP %d from %s", resp.StatusCode, reqURL)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("opendata: read response: %w", err)
	}

	var cr connectionsResponse
	if err := json.Unmarshal(body, &cr); err != nil {
		return fmt.Errorf("opendata: decode connections: %w", err)
	}

	conns := make([]Connection, 0, len(cr.Connections))
	for _, raw := range cr.Connections {
		conns = append(conns, reshape(raw))
	}

	c.Connections = conns
	c.FromName = cr.From.Name
	c.ToName = cr.To.Name
	return nil
}

func reshape(raw RawConnection) Connection {
	conn := Connection{
		Departure:       raw.From.Departure,
		DurationSeconds: parseDuration(raw.Duration),
		Platform:        raw.From.Platform,
		Transfers:       raw.Transfers,
	}
	if len(raw.Products) > 0 {
		conn.Number = raw.Products[0]
	}
	if raw.From.Delay != nil {
		conn.Delay = *raw.From.Delay
	}
	return conn
}

// parseDuration converts the API's "DDdHH:MM:SS" duration string to seconds.
// Returns 0 for anything it cannot make sense of.
func parseDuration(s string) int {
	days := 0
	rest := s
	if i := strings.IndexByte(s, 'd'); i >= 0 {
		d, err := strconv.Atoi(s[:i])
		if err != nil {
			return 0
		}
		days = d
		rest = s[i+1:]
	}

	parts := strings.Split(rest, ":")
	if len(parts) != 3 {
		return 0
	}
	h, errH := strconv.Atoi(parts[0])
	m, errM := strconv.Atoi(parts[1])
	sec, errS := strconv.Atoi(parts[2])
	if errH != nil || errM != nil || errS != nil {
		return 0
	}

	return ((days*24+h)*60+m)*60 + sec
}
