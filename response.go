package transportboard

// JSON payload shapes for the display surfaces (HTTP and MQTT). Sensors are
// rendered from the static descriptor table; connections mirror the
// ResultSet with durations flattened to whole seconds.

// SensorPayload is one named display value with its categorization.
type SensorPayload struct {
	Key         string `json:"key"`
	Available   bool   `json:"available"`
	Value       any    `json:"value"`
	Unit        string `json:"unit,omitempty"`
	DeviceClass string `json:"device_class,omitempty"`
	Icon        string `json:"icon,omitempty"`
}

// ConnectionPayload is the wire form of one Connection.
type ConnectionPayload struct {
	Departure        *string `json:"departure"`
	DurationSeconds  int     `json:"duration"`
	Platform         string  `json:"platform"`
	RemainingSeconds *int64  `json:"remaining_time"`
	Start            string  `json:"start"`
	Destination      string  `json:"destination"`
	TrainNumber      string  `json:"train_number"`
	Transfers        int     `json:"transfers"`
	Delay            int     `json:"delay"`
}

// BuildSensorPayloads renders every sensor view against the given ResultSet.
func BuildSensorPayloads(rs ResultSet) []SensorPayload {
	out := make([]SensorPayload, 0, len(sensors))
	for _, d := range sensors {
		value, ok := d.Read(rs)
		out = append(out, SensorPayload{
			Key:         d.Key,
			Available:   ok,
			Value:       renderValue(value),
			Unit:        d.Unit,
			DeviceClass: string(d.DeviceClass),
			Icon:        d.Icon,
		})
	}
	return out
}

// BuildConnectionPayloads renders the ResultSet itself.
func BuildConnectionPayloads(rs ResultSet) []ConnectionPayload {
	out := make([]ConnectionPayload, 0, len(rs))
	for _, conn := range rs {
		p := ConnectionPayload{
			DurationSeconds: conn.DurationSeconds,
			Platform:        conn.Platform,
			Start:           conn.Start,
			Destination:     conn.Destination,
			TrainNumber:     conn.TrainNumber,
			Transfers:       conn.Transfers,
			Delay:           conn.Delay,
		}
		if conn.Departure != nil {
			dep := iso8601FromTime(*conn.Departure)
			p.Departure = &dep
		}
		if conn.RemainingTime != nil {
			secs := int64(conn.RemainingTime.Seconds())
			p.RemainingSeconds = &secs
		}
		out = append(out, p)
	}
	return out
}
