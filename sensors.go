package transportboard

import (
	"fmt"
	"time"
)

// DeviceClass categorizes a sensor value for display purposes.
type DeviceClass string

const (
	DeviceClassTimestamp DeviceClass = "timestamp"
	DeviceClassDuration  DeviceClass = "duration"
)

// Units of measurement used by the sensor table.
const (
	UnitSeconds = "s"
	UnitMinutes = "min"
)

// SensorDescriptor binds one named, read-only view to a connection slot.
// Value is pure: it never mutates the record it reads.
type SensorDescriptor struct {
	Key         string
	Index       int
	DeviceClass DeviceClass
	Unit        string
	Icon        string
	Value       func(Connection) any
}

// Exists reports whether the descriptor's backing slot is present in the
// ResultSet. A sensor whose slot is absent is unavailable.
func (d SensorDescriptor) Exists(rs ResultSet) bool {
	return d.Index >= 0 && d.Index < len(rs)
}

// Read returns the sensor value and availability for the given ResultSet.
func (d SensorDescriptor) Read(rs ResultSet) (any, bool) {
	if !d.Exists(rs) {
		return nil, false
	}
	return d.Value(rs[d.Index]), true
}

// sensors is the fixed sensor table, built once at startup.
var sensors = buildSensors()

// Sensors returns the static table of sensor descriptors. Callers get a
// copy; the table itself is immutable.
func Sensors() []SensorDescriptor {
	return append([]SensorDescriptor(nil), sensors...)
}

func buildSensors() []SensorDescriptor {
	list := make([]SensorDescriptor, 0, MaxConnections+4)

	for i := 0; i < MaxConnections; i++ {
		list = append(list, SensorDescriptor{
			Key:         fmt.Sprintf("departure%d", i),
			Index:       i,
			DeviceClass: DeviceClassTimestamp,
			Icon:        "mdi:bus-clock",
			Value: func(conn Connection) any {
				if conn.Departure == nil {
					return nil
				}
				return *conn.Departure
			},
		})
	}

	list = append(list,
		SensorDescriptor{
			Key:         "duration",
			DeviceClass: DeviceClassDuration,
			Unit:        UnitSeconds,
			Icon:        "mdi:timeline-clock",
			Value: func(conn Connection) any {
				return conn.DurationSeconds
			},
		},
		SensorDescriptor{
			Key:  "transfers",
			Icon: "mdi:transit-transfer",
			Value: func(conn Connection) any {
				return conn.Transfers
			},
		},
		SensorDescriptor{
			Key:  "platform",
			Icon: "mdi:bus-stop-uncovered",
			Value: func(conn Connection) any {
				return conn.Platform
			},
		},
		SensorDescriptor{
			Key:         "delay",
			DeviceClass: DeviceClassDuration,
			Unit:        UnitMinutes,
			Icon:        "mdi:clock-plus",
			Value: func(conn Connection) any {
				return conn.Delay
			},
		},
	)

	return list
}

// renderValue flattens a sensor value for JSON payloads: timestamps become
// ISO8601 strings, everything else passes through.
func renderValue(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case time.Time:
		return iso8601FromTime(t)
	default:
		return v
	}
}
