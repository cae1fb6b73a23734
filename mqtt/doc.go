// Package mqtt bridges the board to a home-automation platform over MQTT.
//
// Each sensor descriptor is announced once via the Home Assistant discovery
// convention (<discovery_prefix>/sensor/<node>/<key>/config) and then kept
// current with retained state messages on every coordinator update. A shared
// availability topic marks all sensors offline while the coordinator is
// unhealthy and, via the connection will, when the daemon dies.
package mqtt
