// Package transportboard polls the Swiss public transport API and exposes
// the next connections of one journey as a fixed set of named sensors.
//
// The Coordinator owns a 90-second poll timer and publishes the latest
// successful ResultSet; failed polls keep the previous data and signal the
// failure to subscribers. Sensors are read-only projections of single fields
// out of fixed connection slots, described once at startup and served over
// HTTP and, optionally, MQTT.
package transportboard
