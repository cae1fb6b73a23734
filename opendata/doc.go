// Package opendata is a small client for the Swiss public transport API at
// https://transport.opendata.ch.
//
// Only the connections endpoint is covered. A Client is bound to one
// start/destination pair; Fetch retrieves the next connections and keeps the
// reshaped result on the client, mirroring how the upstream API is meant to
// be polled. Transport and decoding errors are returned as a single wrapped
// error; callers decide what a failed poll means.
package opendata
