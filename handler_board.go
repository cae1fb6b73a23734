package transportboard

import (
	"encoding/json"
	"net/http"
)

func handleSensorsJSON(c *Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(BuildSensorPayloads(c.Data()))
	}
}

func handleConnectionsJSON(c *Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(BuildConnectionPayloads(c.Data()))
	}
}
