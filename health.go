package transportboard

import (
	"encoding/json"
	"net/http"
)

type healthResponse struct {
	Status           string `json:"status"`
	Healthy          bool   `json:"healthy"`
	LastRefreshEpoch int64  `json:"last_refresh_epoch"`
	LastError        string `json:"last_error,omitempty"`
}

func handleHealth(c *Coordinator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		resp := healthResponse{
			Status:  "ok",
			Healthy: c.Healthy(),
		}
		if last := c.LastUpdated(); !last.IsZero() {
			resp.LastRefreshEpoch = last.Unix()
		}
		if err := c.LastError(); err != nil {
			resp.Status = "degraded"
			resp.LastError = err.Error()
		}
		_ = json.NewEncoder(w).Encode(resp)
	}
}
