package handlers

import (
	"encoding/json"
	"net/http"
)

// Health is the liveness probe. It reports nothing about sessions or the
// database on purpose: a wedged recorder must not take the process out of
// the load balancer. /api/status carries the detailed picture.
func Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status":  "ok",
		"service": "nbody-sim",
	})
}
