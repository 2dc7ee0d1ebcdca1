package handler

import "net/http"

// Ping is a liveness probe.
//
// HTTP: GET /api/ping
func Ping(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
