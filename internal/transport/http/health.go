package http

import (
	"encoding/json"
	stdhttp "net/http"
)

// HealthHandler reports basic liveness for the service.
func HealthHandler(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(stdhttp.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// RelayStatus is the subset of relay state the status surface exposes.
type RelayStatus interface {
	Enabled() bool
	Running() bool
}

// SessionStats is the subset of registry state the status surface exposes.
type SessionStats interface {
	ActiveSessionCount() int
	ActiveUserCount() int
}

// HandleStatus returns an HTTP handler exposing relay and session
// observability.
func HandleStatus(relay RelayStatus, sessions SessionStats) stdhttp.HandlerFunc {
	return func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		if r.Method != stdhttp.MethodGet {
			writeError(w, stdhttp.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		resp := statusResponse{
			RelayEnabled:   relay.Enabled(),
			RelayRunning:   relay.Running(),
			ActiveSessions: sessions.ActiveSessionCount(),
			ActiveUsers:    sessions.ActiveUserCount(),
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}

type statusResponse struct {
	RelayEnabled   bool `json:"relay_enabled"`
	RelayRunning   bool `json:"relay_running"`
	ActiveSessions int  `json:"active_sessions"`
	ActiveUsers    int  `json:"active_users"`
}
