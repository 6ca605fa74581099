// Package api provides HTTP API handlers for the Mudra gesture control service.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/ayusman/mudra/internal/config"
)

// Controller is the running engine as seen by the API. Implementations apply
// changes on the engine's own goroutine.
type Controller interface {
	// ReloadBindings re-reads the action map from the store.
	ReloadBindings() error
	// Tunables returns the tunables in effect.
	Tunables() config.Tunables
	// ApplyTunables validates and applies new tunables.
	ApplyTunables(t config.Tunables) error
	Enabled() bool
	SetEnabled(enabled bool)
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
