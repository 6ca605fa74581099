package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/store"
)

// SettingsHandler serves and updates the live engine tunables.
type SettingsHandler struct {
	store      *store.Store
	controller Controller
}

// NewSettingsHandler creates a new SettingsHandler.
func NewSettingsHandler(s *store.Store, controller Controller) *SettingsHandler {
	return &SettingsHandler{store: s, controller: controller}
}

type settingsPayload struct {
	config.Tunables
	Enabled *bool `json:"enabled,omitempty"`
}

// ServeHTTP implements the http.Handler interface.
func (h *SettingsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.controller == nil {
		writeError(w, http.StatusServiceUnavailable, "Engine not running")
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.get(w, r)
	case http.MethodPut:
		h.put(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *SettingsHandler) current() settingsPayload {
	enabled := h.controller.Enabled()
	return settingsPayload{Tunables: h.controller.Tunables(), Enabled: &enabled}
}

// get handles GET /api/settings.
func (h *SettingsHandler) get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.current())
}

// put handles PUT /api/settings. The body is merged over the current values,
// so a client may send only the fields it changes.
func (h *SettingsHandler) put(w http.ResponseWriter, r *http.Request) {
	req := settingsPayload{Tunables: h.controller.Tunables()}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if err := h.controller.ApplyTunables(req.Tunables); err != nil {
		if errors.Is(err, config.ErrInvalidConfig) || errors.Is(err, config.ErrInvalidRegion) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to apply settings")
		return
	}

	if req.Enabled != nil {
		h.controller.SetEnabled(*req.Enabled)
	}

	if h.store != nil {
		if err := h.store.Settings().SetJSON(store.SettingTunables, req.Tunables); err != nil {
			log.Warn().Err(err).Msg("failed to persist tunables")
		}
		if req.Enabled != nil {
			if err := h.store.Settings().Set(store.SettingEnabled, strconv.FormatBool(*req.Enabled)); err != nil {
				log.Warn().Err(err).Msg("failed to persist enabled flag")
			}
		}
	}

	writeJSON(w, http.StatusOK, h.current())
}
