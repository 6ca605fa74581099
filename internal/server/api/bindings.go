package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/ayusman/mudra/internal/action"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/store"
)

// BindingHandler handles HTTP requests for action-map bindings.
type BindingHandler struct {
	store      *store.Store
	controller Controller
}

// NewBindingHandler creates a new BindingHandler. controller may be nil, in
// which case changes are stored but not applied until the next start.
func NewBindingHandler(s *store.Store, controller Controller) *BindingHandler {
	return &BindingHandler{store: s, controller: controller}
}

// ServeHTTP implements the http.Handler interface and routes requests to appropriate methods.
func (h *BindingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Expected paths: /api/bindings or /api/bindings/{id}
	path := strings.TrimPrefix(r.URL.Path, "/api/bindings")
	path = strings.TrimPrefix(path, "/")

	if path == "" {
		switch r.Method {
		case http.MethodGet:
			h.list(w, r)
		case http.MethodPost:
			h.create(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	id := path
	switch r.Method {
	case http.MethodGet:
		h.get(w, r, id)
	case http.MethodPut:
		h.update(w, r, id)
	case http.MethodDelete:
		h.delete(w, r, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

type bindingRequest struct {
	Position   *int                 `json:"position"`
	Handedness *detector.Handedness `json:"handedness"`
	Gesture    *string              `json:"gesture"`
	Action     *action.Action       `json:"action"`
	Enabled    *bool                `json:"enabled"`
}

// apply copies the fields present in the request onto b.
func (req bindingRequest) apply(b *store.Binding) {
	if req.Position != nil {
		b.Position = *req.Position
	}
	if req.Handedness != nil {
		b.Handedness = *req.Handedness
	}
	if req.Gesture != nil {
		b.Gesture = *req.Gesture
	}
	if req.Action != nil {
		b.Action = *req.Action
	}
	if req.Enabled != nil {
		b.Enabled = *req.Enabled
	}
}

type bindingResponse struct {
	ID         string              `json:"id"`
	Position   int                 `json:"position"`
	Handedness detector.Handedness `json:"handedness"`
	Gesture    string              `json:"gesture"`
	Action     action.Action       `json:"action"`
	Summary    string              `json:"summary"`
	Enabled    bool                `json:"enabled"`
	CreatedAt  string              `json:"created_at"`
}

type listBindingsResponse struct {
	Bindings []bindingResponse `json:"bindings"`
}

func toBindingResponse(b *store.Binding) bindingResponse {
	return bindingResponse{
		ID:         b.ID,
		Position:   b.Position,
		Handedness: b.Handedness,
		Gesture:    b.Gesture,
		Action:     b.Action,
		Summary:    b.Action.String(),
		Enabled:    b.Enabled,
		CreatedAt:  b.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// list handles GET /api/bindings and returns the bindings in match order.
func (h *BindingHandler) list(w http.ResponseWriter, r *http.Request) {
	bindings, err := h.store.Bindings().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list bindings")
		return
	}

	response := listBindingsResponse{
		Bindings: make([]bindingResponse, 0, len(bindings)),
	}
	for _, b := range bindings {
		response.Bindings = append(response.Bindings, toBindingResponse(b))
	}

	writeJSON(w, http.StatusOK, response)
}

// get handles GET /api/bindings/{id}.
func (h *BindingHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	b, err := h.store.Bindings().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Binding not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get binding")
		return
	}

	writeJSON(w, http.StatusOK, toBindingResponse(b))
}

// create handles POST /api/bindings. Bindings are enabled unless the request says otherwise.
func (h *BindingHandler) create(w http.ResponseWriter, r *http.Request) {
	var req bindingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	b := &store.Binding{Enabled: true}
	req.apply(b)

	if err := h.store.Bindings().Create(b); err != nil {
		if errors.Is(err, action.ErrInvalidBinding) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to create binding")
		return
	}

	h.reload()
	writeJSON(w, http.StatusCreated, toBindingResponse(b))
}

// update handles PUT /api/bindings/{id}. Absent fields keep their stored values.
func (h *BindingHandler) update(w http.ResponseWriter, r *http.Request, id string) {
	b, err := h.store.Bindings().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Binding not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get binding")
		return
	}

	var req bindingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	req.apply(b)

	if err := h.store.Bindings().Update(b); err != nil {
		if errors.Is(err, action.ErrInvalidBinding) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to update binding")
		return
	}

	h.reload()
	writeJSON(w, http.StatusOK, toBindingResponse(b))
}

// delete handles DELETE /api/bindings/{id}.
func (h *BindingHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.store.Bindings().Delete(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Binding not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete binding")
		return
	}

	h.reload()
	w.WriteHeader(http.StatusNoContent)
}

func (h *BindingHandler) reload() {
	if h.controller == nil {
		return
	}
	if err := h.controller.ReloadBindings(); err != nil {
		log.Warn().Err(err).Msg("failed to reload action map")
	}
}
