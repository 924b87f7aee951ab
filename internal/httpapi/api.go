// Package httpapi exposes the async endpoints the rendered sections call
// back into: page navigation and cache reset.
package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/goliatone/go-tiles/internal/engine"
	"github.com/goliatone/go-tiles/internal/logging"
	"github.com/goliatone/go-tiles/internal/query"
	"github.com/goliatone/go-tiles/pkg/interfaces"
)

// API serves the navigation and cache endpoints for one engine.
type API struct {
	basePath string
	engine   *engine.Engine
	logger   interfaces.Logger
}

type Option func(*API)

// WithBasePath overrides the base path (defaults to "/tiles").
func WithBasePath(path string) Option {
	return func(api *API) {
		if trimmed := strings.TrimSpace(path); trimmed != "" {
			api.basePath = trimmed
		}
	}
}

func WithLogger(logger interfaces.Logger) Option {
	return func(api *API) {
		if logger != nil {
			api.logger = logger
		}
	}
}

func New(eng *engine.Engine, opts ...Option) *API {
	api := &API{
		basePath: "/tiles",
		engine:   eng,
		logger:   logging.NoOp(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(api)
		}
	}
	return api
}

// Register mounts the endpoints on the mux.
func (api *API) Register(mux *http.ServeMux) {
	if mux == nil {
		return
	}
	mux.HandleFunc("POST "+joinPath(api.basePath, "navigate"), api.handleNavigate)
	mux.HandleFunc("POST "+joinPath(api.basePath, "cache/reset"), api.handleCacheReset)
}

type navigatePayload struct {
	Args       map[string]string `json:"args"`
	InstanceID string            `json:"instance_id"`
	Page       int               `json:"page"`
	CurrentID  int64             `json:"current_id,omitempty"`
	BaseURL    string            `json:"base_url,omitempty"`
}

func (p navigatePayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Args, validation.Required),
		validation.Field(&p.InstanceID, validation.Required),
		validation.Field(&p.Page, validation.Min(1)),
	)
}

func (api *API) handleNavigate(w http.ResponseWriter, r *http.Request) {
	if api == nil || api.engine == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable"})
		return
	}
	var payload navigatePayload
	if err := decodeJSON(r, &payload); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Message: "invalid JSON payload"})
		return
	}
	if err := payload.Validate(); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "validation_failed", Message: err.Error()})
		return
	}

	fragment, err := api.engine.Navigate(r.Context(), engine.NavigateRequest{
		Args:       payload.Args,
		InstanceID: payload.InstanceID,
		Page:       payload.Page,
		CurrentID:  payload.CurrentID,
		BaseURL:    payload.BaseURL,
	})
	if err != nil {
		if errors.Is(err, query.ErrPageOutOfRange) {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "page_out_of_range", Message: err.Error()})
			return
		}
		api.logger.Error("navigate failed", "instance", payload.InstanceID, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "render_failed"})
		return
	}
	writeHTML(w, http.StatusOK, fragment)
}

func (api *API) handleCacheReset(w http.ResponseWriter, r *http.Request) {
	if api == nil || api.engine == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "service_unavailable"})
		return
	}
	ack, err := api.engine.ResetCache(r.Context())
	if err != nil {
		api.logger.Error("cache reset failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "reset_failed"})
		return
	}
	writeHTML(w, http.StatusOK, ack)
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func joinPath(base, suffix string) string {
	trimmedBase := strings.TrimSpace(base)
	trimmedSuffix := strings.TrimSpace(suffix)
	if trimmedBase == "" {
		if trimmedSuffix == "" {
			return "/"
		}
		return "/" + strings.Trim(trimmedSuffix, "/")
	}
	baseClean := "/" + strings.Trim(trimmedBase, "/")
	if trimmedSuffix == "" {
		return baseClean
	}
	return baseClean + "/" + strings.Trim(trimmedSuffix, "/")
}

func decodeJSON(r *http.Request, target any) error {
	if r == nil || r.Body == nil {
		return io.EOF
	}
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	decoder.UseNumber()
	return decoder.Decode(target)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeHTML(w http.ResponseWriter, status int, body string) {
	if w == nil {
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}
