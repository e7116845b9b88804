package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/flatrest/internal/resource"
	"github.com/starford/flatrest/internal/schema"
)

// ListSchemas handles GET /schemas.
func (h *Handler) ListSchemas(w http.ResponseWriter, _ *http.Request) {
	all, err := h.schemas.List()
	if err != nil {
		slog.Error("list schemas failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, all)
}

// GetSchema handles GET /schemas/{name}.
func (h *Handler) GetSchema(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if resource.ValidateName(name) != nil {
		writeJSON(w, http.StatusNotFound, errorBody("Schema not found"))
		return
	}
	doc, ok, err := h.schemas.Lookup(name)
	if err != nil {
		slog.Error("get schema failed", slog.String("name", name), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody("Schema not found"))
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// PutSchema handles PUT /schemas/{name}. The body must be a valid JSON Schema.
func (h *Handler) PutSchema(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := resource.ValidateName(name); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("Invalid schema name: "+err.Error()))
		return
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read body"))
		return
	}
	if err := schema.CheckDocument(body); err != nil {
		writeError(w, err)
		return
	}
	if err := h.schemas.Save(name, json.RawMessage(body)); err != nil {
		slog.Error("save schema failed", slog.String("name", name), slog.String("error", err.Error()))
		writeError(w, err)
		return
	}
	slog.Info("schema saved", slog.String("name", name))
	writeJSON(w, http.StatusOK, json.RawMessage(body))
}
