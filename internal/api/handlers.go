package api

import (
	_ "embed"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/flatrest/internal/resource"
	"github.com/starford/flatrest/internal/schema"
)

//go:embed static/info.html
var infoPage []byte

// Handler serves the service-level routes.
type Handler struct {
	catalog *resource.Catalog
	schemas schema.Registry
	events  bool
}

// NewHandler creates a new Handler.
func NewHandler(catalog *resource.Catalog, schemas schema.Registry, events bool) *Handler {
	return &Handler{catalog: catalog, schemas: schemas, events: events}
}

// Root handles GET /.
//
//	@Summary		List bound resources and their endpoints
//	@Tags			service
//	@Produce		json
//	@Success		200	{object}	RootResponse
//	@Router			/ [get]
func (h *Handler) Root(w http.ResponseWriter, _ *http.Request) {
	resp := RootResponse{
		Service:   "flatrest",
		Resources: make(map[string]ResourceRoutes),
		Schemas:   "/schemas",
		Info:      "/info",
	}
	if h.events {
		resp.Events = "/events"
	}
	for _, name := range h.catalog.Names() {
		resp.Resources[name] = ResourceRoutes{
			Collection: RouteMethods{Path: "/" + name, Methods: []string{http.MethodGet, http.MethodPost}},
			Item:       RouteMethods{Path: "/" + name + "/{id}", Methods: []string{http.MethodGet, http.MethodPut, http.MethodDelete}},
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// Info handles GET /info.
func (h *Handler) Info(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(infoPage)
}

// resourceHandler adapts one resource.Service to HTTP.
type resourceHandler struct {
	svc *resource.Service
}

// baseURL is the absolute URL of the request without its query.
func baseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host + r.URL.Path
}

// List handles GET /{resource}.
//
//	@Summary		List records with offset pagination
//	@Tags			records
//	@Produce		json
//	@Param			page		query		int	false	"Page number (default 1)"
//	@Param			per_page	query		int	false	"Page size (default 10, max 100)"
//	@Success		200			{object}	models.Envelope
//	@Router			/{resource} [get]
func (h *resourceHandler) List(w http.ResponseWriter, r *http.Request) {
	env, err := h.svc.List(r.Context(), r.URL.Query(), baseURL(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, env)
}

// Get handles GET /{resource}/{id}.
//
//	@Summary		Get a single record by id
//	@Tags			records
//	@Produce		json
//	@Param			id	path		string	true	"Record id"
//	@Success		200	{object}	models.Envelope
//	@Failure		404	{object}	errResponse
//	@Router			/{resource}/{id} [get]
func (h *resourceHandler) Get(w http.ResponseWriter, r *http.Request) {
	env, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, env)
}

// Create handles POST /{resource}.
//
//	@Summary		Create a record; the id is assigned by the server
//	@Tags			records
//	@Accept			json
//	@Produce		json
//	@Success		201	{object}	models.Envelope
//	@Failure		400	{object}	errResponse
//	@Failure		500	{object}	errResponse
//	@Router			/{resource} [post]
func (h *resourceHandler) Create(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read body"))
		return
	}
	env, err := h.svc.Create(r.Context(), body)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, env)
}

// Update handles PUT /{resource}/{id}.
//
//	@Summary		Replace a record, keeping its id
//	@Tags			records
//	@Accept			json
//	@Produce		json
//	@Param			id	path		string	true	"Record id"
//	@Success		200	{object}	models.Envelope
//	@Failure		400	{object}	errResponse
//	@Failure		404	{object}	errResponse
//	@Router			/{resource}/{id} [put]
func (h *resourceHandler) Update(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read body"))
		return
	}
	env, err := h.svc.Update(r.Context(), chi.URLParam(r, "id"), body)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, env)
}

// Delete handles DELETE /{resource}/{id}.
//
//	@Summary		Delete a record and return it
//	@Tags			records
//	@Produce		json
//	@Param			id	path		string	true	"Record id"
//	@Success		200	{object}	models.Envelope
//	@Failure		404	{object}	errResponse
//	@Router			/{resource}/{id} [delete]
func (h *resourceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	env, err := h.svc.Delete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, env)
}
