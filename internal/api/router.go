package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/flatrest/internal/resource"
	"github.com/starford/flatrest/internal/schema"
)

// NewRouter creates a chi router for the service routes and every resource in catalog.
// events, if non-nil, is mounted at GET /events.
func NewRouter(catalog *resource.Catalog, schemas schema.Registry, events http.Handler) chi.Router {
	h := NewHandler(catalog, schemas, events != nil)

	r := chi.NewRouter()
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody("method not allowed"))
	})

	r.Get("/", h.Root)
	r.Get("/info", h.Info)

	// Schema registry.
	r.Get("/schemas", h.ListSchemas)
	r.Get("/schemas/{name}", h.GetSchema)
	r.With(RequireJSON).Put("/schemas/{name}", h.PutSchema)

	if events != nil {
		r.Get("/events", events.ServeHTTP)
	}

	// One route group per discovered resource.
	for _, name := range catalog.Names() {
		svc, _ := catalog.Get(name)
		rh := &resourceHandler{svc: svc}
		r.Get("/"+name, rh.List)
		r.With(RequireJSON).Post("/"+name, rh.Create)
		r.Get("/"+name+"/{id}", rh.Get)
		r.With(RequireJSON).Put("/"+name+"/{id}", rh.Update)
		r.Delete("/"+name+"/{id}", rh.Delete)
	}

	return r
}
