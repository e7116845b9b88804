// Package api binds discovered resources and the schema registry to HTTP routes using chi.
package api

import (
	"log/slog"
	"mime"
	"net/http"
	"strings"
)

const maxBodyBytes = 10 << 20 // 10 MB

// RequireJSON rejects requests whose Content-Type is not JSON and caps the body size.
func RequireJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !isJSON(r.Header.Get("Content-Type")) {
			slog.Error("request Content-Type is not application/json",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path))
			writeJSON(w, http.StatusBadRequest, errorBody("Content-Type must be application/json"))
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		next.ServeHTTP(w, r)
	})
}

// isJSON accepts application/json and application/*+json, with parameters.
func isJSON(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	if mt == "application/json" {
		return true
	}
	return strings.HasPrefix(mt, "application/") && strings.HasSuffix(mt, "+json")
}
