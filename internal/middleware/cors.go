// Package middleware provides reusable HTTP middleware for the aquamap servers.
package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

// NewCORSHandler returns a middleware that lets the map UI at allowedOrigins
// call the API from the browser. Each entry must be a full origin (scheme +
// host, no trailing slash). Authorization is allowed so the UI can send its
// bearer token; Content-Disposition is exposed so the CSV export keeps its
// file name.
func NewCORSHandler(allowedOrigins []string) func(http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		ExposedHeaders: []string{"Content-Disposition"},
		MaxAge:         600,
	})
	return c.Handler
}
