package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// NewCORSMiddleware allows the browser frontend, which may be hosted on a
// different origin than the API, to issue read-only requests.
func NewCORSMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	return cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		ExposedHeaders: []string{TraceHeader},
		MaxAge:         300,
	})
}
