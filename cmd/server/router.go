package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/parcel-api/internal/api"
	apiMiddleware "github.com/phrazzld/parcel-api/internal/api/middleware"
)

// setupRouter creates and configures the application router with all routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.NewTraceMiddleware(app.logger))
	r.Use(app.metrics.Middleware)
	r.Use(apiMiddleware.NewCORSMiddleware(app.config.Server.CORSAllowedOrigins))

	parcelHandler := api.NewParcelHandler(app.parcelStore, app.metrics, app.logger)
	frontendHandler := api.NewFrontendHandler(app.settings)

	r.Get("/health", api.Health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", api.Health)
		r.Get("/parcels/{"+api.ParcelIDParam+"}", parcelHandler.GetParcel)
		r.Get("/frontend-config", frontendHandler.ConfigJSON)
	})

	r.Get("/config.js", frontendHandler.ConfigScript)
	r.Method(http.MethodGet, "/metrics", app.metrics.Handler())

	if dir := app.config.Frontend.StaticDir; dir != "" {
		r.Handle("/*", http.FileServer(http.Dir(dir)))
	}

	return r
}
