package api

import (
	"net/http"

	"github.com/phrazzld/parcel-api/internal/api/shared"
)

// HealthResponse is the body returned by the health endpoints.
type HealthResponse struct {
	Status string `json:"status"`
}

// Health handles GET /health and GET /api/v1/health.
func Health(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, HealthResponse{Status: "ok"})
}
