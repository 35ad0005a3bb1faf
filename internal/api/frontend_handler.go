package api

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/phrazzld/parcel-api/internal/api/shared"
	"github.com/phrazzld/parcel-api/internal/frontend"
)

// FrontendHandler publishes the frontend settings, both as the config.js
// script loaded by the page and as JSON for bundled frontends.
type FrontendHandler struct {
	settings frontend.Settings
	script   []byte
	etag     string
}

// NewFrontendHandler renders the script once; the settings never change.
func NewFrontendHandler(settings frontend.Settings) *FrontendHandler {
	script := settings.Script()
	sum := sha256.Sum256(script)
	return &FrontendHandler{
		settings: settings,
		script:   script,
		etag:     `"` + hex.EncodeToString(sum[:8]) + `"`,
	}
}

// ConfigScript handles GET /config.js.
func (h *FrontendHandler) ConfigScript(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("ETag", h.etag)
	w.Header().Set("Cache-Control", "no-cache")
	if etagMatches(r.Header.Get("If-None-Match"), h.etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(h.script)
}

// etagMatches applies the weak comparison If-None-Match calls for: the
// header is a comma-separated list, "*" matches anything and a W/ prefix
// is ignored.
func etagMatches(header, etag string) bool {
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimPrefix(strings.TrimSpace(candidate), "W/")
		if candidate == "*" || candidate == etag {
			return true
		}
	}
	return false
}

// ConfigJSON handles GET /api/v1/frontend-config.
func (h *FrontendHandler) ConfigJSON(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, h.settings)
}
