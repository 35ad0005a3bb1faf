package frontend

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/phrazzld/parcel-api/internal/config"
)

// Route suffixes exposed by the backend under the API base.
const (
	HealthRoute  = "health"
	ParcelsRoute = "parcels"
)

// Errors returned by New.
var (
	ErrEmptyAPIBase    = errors.New("api base cannot be empty")
	ErrInvalidAPIBase  = errors.New("api base must be an absolute http(s) URL")
	ErrEmptyGeoJSONURL = errors.New("geojson url cannot be empty")
)

// Settings is the immutable frontend configuration.
type Settings struct {
	apiBase    string
	geojsonURL string
	usingAPI   bool
}

// New builds Settings from the loaded configuration. Trailing slashes are
// stripped from the API base so route suffixes can always be appended with
// a single separator.
func New(cfg config.FrontendConfig) (Settings, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.APIBase), "/")
	if base == "" {
		return Settings{}, ErrEmptyAPIBase
	}

	u, err := url.Parse(base)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return Settings{}, fmt.Errorf("%w: %q", ErrInvalidAPIBase, cfg.APIBase)
	}

	geo := strings.TrimSpace(cfg.GeoJSONURL)
	if geo == "" {
		return Settings{}, ErrEmptyGeoJSONURL
	}

	return Settings{
		apiBase:    base,
		geojsonURL: geo,
		usingAPI:   cfg.UsingAPI,
	}, nil
}

// APIBase returns the URL prefix for backend API calls, without a trailing slash.
func (s Settings) APIBase() string { return s.apiBase }

// GeoJSONURL returns the configured GeoJSON location exactly as configured.
func (s Settings) GeoJSONURL() string { return s.geojsonURL }

// UsingAPI reports whether consumers should talk to the backend API.
// When false, consumers must only use local data.
func (s Settings) UsingAPI() bool { return s.usingAPI }

// Endpoint joins a route onto the API base.
func (s Settings) Endpoint(route string) string {
	route = strings.TrimLeft(route, "/")
	if route == "" {
		return s.apiBase
	}
	return s.apiBase + "/" + route
}

// HealthURL returns the health-check endpoint under the API base.
func (s Settings) HealthURL() string {
	return s.Endpoint(HealthRoute)
}

// ParcelURL returns the lookup endpoint for a single parcel.
func (s Settings) ParcelURL(parcelID string) string {
	return s.Endpoint(ParcelsRoute + "/" + url.PathEscape(parcelID))
}

// ResolveGeoJSON returns the absolute location of the GeoJSON asset.
// Absolute URLs are returned unchanged; relative ones are resolved against
// the origin of the page hosting the frontend.
func (s Settings) ResolveGeoJSON(origin *url.URL) (*url.URL, error) {
	ref, err := url.Parse(s.geojsonURL)
	if err != nil {
		return nil, fmt.Errorf("invalid geojson url %q: %w", s.geojsonURL, err)
	}
	if ref.IsAbs() || origin == nil {
		return ref, nil
	}
	return origin.ResolveReference(ref), nil
}

// document is the wire shape shared by MarshalJSON and Script.
type document struct {
	APIBase    string `json:"apiBase"`
	GeoJSONURL string `json:"geojsonUrl"`
	UsingAPI   bool   `json:"usingApi"`
}

func (s Settings) document() document {
	return document{APIBase: s.apiBase, GeoJSONURL: s.geojsonURL, UsingAPI: s.usingAPI}
}

// MarshalJSON implements json.Marshaler.
func (s Settings) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.document())
}

// Script renders the settings as the page-global bindings the frontend
// expects (window.API_BASE, window.GEOJSON_URL, window.USING_API).
// The output depends only on the settings, so repeated loads are identical.
func (s Settings) Script() []byte {
	var buf bytes.Buffer
	buf.WriteString("// Generated by parcel-api. Do not edit.\n")
	fmt.Fprintf(&buf, "window.API_BASE = %s;\n", jsString(s.apiBase))
	fmt.Fprintf(&buf, "window.GEOJSON_URL = %s;\n", jsString(s.geojsonURL))
	fmt.Fprintf(&buf, "window.USING_API = %t;\n", s.usingAPI)
	return buf.Bytes()
}

// jsString quotes v as a JavaScript string literal. encoding/json escapes
// <, > and & so the literal is also safe inside an inline script tag.
func jsString(v string) string {
	b, err := json.Marshal(v)
	if err != nil {
		// json.Marshal cannot fail on a string
		return `""`
	}
	return string(b)
}
