package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/phrazzld/parcel-api/internal/config"
	"github.com/phrazzld/parcel-api/internal/domain"
	"github.com/phrazzld/parcel-api/internal/frontend"
	"github.com/phrazzld/parcel-api/internal/metrics"
	"github.com/phrazzld/parcel-api/internal/platform/logger"
	"github.com/phrazzld/parcel-api/internal/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

// newTestApplication builds an application around an in-memory parcel store
// and a temporary static directory.
func newTestApplication(t *testing.T, parcels store.ParcelStore) *application {
	t.Helper()

	_, l := logger.SetupTestLogger(t)

	staticDir := t.TempDir()
	require.NoError(t, os.WriteFile(
		filepath.Join(staticDir, "synthetic_parcels.geojson"),
		[]byte(`{"type":"FeatureCollection","features":[]}`),
		0o600,
	))

	cfg := &config.Config{
		Server: config.ServerConfig{
			Port:                   8000,
			LogLevel:               "debug",
			ShutdownTimeoutSeconds: 1,
			CORSAllowedOrigins:     []string{"*"},
		},
		Frontend: config.FrontendConfig{
			APIBase:    "https://x/api/v1/",
			GeoJSONURL: "synthetic_parcels.geojson",
			UsingAPI:   true,
			StaticDir:  staticDir,
		},
	}

	settings, err := frontend.New(cfg.Frontend)
	require.NoError(t, err)

	return &application{
		config:      cfg,
		logger:      l,
		settings:    settings,
		metrics:     metrics.New(prometheus.NewRegistry()),
		parcelStore: parcels,
	}
}

func fixedParcels() store.ParcelStore {
	return store.ParcelStoreFunc(func(ctx context.Context, parcelID string) (*domain.ParcelView, error) {
		if parcelID != "P-0001" {
			return nil, store.ErrParcelNotFound
		}
		return &domain.ParcelView{ParcelID: "P-0001", CivicAddress: strPtr("1 Main St")}, nil
	})
}

func doGet(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRouter_Health(t *testing.T) {
	router := newTestApplication(t, fixedParcels()).setupRouter()

	for _, path := range []string{"/health", "/api/v1/health"} {
		t.Run(path, func(t *testing.T) {
			rec := doGet(t, router, path)

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
			assert.NotEmpty(t, rec.Header().Get("X-Trace-ID"))
		})
	}
}

func TestRouter_Parcel(t *testing.T) {
	router := newTestApplication(t, fixedParcels()).setupRouter()

	t.Run("found", func(t *testing.T) {
		rec := doGet(t, router, "/api/v1/parcels/P-0001")

		require.Equal(t, http.StatusOK, rec.Code)
		var view domain.ParcelView
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
		assert.Equal(t, "P-0001", view.ParcelID)
		require.NotNil(t, view.CivicAddress)
		assert.Equal(t, "1 Main St", *view.CivicAddress)
	})

	t.Run("not found", func(t *testing.T) {
		rec := doGet(t, router, "/api/v1/parcels/P-9999")

		require.Equal(t, http.StatusNotFound, rec.Code)
		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "not found", body["error"])
		assert.Equal(t, "P-9999", body["parcelId"])
	})
}

func TestRouter_ParcelWithoutDatabase(t *testing.T) {
	router := newTestApplication(t, unavailableParcelStore()).setupRouter()

	rec := doGet(t, router, "/api/v1/parcels/P-0001")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRouter_FrontendConfig(t *testing.T) {
	router := newTestApplication(t, fixedParcels()).setupRouter()

	t.Run("script", func(t *testing.T) {
		rec := doGet(t, router, "/config.js")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Header().Get("Content-Type"), "application/javascript")
		assert.Contains(t, rec.Body.String(), `window.API_BASE = "https://x/api/v1";`)
		assert.Contains(t, rec.Body.String(), "window.USING_API = true;")
	})

	t.Run("json", func(t *testing.T) {
		rec := doGet(t, router, "/api/v1/frontend-config")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t,
			`{"apiBase":"https://x/api/v1","geojsonUrl":"synthetic_parcels.geojson","usingApi":true}`,
			rec.Body.String())
	})
}

func TestRouter_StaticAssets(t *testing.T) {
	router := newTestApplication(t, fixedParcels()).setupRouter()

	rec := doGet(t, router, "/synthetic_parcels.geojson")

	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "FeatureCollection")
}

func TestRouter_CORS(t *testing.T) {
	router := newTestApplication(t, fixedParcels()).setupRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	req.Header.Set("Origin", "https://frontend.example")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter_Metrics(t *testing.T) {
	router := newTestApplication(t, fixedParcels()).setupRouter()

	doGet(t, router, "/api/v1/parcels/P-0001")
	doGet(t, router, "/api/v1/parcels/P-9999")
	rec := doGet(t, router, "/metrics")

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `parcel_lookups_total{outcome="found"} 1`)
	assert.Contains(t, body, `parcel_lookups_total{outcome="not_found"} 1`)
	assert.Contains(t, body, `route="/api/v1/parcels/{pid}"`)
}

func TestRouter_ParcelIDsBuiltByClient(t *testing.T) {
	var seen []string
	parcels := store.ParcelStoreFunc(func(ctx context.Context, parcelID string) (*domain.ParcelView, error) {
		seen = append(seen, parcelID)
		if parcelID != "LOT 1,BLK 2" {
			return nil, store.ErrParcelNotFound
		}
		return &domain.ParcelView{ParcelID: parcelID}, nil
	})
	app := newTestApplication(t, parcels)
	router := app.setupRouter()

	t.Run("comma and space", func(t *testing.T) {
		seen = nil
		rec := doGet(t, router, app.settings.ParcelURL("LOT 1,BLK 2"))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, []string{"LOT 1,BLK 2"}, seen)
	})

	t.Run("escaped slash is rejected", func(t *testing.T) {
		seen = nil
		rec := doGet(t, router, app.settings.ParcelURL("a/b"))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Empty(t, seen)
	})
}
