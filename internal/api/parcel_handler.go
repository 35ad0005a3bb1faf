package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/parcel-api/internal/api/shared"
	"github.com/phrazzld/parcel-api/internal/domain"
	"github.com/phrazzld/parcel-api/internal/metrics"
	"github.com/phrazzld/parcel-api/internal/platform/logger"
	"github.com/phrazzld/parcel-api/internal/store"
)

// ParcelIDParam is the chi URL parameter holding the parcel identifier.
const ParcelIDParam = "pid"

// LookupRecorder receives the outcome of each parcel lookup.
type LookupRecorder interface {
	ParcelLookup(outcome string)
}

// ParcelHandler handles parcel-related HTTP requests
type ParcelHandler struct {
	parcels  store.ParcelStore
	recorder LookupRecorder
	logger   *slog.Logger
}

// NewParcelHandler creates a new ParcelHandler. recorder may be nil.
func NewParcelHandler(parcels store.ParcelStore, recorder LookupRecorder, logger *slog.Logger) *ParcelHandler {
	if parcels == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("parcel store cannot be nil for ParcelHandler")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ParcelHandler{
		parcels:  parcels,
		recorder: recorder,
		logger:   logger.With(slog.String("component", "parcel_handler")),
	}
}

// GetParcel handles GET /api/v1/parcels/{pid} requests.
// It returns the parcel view, or 404 with the requested id when the parcel
// does not exist.
func (h *ParcelHandler) GetParcel(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	parcelID, err := parcelIDParam(r)
	if err == nil {
		err = domain.ValidateParcelID(parcelID)
	}
	if err != nil {
		h.record(metrics.OutcomeInvalid)
		log.Debug("rejected parcel id", slog.String("parcel_id", parcelID), slog.String("error", err.Error()))
		shared.RespondWithError(w, r, http.StatusBadRequest, shared.ErrorResponse{
			Error:    GetSafeErrorMessage(err),
			ParcelID: parcelID,
		})
		return
	}

	view, err := h.parcels.GetView(r.Context(), parcelID)
	if err != nil {
		status := MapErrorToStatusCode(err)
		body := shared.ErrorResponse{Error: GetSafeErrorMessage(err), ParcelID: parcelID}
		if store.IsNotFoundError(err) {
			h.record(metrics.OutcomeNotFound)
			shared.RespondWithError(w, r, status, body)
			return
		}
		h.record(metrics.OutcomeError)
		shared.RespondWithErrorAndLog(w, r, status, body, err)
		return
	}

	h.record(metrics.OutcomeFound)
	log.Debug("parcel view served", slog.String("parcel_id", parcelID))
	shared.RespondWithJSON(w, r, http.StatusOK, view)
}

// parcelIDParam returns the decoded parcel id. chi matches against
// r.URL.RawPath when it is set, leaving the parameter escaped; r.URL.Path is
// already decoded and must not be unescaped twice.
func parcelIDParam(r *http.Request) (string, error) {
	raw := chi.URLParam(r, ParcelIDParam)
	if r.URL.RawPath == "" {
		return raw, nil
	}
	id, err := url.PathUnescape(raw)
	if err != nil {
		return raw, fmt.Errorf("%w: %v", domain.ErrInvalidParcelID, err)
	}
	return id, nil
}

func (h *ParcelHandler) record(outcome string) {
	if h.recorder != nil {
		h.recorder.ParcelLookup(outcome)
	}
}
