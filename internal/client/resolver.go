package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/phrazzld/parcel-api/internal/domain"
	"github.com/phrazzld/parcel-api/internal/geo"
)

// DefaultIDProperty is the GeoJSON property holding a parcel's identifier.
const DefaultIDProperty = "parcelId"

// Sources reported in Result.
const (
	SourceAPI   = "api"
	SourceLocal = "local"
)

// ErrNoLocalData is returned in local-only mode when no GeoJSON was loaded.
var ErrNoLocalData = errors.New("no local parcel data loaded")

// Result is the answer to a parcel lookup. View is set for API answers,
// Feature for local ones.
type Result struct {
	Source  string
	View    *domain.ParcelView
	Feature *geo.Feature
}

// Resolver answers parcel lookups from the backend or from local data,
// depending on the client's settings.
type Resolver struct {
	api        *Client
	local      *geo.FeatureCollection
	idProperty string
}

// NewResolver creates a Resolver. local may be nil in API mode; an empty
// idProperty selects DefaultIDProperty.
func NewResolver(api *Client, local *geo.FeatureCollection, idProperty string) *Resolver {
	if idProperty == "" {
		idProperty = DefaultIDProperty
	}
	return &Resolver{api: api, local: local, idProperty: idProperty}
}

// Lookup resolves a parcel. In local-only mode no network request is made.
func (r *Resolver) Lookup(ctx context.Context, parcelID string) (*Result, error) {
	if r.api.Settings().UsingAPI() {
		view, err := r.api.Parcel(ctx, parcelID)
		if err != nil {
			return nil, err
		}
		return &Result{Source: SourceAPI, View: view}, nil
	}

	if r.local == nil {
		return nil, ErrNoLocalData
	}
	feature, ok := r.local.FindByProperty(r.idProperty, parcelID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrParcelNotFound, parcelID)
	}
	return &Result{Source: SourceLocal, Feature: &feature}, nil
}
