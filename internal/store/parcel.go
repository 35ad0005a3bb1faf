package store

import (
	"context"

	"github.com/phrazzld/parcel-api/internal/domain"
)

// ParcelStore defines the interface for reading parcel views.
type ParcelStore interface {
	// GetView assembles the full view of a parcel: its title and owners,
	// the RRRs on that title, survey plans, latest assessment and zoning.
	// Related records that do not exist are returned as nil or empty slices.
	// Returns ErrParcelNotFound if the parcel itself does not exist.
	GetView(ctx context.Context, parcelID string) (*domain.ParcelView, error)
}

// ParcelStoreFunc adapts an ordinary function to the ParcelStore interface.
type ParcelStoreFunc func(ctx context.Context, parcelID string) (*domain.ParcelView, error)

// GetView calls f(ctx, parcelID).
func (f ParcelStoreFunc) GetView(ctx context.Context, parcelID string) (*domain.ParcelView, error) {
	return f(ctx, parcelID)
}
