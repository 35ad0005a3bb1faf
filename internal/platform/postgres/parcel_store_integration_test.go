package postgres_test

import (
	"context"
	"errors"
	"testing"

	"github.com/phrazzld/parcel-api/internal/platform/postgres"
	"github.com/phrazzld/parcel-api/internal/store"
	"github.com/phrazzld/parcel-api/internal/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests read the synthetic parcels seeded by the migrations.

func TestPostgresParcelStore_Integration(t *testing.T) {
	db := testdb.GetTestDBWithT(t)
	s := postgres.NewPostgresParcelStore(db, nil)
	ctx := context.Background()

	t.Run("full view", func(t *testing.T) {
		view, err := s.GetView(ctx, "P-0001")
		require.NoError(t, err)

		assert.Equal(t, "P-0001", view.ParcelID)
		require.NotNil(t, view.Municipality)
		assert.Equal(t, "Bayview", *view.Municipality)

		require.NotNil(t, view.Title)
		assert.Equal(t, "T-1001", view.Title.TitleNumber)
		require.Len(t, view.Owners, 1)
		assert.Equal(t, "O-01", view.Owners[0].OwnerKey)
		require.Len(t, view.RRR, 1)
		assert.Equal(t, "R-500", view.RRR[0].RRRID)
		assert.Equal(t, []string{"1023"}, view.SurveyPlans)

		require.NotNil(t, view.Assessment)
		require.NotNil(t, view.Assessment.Year)
		assert.Equal(t, 2024, *view.Assessment.Year, "latest assessment year wins")

		require.NotNil(t, view.Zoning)
		assert.Equal(t, "R1", *view.Zoning.Code)
	})

	t.Run("parcel without title", func(t *testing.T) {
		view, err := s.GetView(ctx, "P-0003")
		require.NoError(t, err)

		assert.Nil(t, view.Title)
		assert.Nil(t, view.CivicAddress)
		assert.Empty(t, view.Owners)
		assert.NotNil(t, view.Owners)
		assert.Empty(t, view.RRR)
		assert.Nil(t, view.Assessment)
	})

	t.Run("unknown parcel", func(t *testing.T) {
		_, err := s.GetView(ctx, "P-9999")
		require.Error(t, err)
		assert.True(t, errors.Is(err, store.ErrParcelNotFound))
		assert.True(t, store.IsNotFoundError(err))
	})
}
