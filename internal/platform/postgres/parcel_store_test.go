package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/phrazzld/parcel-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*PostgresParcelStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresParcelStore(db, nil), mock
}

func expectParcel(mock sqlmock.Sqlmock, id string) {
	mock.ExpectQuery(selectParcelQuery).WithArgs(id).WillReturnRows(
		sqlmock.NewRows([]string{"parcel_id", "legal_desc", "civic_address", "municipality"}).
			AddRow(id, "LOT 1 BLOCK 4 PLAN 1023", "12 Harbour Rd", nil),
	)
}

func TestGetViewFull(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	expectParcel(mock, "P-0001")
	mock.ExpectQuery(selectTitleQuery).WithArgs("P-0001").WillReturnRows(
		sqlmock.NewRows([]string{"title_number", "status", "issue_date"}).AddRow("T-1001", "ACTIVE", "2019-05-14"),
	)
	mock.ExpectQuery(selectOwnersQuery).WithArgs("T-1001").WillReturnRows(
		sqlmock.NewRows([]string{"owner_key", "name", "type"}).
			AddRow("O-01", "Ada Lovelace", "PERSON").
			AddRow("O-02", nil, nil),
	)
	mock.ExpectQuery(selectRRRsQuery).WithArgs("T-1001").WillReturnRows(
		sqlmock.NewRows([]string{"rrr_id", "category", "type", "status", "effective_from", "effective_to", "amount", "currency"}).
			AddRow("R-500", "RESTRICTION", "MORTGAGE", "REGISTERED", "2019-05-20", nil, 350000.0, "CAD"),
	)
	mock.ExpectQuery(selectSurveyPlansQuery).WithArgs("P-0001").WillReturnRows(
		sqlmock.NewRows([]string{"plan_no"}).AddRow("1023"),
	)
	mock.ExpectQuery(selectAssessmentQuery).WithArgs("P-0001").WillReturnRows(
		sqlmock.NewRows([]string{"year", "total_value", "land_value", "impro_value"}).
			AddRow(int64(2024), 540000.0, 225000.0, nil),
	)
	mock.ExpectQuery(selectZoningQuery).WithArgs("P-0001").WillReturnRows(
		sqlmock.NewRows([]string{"code", "bylaw"}).AddRow("R1", "Bylaw 2011-07"),
	)
	mock.ExpectCommit()

	view, err := s.GetView(context.Background(), "P-0001")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	assert.Equal(t, "P-0001", view.ParcelID)
	require.NotNil(t, view.LegalDesc)
	assert.Equal(t, "LOT 1 BLOCK 4 PLAN 1023", *view.LegalDesc)
	assert.Nil(t, view.Municipality)

	require.NotNil(t, view.Title)
	assert.Equal(t, "T-1001", view.Title.TitleNumber)
	assert.Equal(t, "2019-05-14", *view.Title.IssueDate)

	require.Len(t, view.Owners, 2)
	assert.Equal(t, "Ada Lovelace", *view.Owners[0].Name)
	assert.Nil(t, view.Owners[1].Name)

	require.Len(t, view.RRR, 1)
	assert.Equal(t, 350000.0, *view.RRR[0].Amount)
	assert.Nil(t, view.RRR[0].EffectiveTo)

	assert.Equal(t, []string{"1023"}, view.SurveyPlans)

	require.NotNil(t, view.Assessment)
	assert.Equal(t, 2024, *view.Assessment.Year)
	assert.Nil(t, view.Assessment.ImproValue)

	require.NotNil(t, view.Zoning)
	assert.Equal(t, "R1", *view.Zoning.Code)
}

func TestGetViewWithoutTitle(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	expectParcel(mock, "P-0003")
	mock.ExpectQuery(selectTitleQuery).WithArgs("P-0003").
		WillReturnRows(sqlmock.NewRows([]string{"title_number", "status", "issue_date"}))
	mock.ExpectQuery(selectSurveyPlansQuery).WithArgs("P-0003").
		WillReturnRows(sqlmock.NewRows([]string{"plan_no"}))
	mock.ExpectQuery(selectAssessmentQuery).WithArgs("P-0003").
		WillReturnRows(sqlmock.NewRows([]string{"year", "total_value", "land_value", "impro_value"}))
	mock.ExpectQuery(selectZoningQuery).WithArgs("P-0003").
		WillReturnRows(sqlmock.NewRows([]string{"code", "bylaw"}))
	mock.ExpectCommit()

	view, err := s.GetView(context.Background(), "P-0003")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	assert.Nil(t, view.Title)
	assert.Empty(t, view.Owners)
	assert.NotNil(t, view.Owners, "owners encode as [] rather than null")
	assert.Empty(t, view.RRR)
	assert.Empty(t, view.SurveyPlans)
	assert.Nil(t, view.Assessment)
	assert.Nil(t, view.Zoning)
}

func TestGetViewNotFound(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(selectParcelQuery).WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"parcel_id", "legal_desc", "civic_address", "municipality"}))
	mock.ExpectRollback()

	view, err := s.GetView(context.Background(), "missing")
	assert.Nil(t, view)
	assert.ErrorIs(t, err, store.ErrParcelNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetViewRejectsBlankParcelRow(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(selectParcelQuery).WithArgs("P-0001").WillReturnRows(
		sqlmock.NewRows([]string{"parcel_id", "legal_desc", "civic_address", "municipality"}).
			AddRow("  ", nil, nil, nil),
	)
	mock.ExpectRollback()

	view, err := s.GetView(context.Background(), "P-0001")
	assert.Nil(t, view)
	assert.ErrorIs(t, err, store.ErrInvalidEntity)
	assert.False(t, store.IsNotFoundError(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetViewQueryError(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	expectParcel(mock, "P-0001")
	mock.ExpectQuery(selectTitleQuery).WithArgs("P-0001").WillReturnError(errors.New("bad connection"))
	mock.ExpectRollback()

	view, err := s.GetView(context.Background(), "P-0001")
	assert.Nil(t, view)
	require.Error(t, err)
	assert.False(t, store.IsNotFoundError(err))

	var storeErr *store.StoreError
	require.True(t, errors.As(err, &storeErr))
	assert.Equal(t, "title", storeErr.Entity)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewPostgresParcelStorePanicsOnNilDB(t *testing.T) {
	assert.Panics(t, func() {
		var db *sql.DB
		NewPostgresParcelStore(db, nil)
	})
}

func TestSingleRowQueriesPickDeterministically(t *testing.T) {
	for name, q := range map[string]string{
		"title":      selectTitleQuery,
		"assessment": selectAssessmentQuery,
		"zoning":     selectZoningQuery,
	} {
		t.Run(name, func(t *testing.T) {
			assert.Contains(t, q, "ORDER BY", "several rows may match; one must be chosen by rule")
			assert.True(t, strings.HasSuffix(strings.TrimSpace(q), "LIMIT 1"))
		})
	}
}
