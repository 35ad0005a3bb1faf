package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/phrazzld/parcel-api/internal/domain"
	"github.com/phrazzld/parcel-api/internal/store"
)

const (
	selectParcelQuery = `
SELECT parcel_id, legal_desc, civic_address, municipality
FROM parcels
WHERE parcel_id = $1`

	// A parcel may carry several titles over time; the view shows the most
	// recently issued one.
	selectTitleQuery = `
SELECT title_number, status, to_char(issue_date, 'YYYY-MM-DD')
FROM titles
WHERE parcel_id = $1
ORDER BY issue_date DESC NULLS LAST, title_number
LIMIT 1`

	selectOwnersQuery = `
SELECT o.owner_key, o.name, o.type
FROM title_owners tow
JOIN owners o ON o.owner_key = tow.owner_key
WHERE tow.title_number = $1
ORDER BY o.owner_key`

	selectRRRsQuery = `
SELECT rrr_id, category, type, status,
       to_char(effective_from, 'YYYY-MM-DD'), to_char(effective_to, 'YYYY-MM-DD'),
       amount::float8, currency
FROM rrrs
WHERE title_number = $1
ORDER BY effective_from NULLS LAST, rrr_id`

	selectSurveyPlansQuery = `
SELECT plan_no
FROM parcel_survey_plans
WHERE parcel_id = $1
ORDER BY plan_no`

	selectAssessmentQuery = `
SELECT year, total_value::float8, land_value::float8, impro_value::float8
FROM assessments
WHERE parcel_id = $1
ORDER BY year DESC
LIMIT 1`

	selectZoningQuery = `
SELECT z.code, z.bylaw
FROM parcel_zonings pz
JOIN zonings z ON z.code = pz.code
WHERE pz.parcel_id = $1
ORDER BY z.code
LIMIT 1`
)

// PostgresParcelStore implements the store.ParcelStore interface
// using a PostgreSQL database as the storage backend.
type PostgresParcelStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresParcelStore creates a new PostgreSQL implementation of the ParcelStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresParcelStore(db *sql.DB, logger *slog.Logger) *PostgresParcelStore {
	if db == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresParcelStore{
		db:     db,
		logger: logger.With(slog.String("component", "parcel_store")),
	}
}

// Ensure PostgresParcelStore implements store.ParcelStore interface
var _ store.ParcelStore = (*PostgresParcelStore)(nil)

// GetView implements store.ParcelStore.GetView.
// All queries run in one read-only transaction so the view is consistent.
func (s *PostgresParcelStore) GetView(ctx context.Context, parcelID string) (*domain.ParcelView, error) {
	var view *domain.ParcelView

	err := store.RunInReadTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		var err error
		view, err = s.loadView(ctx, tx, parcelID)
		return err
	})
	if err != nil {
		if IsNotFoundError(err) {
			s.logger.Debug("parcel not found", slog.String("parcel_id", parcelID))
			return nil, err
		}
		s.logger.Error("failed to load parcel view",
			slog.String("parcel_id", parcelID),
			slog.String("error", err.Error()))
		return nil, err
	}

	return view, nil
}

func (s *PostgresParcelStore) loadView(ctx context.Context, db store.DBTX, parcelID string) (*domain.ParcelView, error) {
	view := &domain.ParcelView{}
	var legalDesc, civicAddress, municip sql.NullString
	err := db.QueryRowContext(ctx, selectParcelQuery, parcelID).
		Scan(&view.ParcelID, &legalDesc, &civicAddress, &municip)
	if err != nil {
		if IsNotFoundError(err) {
			return nil, store.ErrParcelNotFound
		}
		return nil, store.NewStoreError("parcel", "get_view", "parcel query failed", MapError(err))
	}
	if strings.TrimSpace(view.ParcelID) == "" {
		return nil, store.NewStoreError("parcel", "get_view",
			fmt.Sprintf("row for %q has an empty parcel_id", parcelID), store.ErrInvalidEntity)
	}
	view.LegalDesc = nullString(legalDesc)
	view.CivicAddress = nullString(civicAddress)
	view.Municipality = nullString(municip)

	if view.Title, err = loadTitle(ctx, db, parcelID); err != nil {
		return nil, store.NewStoreError("title", "get_view", "title query failed", MapError(err))
	}

	if view.Title != nil {
		if view.Owners, err = loadOwners(ctx, db, view.Title.TitleNumber); err != nil {
			return nil, store.NewStoreError("owner", "get_view", "owner query failed", MapError(err))
		}
		if view.RRR, err = loadRRRs(ctx, db, view.Title.TitleNumber); err != nil {
			return nil, store.NewStoreError("rrr", "get_view", "rrr query failed", MapError(err))
		}
	}

	if view.SurveyPlans, err = loadSurveyPlans(ctx, db, parcelID); err != nil {
		return nil, store.NewStoreError("survey_plan", "get_view", "survey plan query failed", MapError(err))
	}
	if view.Assessment, err = loadAssessment(ctx, db, parcelID); err != nil {
		return nil, store.NewStoreError("assessment", "get_view", "assessment query failed", MapError(err))
	}
	if view.Zoning, err = loadZoning(ctx, db, parcelID); err != nil {
		return nil, store.NewStoreError("zoning", "get_view", "zoning query failed", MapError(err))
	}

	view.Normalize()
	return view, nil
}

func loadTitle(ctx context.Context, db store.DBTX, parcelID string) (*domain.Title, error) {
	var (
		t                 domain.Title
		status, issueDate sql.NullString
	)
	err := db.QueryRowContext(ctx, selectTitleQuery, parcelID).Scan(&t.TitleNumber, &status, &issueDate)
	if IsNotFoundError(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	t.Status = nullString(status)
	t.IssueDate = nullString(issueDate)
	return &t, nil
}

func loadOwners(ctx context.Context, db store.DBTX, titleNumber string) ([]domain.Owner, error) {
	rows, err := db.QueryContext(ctx, selectOwnersQuery, titleNumber)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var owners []domain.Owner
	for rows.Next() {
		var (
			o          domain.Owner
			name, kind sql.NullString
		)
		if err := rows.Scan(&o.OwnerKey, &name, &kind); err != nil {
			return nil, err
		}
		o.Name = nullString(name)
		o.Type = nullString(kind)
		owners = append(owners, o)
	}
	return owners, rows.Err()
}

func loadRRRs(ctx context.Context, db store.DBTX, titleNumber string) ([]domain.RRR, error) {
	rows, err := db.QueryContext(ctx, selectRRRsQuery, titleNumber)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var rrrs []domain.RRR
	for rows.Next() {
		var (
			r                                     domain.RRR
			category, kind, status, from, to, cur sql.NullString
			amount                                sql.NullFloat64
		)
		if err := rows.Scan(&r.RRRID, &category, &kind, &status, &from, &to, &amount, &cur); err != nil {
			return nil, err
		}
		r.Category = nullString(category)
		r.Type = nullString(kind)
		r.Status = nullString(status)
		r.EffectiveFrom = nullString(from)
		r.EffectiveTo = nullString(to)
		r.Amount = nullFloat(amount)
		r.Currency = nullString(cur)
		rrrs = append(rrrs, r)
	}
	return rrrs, rows.Err()
}

func loadSurveyPlans(ctx context.Context, db store.DBTX, parcelID string) ([]string, error) {
	rows, err := db.QueryContext(ctx, selectSurveyPlansQuery, parcelID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var plans []string
	for rows.Next() {
		var plan string
		if err := rows.Scan(&plan); err != nil {
			return nil, err
		}
		plans = append(plans, plan)
	}
	return plans, rows.Err()
}

func loadAssessment(ctx context.Context, db store.DBTX, parcelID string) (*domain.Assessment, error) {
	var (
		year               sql.NullInt32
		total, land, impro sql.NullFloat64
	)
	err := db.QueryRowContext(ctx, selectAssessmentQuery, parcelID).Scan(&year, &total, &land, &impro)
	if IsNotFoundError(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	a := &domain.Assessment{
		TotalValue: nullFloat(total),
		LandValue:  nullFloat(land),
		ImproValue: nullFloat(impro),
	}
	if year.Valid {
		y := int(year.Int32)
		a.Year = &y
	}
	return a, nil
}

func loadZoning(ctx context.Context, db store.DBTX, parcelID string) (*domain.Zoning, error) {
	var code, bylaw sql.NullString
	err := db.QueryRowContext(ctx, selectZoningQuery, parcelID).Scan(&code, &bylaw)
	if IsNotFoundError(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &domain.Zoning{Code: nullString(code), Bylaw: nullString(bylaw)}, nil
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func nullFloat(nf sql.NullFloat64) *float64 {
	if !nf.Valid {
		return nil
	}
	f := nf.Float64
	return &f
}
