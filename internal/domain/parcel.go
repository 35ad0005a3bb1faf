package domain

import (
	"fmt"
	"strings"
	"unicode"
)

// MaxParcelIDLength bounds the identifiers accepted from callers.
const MaxParcelIDLength = 128

// ParcelView is the read model returned for a single parcel: the parcel
// itself plus its title, owners, rights/restrictions/responsibilities,
// survey plans, latest assessment and zoning.
type ParcelView struct {
	ParcelID     string      `json:"parcelId"`
	LegalDesc    *string     `json:"legalDesc"`
	CivicAddress *string     `json:"civicAddress"`
	Municipality *string     `json:"municipality"`
	Title        *Title      `json:"title"`
	Owners       []Owner     `json:"owners"`
	RRR          []RRR       `json:"rrr"`
	SurveyPlans  []string    `json:"surveyPlans"`
	Assessment   *Assessment `json:"assessment"`
	Zoning       *Zoning     `json:"zoning"`
}

// Title is the land title registered against a parcel.
type Title struct {
	TitleNumber string  `json:"titleNumber"`
	Status      *string `json:"status"`
	IssueDate   *string `json:"issueDate"`
}

// Owner holds a title.
type Owner struct {
	OwnerKey string  `json:"ownerKey"`
	Name     *string `json:"name"`
	Type     *string `json:"type"`
}

// RRR is a right, restriction or responsibility encumbering a title.
type RRR struct {
	RRRID         string   `json:"rrrId"`
	Category      *string  `json:"category"`
	Type          *string  `json:"type"`
	Status        *string  `json:"status"`
	EffectiveFrom *string  `json:"effectiveFrom"`
	EffectiveTo   *string  `json:"effectiveTo"`
	Amount        *float64 `json:"amount"`
	Currency      *string  `json:"currency"`
}

// Assessment is a yearly property valuation.
type Assessment struct {
	Year       *int     `json:"year"`
	TotalValue *float64 `json:"totalValue"`
	LandValue  *float64 `json:"landValue"`
	ImproValue *float64 `json:"improValue"`
}

// Zoning is the zoning designation applied to a parcel.
type Zoning struct {
	Code  *string `json:"code"`
	Bylaw *string `json:"bylaw"`
}

// ValidateParcelID checks that id can be used as a lookup key and as a
// single URL path segment.
func ValidateParcelID(id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: cannot be empty", ErrInvalidParcelID)
	}
	if len(id) > MaxParcelIDLength {
		return fmt.Errorf("%w: longer than %d bytes", ErrInvalidParcelID, MaxParcelIDLength)
	}
	for _, r := range id {
		if unicode.IsControl(r) || r == '/' {
			return fmt.Errorf("%w: contains %q", ErrInvalidParcelID, r)
		}
	}
	return nil
}

// Normalize drops related records that carry no identifier and removes
// duplicates, keeping first-seen order. Keyless owners are dropped too,
// so a title without owners yields an empty list rather than a null entry. Slices are never nil afterwards so
// they encode as empty JSON arrays.
func (v *ParcelView) Normalize() {
	owners := make([]Owner, 0, len(v.Owners))
	seenOwners := make(map[string]bool, len(v.Owners))
	for _, o := range v.Owners {
		if o.OwnerKey == "" || seenOwners[o.OwnerKey] {
			continue
		}
		seenOwners[o.OwnerKey] = true
		owners = append(owners, o)
	}
	v.Owners = owners

	rrrs := make([]RRR, 0, len(v.RRR))
	seenRRR := make(map[string]bool, len(v.RRR))
	for _, r := range v.RRR {
		if r.RRRID == "" || seenRRR[r.RRRID] {
			continue
		}
		seenRRR[r.RRRID] = true
		rrrs = append(rrrs, r)
	}
	v.RRR = rrrs

	plans := make([]string, 0, len(v.SurveyPlans))
	seenPlans := make(map[string]bool, len(v.SurveyPlans))
	for _, p := range v.SurveyPlans {
		if p == "" || seenPlans[p] {
			continue
		}
		seenPlans[p] = true
		plans = append(plans, p)
	}
	v.SurveyPlans = plans
}
