// Package domain holds the parcel view returned by the API, with its
// related title, owner, RRR, assessment and zoning records.
package domain
