// Package postgres reads parcel views from PostgreSQL and owns the schema
// migrations that create and seed the parcel tables.
package postgres
