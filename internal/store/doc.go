// Package store declares the parcel read interface and the errors every
// backing implementation reports through it.
package store
