// Package cache provides a redis-backed read-through cache for parcel views.
package cache
