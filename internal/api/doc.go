// Package api handles incoming HTTP requests, routing, request validation,
// and response formatting. It acts as an adapter between external clients
// and the internal stores, translating HTTP concerns to parcel lookups and
// publishing the frontend settings.
package api
