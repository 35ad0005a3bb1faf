// Package client consumes the backend API described by frontend.Settings.
//
// Every request goes to a URL derived from the settings' API base. When the
// settings select local-only mode the client refuses to issue requests, and
// Resolver answers parcel lookups from the locally loaded GeoJSON instead.
package client
