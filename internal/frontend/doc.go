// Package frontend holds the settings published to the browser frontend:
// the backend API base, the static GeoJSON asset location and the flag that
// selects between remote-API mode and local-only mode.
//
// A Settings value is built once at startup and never changes afterwards.
// Everything that needs one (the HTTP handlers serving config.js, the API
// client, the CLI) receives it explicitly instead of reading globals.
package frontend
