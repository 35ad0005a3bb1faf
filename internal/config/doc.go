// Package config loads the server and frontend settings from defaults, an
// optional YAML file and PARCEL_* environment variables, and validates the
// result before anything else starts.
package config
