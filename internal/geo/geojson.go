// Package geo loads the static GeoJSON asset the frontend renders.
// Only the FeatureCollection/Feature envelope is interpreted; geometry is
// kept raw and properties are left as decoded JSON values.
//
// The asset has no fixed schema and nothing here computes on geometry, so
// encoding/json with json.RawMessage is used rather than a geometry model
// such as github.com/paulmach/orb/geojson, which would reject or reshape
// inputs this package only passes through.
package geo

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
)

// ErrNotFeatureCollection is returned when the document's type is not FeatureCollection.
var ErrNotFeatureCollection = errors.New("geojson document is not a FeatureCollection")

// FeatureCollection is a GeoJSON FeatureCollection.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// Feature is a GeoJSON Feature.
type Feature struct {
	Type       string                 `json:"type"`
	ID         interface{}            `json:"id,omitempty"`
	Geometry   json.RawMessage        `json:"geometry"`
	Properties map[string]interface{} `json:"properties"`
}

// Load decodes a FeatureCollection from r.
func Load(r io.Reader) (*FeatureCollection, error) {
	var fc FeatureCollection
	dec := json.NewDecoder(r)
	dec.UseNumber()
	if err := dec.Decode(&fc); err != nil {
		return nil, fmt.Errorf("decode geojson: %w", err)
	}
	if fc.Type != "FeatureCollection" {
		return nil, fmt.Errorf("%w: got type %q", ErrNotFeatureCollection, fc.Type)
	}
	return &fc, nil
}

// LoadFile decodes the FeatureCollection stored at path.
func LoadFile(path string) (*FeatureCollection, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open geojson: %w", err)
	}
	defer func() { _ = f.Close() }()
	return Load(f)
}

// FindByProperty returns the first feature whose property key renders as
// value. The boolean is false when no feature matches.
func (fc *FeatureCollection) FindByProperty(key, value string) (Feature, bool) {
	for _, f := range fc.Features {
		v, ok := f.Properties[key]
		if !ok {
			continue
		}
		if s, ok := stringify(v); ok && s == value {
			return f, true
		}
	}
	return Feature{}, false
}

// PropertyString returns a property rendered as a string, for scalar values only.
func (f Feature) PropertyString(key string) (string, bool) {
	v, ok := f.Properties[key]
	if !ok {
		return "", false
	}
	return stringify(v)
}

func stringify(v interface{}) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case json.Number:
		return t.String(), true
	case bool:
		return strconv.FormatBool(t), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	default:
		return "", false
	}
}
