// Package geojson is the feature-collection boundary of the
// reconciliation pipeline. It parses a GeoJSON document just far enough
// to expose the two properties the engine touches (id and name), and
// writes the annotated document back by splicing matched links into
// properties.source in place.
//
// The document is kept as raw bytes and edited with sjson so that field
// ordering, formatting and every untouched property survive the round
// trip byte for byte.
package geojson

import (
	"fmt"
	"os"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/riverlabs/gaugelink/pkg/errors"
	"github.com/riverlabs/gaugelink/pkg/logging"
)

// Feature is one record of the collection, opaque except for the
// identifying properties the engine reads.
type Feature struct {
	// Index is the feature's position in the features array.
	Index int

	// HasProperties reports whether the feature carries a non-null
	// properties object. Features without one are passed through
	// unmatched and unmodified.
	HasProperties bool

	// HasID reports whether properties.id is present and non-null.
	HasID bool

	// ID is the string-coerced identifier (numbers become their
	// decimal form). Not trimmed; the engine trims at match time.
	ID string

	// Name is the string-coerced display name, empty when absent.
	Name string
}

// Collection is a parsed feature collection. The original document is
// retained verbatim; the only mutation ever applied is SetSource.
type Collection struct {
	raw      []byte
	path     string
	features []Feature
}

// Load reads and parses the feature collection at path.
func Load(path string) (*Collection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapIO("read", path, err)
	}
	return Parse(data, path)
}

// Parse parses a feature collection from raw document bytes. The name
// is used in error messages. It returns a ParseError when the document
// is not valid JSON or has no features array.
func Parse(data []byte, name string) (*Collection, error) {
	if !gjson.ValidBytes(data) {
		return nil, errors.NewParseError("geojson", name, "document is not valid JSON", nil)
	}

	featuresVal := gjson.GetBytes(data, "features")
	if !featuresVal.Exists() || !featuresVal.IsArray() {
		return nil, errors.NewParseError("geojson", name, "document has no features array", nil)
	}

	c := &Collection{raw: data, path: name}

	skipped := 0
	for i, f := range featuresVal.Array() {
		feat := Feature{Index: i}

		props := f.Get("properties")
		if props.Exists() && props.Type != gjson.Null {
			feat.HasProperties = true

			if id := props.Get("id"); id.Exists() && id.Type != gjson.Null {
				feat.HasID = true
				feat.ID = id.String()
			}
			if name := props.Get("name"); name.Exists() && name.Type != gjson.Null {
				feat.Name = name.String()
			}
		} else {
			skipped++
		}

		c.features = append(c.features, feat)
	}

	if skipped > 0 {
		logging.Warn().
			Str("file", name).
			Int("features", skipped).
			Msg("Features without properties passed through unmodified")
	}

	return c, nil
}

// Features returns the features in document order.
// The returned slice must not be modified.
func (c *Collection) Features() []Feature {
	return c.features
}

// Len returns the number of features.
func (c *Collection) Len() int {
	return len(c.features)
}

// Path returns the source path or name given at parse time.
func (c *Collection) Path() string {
	return c.path
}

// SetSource sets (or overwrites) properties.source on feature i,
// leaving the rest of the document untouched.
func (c *Collection) SetSource(i int, link string) error {
	if i < 0 || i >= len(c.features) {
		return errors.NewValidationError("feature", i, "index out of range")
	}

	raw, err := sjson.SetBytes(c.raw, fmt.Sprintf("features.%d.properties.source", i), link)
	if err != nil {
		return errors.WrapValidation("source", err)
	}
	c.raw = raw
	return nil
}

// Source returns the current properties.source value of feature i,
// empty when unset.
func (c *Collection) Source(i int) string {
	return gjson.GetBytes(c.raw, fmt.Sprintf("features.%d.properties.source", i)).String()
}

// Bytes returns the current document bytes, including any annotations
// applied so far.
func (c *Collection) Bytes() []byte {
	return c.raw
}

// Write writes the annotated document to path.
func (c *Collection) Write(path string) error {
	if err := os.WriteFile(path, c.raw, 0o644); err != nil {
		return errors.WrapIO("write", path, err)
	}
	return nil
}
