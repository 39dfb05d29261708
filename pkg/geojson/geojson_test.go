package geojson_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/riverlabs/gaugelink/pkg/errors"
	"github.com/riverlabs/gaugelink/pkg/geojson"
)

const sampleDoc = `{
  "type": "FeatureCollection",
  "name": "river_gauges",
  "features": [
    {
      "type": "Feature",
      "properties": {"id": "101", "name": "Avoca River at Charlton", "region": "north"},
      "geometry": {"type": "Point", "coordinates": [143.35, -36.27]}
    },
    {
      "type": "Feature",
      "properties": {"id": 102, "name": null},
      "geometry": null
    },
    {
      "type": "Feature",
      "properties": null,
      "geometry": null
    }
  ]
}`

func TestParse(t *testing.T) {
	c, err := geojson.Parse([]byte(sampleDoc), "source.geojson")
	require.NoError(t, err)
	require.Equal(t, 3, c.Len())

	feats := c.Features()

	assert.True(t, feats[0].HasProperties)
	assert.True(t, feats[0].HasID)
	assert.Equal(t, "101", feats[0].ID)
	assert.Equal(t, "Avoca River at Charlton", feats[0].Name)

	// Numeric ids are string-coerced; null names come back empty.
	assert.True(t, feats[1].HasID)
	assert.Equal(t, "102", feats[1].ID)
	assert.Equal(t, "", feats[1].Name)

	// Null properties pass through unmatched and unmodified.
	assert.False(t, feats[2].HasProperties)
	assert.False(t, feats[2].HasID)
}

func TestParseMalformed(t *testing.T) {
	t.Run("invalid JSON", func(t *testing.T) {
		_, err := geojson.Parse([]byte("{not json"), "source.geojson")
		require.Error(t, err)
		assert.True(t, errors.IsMalformedInput(err))
		assert.Contains(t, err.Error(), "source.geojson")
	})

	t.Run("no features array", func(t *testing.T) {
		_, err := geojson.Parse([]byte(`{"type": "FeatureCollection"}`), "source.geojson")
		require.Error(t, err)
		assert.True(t, errors.IsMalformedInput(err))
	})

	t.Run("features not an array", func(t *testing.T) {
		_, err := geojson.Parse([]byte(`{"features": "nope"}`), "source.geojson")
		require.Error(t, err)
		assert.True(t, errors.IsMalformedInput(err))
	})
}

func TestSetSource(t *testing.T) {
	c, err := geojson.Parse([]byte(sampleDoc), "source.geojson")
	require.NoError(t, err)

	require.NoError(t, c.SetSource(0, "http://x/1"))
	assert.Equal(t, "http://x/1", c.Source(0))
	assert.Equal(t, "", c.Source(1))

	out := c.Bytes()

	// Untouched parts of the document survive verbatim, field order
	// included.
	assert.Contains(t, string(out), `"id": "101", "name": "Avoca River at Charlton", "region": "north"`)
	assert.Contains(t, string(out), `"name": "river_gauges"`)

	// Only the annotated feature gained a source property.
	assert.Equal(t, "http://x/1", gjson.GetBytes(out, "features.0.properties.source").String())
	assert.False(t, gjson.GetBytes(out, "features.1.properties.source").Exists())
}

func TestSetSourceOverwrites(t *testing.T) {
	doc := `{"features":[{"properties":{"id":"1","source":"old"}}]}`
	c, err := geojson.Parse([]byte(doc), "source.geojson")
	require.NoError(t, err)

	require.NoError(t, c.SetSource(0, "http://x/new"))
	assert.Equal(t, "http://x/new", c.Source(0))
	assert.False(t, strings.Contains(string(c.Bytes()), "old"))
}

func TestSetSourceOutOfRange(t *testing.T) {
	c, err := geojson.Parse([]byte(sampleDoc), "source.geojson")
	require.NoError(t, err)
	assert.Error(t, c.SetSource(99, "http://x/1"))
	assert.Error(t, c.SetSource(-1, "http://x/1"))
}
