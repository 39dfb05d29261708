package reconcile_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riverlabs/gaugelink/pkg/geojson"
	"github.com/riverlabs/gaugelink/pkg/linktable"
	"github.com/riverlabs/gaugelink/pkg/logging"
	"github.com/riverlabs/gaugelink/pkg/reconcile"
)

// buildCollection assembles a feature collection from (id, name)
// property pairs. A nil pair produces a feature with null properties.
func buildCollection(t *testing.T, props []map[string]any) *geojson.Collection {
	t.Helper()

	type feature struct {
		Type       string         `json:"type"`
		Properties map[string]any `json:"properties"`
	}
	doc := struct {
		Type     string    `json:"type"`
		Features []feature `json:"features"`
	}{Type: "FeatureCollection"}

	for _, p := range props {
		doc.Features = append(doc.Features, feature{Type: "Feature", Properties: p})
	}

	data, err := json.Marshal(doc)
	require.NoError(t, err)

	c, err := geojson.Parse(data, "test.geojson")
	require.NoError(t, err)
	return c
}

func buildIndex(t *testing.T, rows ...[3]string) *linktable.Index {
	t.Helper()

	var b strings.Builder
	b.WriteString("name,id,link\n")
	w := func(s string) string {
		if strings.ContainsAny(s, ",\"") {
			return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
		}
		return s
	}
	for _, r := range rows {
		b.WriteString(w(r[0]) + "," + w(r[1]) + "," + w(r[2]) + "\n")
	}

	idx, err := linktable.Read(strings.NewReader(b.String()), "test.csv")
	require.NoError(t, err)
	return idx
}

func newEngine(t *testing.T, opts ...reconcile.Option) *reconcile.Engine {
	t.Helper()
	opts = append(opts, reconcile.WithLogger(&logging.Nop))
	e, err := reconcile.New(opts...)
	require.NoError(t, err)
	return e
}

func TestExactIDMatch(t *testing.T) {
	idx := buildIndex(t,
		[3]string{"Avoca River at Charlton", "101", "http://x/1"},
		[3]string{"Avoca River at Quambatook", "102", "http://x/2"},
	)
	coll := buildCollection(t, []map[string]any{
		{"id": "101", "name": "Charlton gauge"},
	})

	res, err := newEngine(t).Reconcile(coll, idx)
	require.NoError(t, err)

	require.Len(t, res.Records, 1)
	rec := res.Records[0]
	assert.Equal(t, reconcile.TierExactID, rec.Tier)
	assert.Equal(t, "101", rec.RowID)
	assert.Equal(t, "http://x/1", rec.RowLink)
	assert.Equal(t, "http://x/1", coll.Source(0))
}

func TestPartialIDMatch(t *testing.T) {
	idx := buildIndex(t,
		[3]string{"Avoca River at Charlton", "101", "http://x/1"},
		[3]string{"Avoca River at Quambatook", "102", "http://x/2"},
	)
	coll := buildCollection(t, []map[string]any{
		{"id": "101-extra", "name": "Charlton gauge"},
	})

	res, err := newEngine(t).Reconcile(coll, idx)
	require.NoError(t, err)

	require.Len(t, res.Records, 1)
	rec := res.Records[0]
	assert.Equal(t, reconcile.TierPartialID, rec.Tier)
	assert.Equal(t, 0, rec.RowIndex)
	assert.Equal(t, "http://x/1", coll.Source(0))
}

func TestFuzzyNameMatch(t *testing.T) {
	idx := buildIndex(t,
		[3]string{"AVOCA RIVER AT D/S CHARLTON", "201", "http://x/9"},
		[3]string{"CAMPASPE RIVER AT ROCHESTER", "202", "http://x/10"},
	)
	coll := buildCollection(t, []map[string]any{
		{"id": "nope", "name": "AVOCA RIVER AT CHARLTON TOWN"},
	})

	res, err := newEngine(t).Reconcile(coll, idx)
	require.NoError(t, err)

	require.Len(t, res.Records, 1)
	rec := res.Records[0]
	assert.Equal(t, reconcile.TierFuzzyName, rec.Tier)
	assert.Equal(t, "201", rec.RowID)
	assert.GreaterOrEqual(t, rec.Score, 0.4)
	assert.Equal(t, "http://x/9", coll.Source(0))
}

func TestCascadePriority(t *testing.T) {
	// The feature id exactly matches row 1 and also contains row 0's
	// id as a substring; the exact tier must win.
	idx := buildIndex(t,
		[3]string{"short id row", "10", "http://x/1"},
		[3]string{"exact row", "105", "http://x/2"},
	)
	coll := buildCollection(t, []map[string]any{
		{"id": "105", "name": "gauge"},
	})

	res, err := newEngine(t).Reconcile(coll, idx)
	require.NoError(t, err)

	rec := res.Records[0]
	assert.Equal(t, reconcile.TierExactID, rec.Tier)
	assert.Equal(t, "105", rec.RowID)
}

func TestCascadeIsGlobalPhase(t *testing.T) {
	// Feature 0 can only fuzzy-match row 0. Feature 1 appears later
	// in the collection but exact-matches row 0, so it must consume
	// the row during tier 1 before any fuzzy pass runs.
	idx := buildIndex(t,
		[3]string{"Avoca River at Charlton", "101", "http://x/1"},
		[3]string{"Loddon River at Kerang", "102", "http://x/2"},
	)
	coll := buildCollection(t, []map[string]any{
		{"id": "zzz", "name": "Avoca River at Charlton"},
		{"id": "101", "name": "unrelated"},
	})

	res, err := newEngine(t).Reconcile(coll, idx)
	require.NoError(t, err)

	byIndex := make(map[int]reconcile.MatchRecord)
	for _, rec := range res.Records {
		byIndex[rec.FeatureIndex] = rec
	}

	assert.Equal(t, reconcile.TierExactID, byIndex[1].Tier)
	assert.Equal(t, 0, byIndex[1].RowIndex)

	// Feature 0 falls through to fuzzy against the remaining row.
	assert.NotEqual(t, 0, byIndex[0].RowIndex)
}

func TestUniquenessInvariant(t *testing.T) {
	idx := buildIndex(t,
		[3]string{"Avoca River at Charlton", "101", "http://x/1"},
		[3]string{"Avoca River at Quambatook", "102", "http://x/2"},
	)
	// Both features exact-match row 0's id; only the first can have it.
	coll := buildCollection(t, []map[string]any{
		{"id": "101", "name": "Avoca River at Charlton"},
		{"id": "101", "name": "Avoca River at Charlton again"},
	})

	res, err := newEngine(t).Reconcile(coll, idx)
	require.NoError(t, err)

	seen := make(map[int]int)
	for _, rec := range res.Records {
		if rec.RowIndex >= 0 {
			seen[rec.RowIndex]++
		}
	}
	for row, n := range seen {
		assert.Equal(t, 1, n, "row %d assigned to more than one feature", row)
	}

	byIndex := make(map[int]reconcile.MatchRecord)
	for _, rec := range res.Records {
		byIndex[rec.FeatureIndex] = rec
	}
	assert.Equal(t, reconcile.TierExactID, byIndex[0].Tier)
	// The second feature cascades past the consumed row and must
	// never be assigned row 0 again.
	assert.NotEqual(t, 0, byIndex[1].RowIndex)
}

func TestPartialIDFirstRowOrderWins(t *testing.T) {
	// Both row ids are substrings of the feature id; the earlier row
	// wins regardless of match length.
	idx := buildIndex(t,
		[3]string{"row a", "40", "http://x/1"},
		[3]string{"row b", "404", "http://x/2"},
	)
	coll := buildCollection(t, []map[string]any{
		{"id": "40400", "name": "gauge"},
	})

	res, err := newEngine(t).Reconcile(coll, idx)
	require.NoError(t, err)

	rec := res.Records[0]
	assert.Equal(t, reconcile.TierPartialID, rec.Tier)
	assert.Equal(t, 0, rec.RowIndex)
}

func TestThresholdBoundary(t *testing.T) {
	// score("abcde", "abxyz") is exactly 0.4: accepted at the default
	// threshold.
	idx := buildIndex(t, [3]string{"abxyz", "900", "http://x/1"})
	coll := buildCollection(t, []map[string]any{
		{"name": "abcde"},
	})

	res, err := newEngine(t).Reconcile(coll, idx)
	require.NoError(t, err)

	rec := res.Records[0]
	require.Equal(t, reconcile.TierFuzzyName, rec.Tier)
	assert.InDelta(t, 0.4, rec.Score, 1e-9)
}

func TestBelowThresholdUnmatched(t *testing.T) {
	// score("abcdefgh", "abc") is 0.375, under the default threshold.
	idx := buildIndex(t, [3]string{"abc", "900", "http://x/1"})
	coll := buildCollection(t, []map[string]any{
		{"name": "abcdefgh"},
	})

	res, err := newEngine(t).Reconcile(coll, idx)
	require.NoError(t, err)

	rec := res.Records[0]
	assert.Equal(t, reconcile.TierUnmatched, rec.Tier)
	assert.Equal(t, -1, rec.RowIndex)
	assert.Equal(t, "", coll.Source(0))
}

func TestWithThreshold(t *testing.T) {
	idx := buildIndex(t, [3]string{"abc", "900", "http://x/1"})
	coll := buildCollection(t, []map[string]any{
		{"name": "abcdefgh"}, // scores 0.375
	})

	res, err := newEngine(t, reconcile.WithThreshold(0.3)).Reconcile(coll, idx)
	require.NoError(t, err)
	assert.Equal(t, reconcile.TierFuzzyName, res.Records[0].Tier)

	_, err = reconcile.New(reconcile.WithThreshold(1.5))
	assert.Error(t, err)
}

func TestFeatureWithoutIDStillFuzzyEligible(t *testing.T) {
	idx := buildIndex(t, [3]string{"Avoca River at Charlton", "101", "http://x/1"})
	coll := buildCollection(t, []map[string]any{
		{"name": "Avoca River at Charlton"},
	})

	res, err := newEngine(t).Reconcile(coll, idx)
	require.NoError(t, err)

	rec := res.Records[0]
	assert.Equal(t, reconcile.TierFuzzyName, rec.Tier)
	assert.Equal(t, "", rec.FeatureID)
	assert.Equal(t, 1.0, rec.Score)
}

func TestFeatureWithoutIDOrNameAlwaysUnmatched(t *testing.T) {
	// Even a row with an empty name must not pair with it.
	idx := buildIndex(t,
		[3]string{"", "101", "http://x/1"},
		[3]string{"Avoca River at Charlton", "102", "http://x/2"},
	)
	coll := buildCollection(t, []map[string]any{
		{"region": "north"},
	})

	res, err := newEngine(t).Reconcile(coll, idx)
	require.NoError(t, err)

	rec := res.Records[0]
	assert.Equal(t, reconcile.TierUnmatched, rec.Tier)
	assert.Equal(t, "", coll.Source(0))
}

func TestNullPropertiesSkipped(t *testing.T) {
	idx := buildIndex(t, [3]string{"Avoca River at Charlton", "101", "http://x/1"})
	coll := buildCollection(t, []map[string]any{
		nil,
		{"id": "101", "name": "Charlton"},
	})

	res, err := newEngine(t).Reconcile(coll, idx)
	require.NoError(t, err)

	// The skipped feature produces no record at all.
	require.Len(t, res.Records, 1)
	assert.Equal(t, 1, res.Records[0].FeatureIndex)
	assert.Equal(t, 1, res.Metadata.Skipped)
}

func TestNumericIDCoercion(t *testing.T) {
	idx := buildIndex(t, [3]string{"Avoca River at Charlton", "101", "http://x/1"})
	coll := buildCollection(t, []map[string]any{
		{"id": 101, "name": "Charlton"},
	})

	res, err := newEngine(t).Reconcile(coll, idx)
	require.NoError(t, err)
	assert.Equal(t, reconcile.TierExactID, res.Records[0].Tier)
}

func TestRecordsGroupedByTier(t *testing.T) {
	idx := buildIndex(t,
		[3]string{"Avoca River at Charlton", "101", "http://x/1"},
		[3]string{"Avoca River at Quambatook", "102", "http://x/2"},
		[3]string{"Loddon River at Kerang", "103", "http://x/3"},
	)
	coll := buildCollection(t, []map[string]any{
		{"id": "no-match-at-all", "name": "zzz qqq"},
		{"id": "102-suffix", "name": "Quambatook"},
		{"id": "101", "name": "Charlton"},
		{"name": "Loddon River at Kerang"},
	})

	res, err := newEngine(t).Reconcile(coll, idx)
	require.NoError(t, err)
	require.Len(t, res.Records, 4)

	tiers := make([]reconcile.Tier, 0, 4)
	for _, rec := range res.Records {
		tiers = append(tiers, rec.Tier)
	}
	assert.Equal(t, []reconcile.Tier{
		reconcile.TierExactID,
		reconcile.TierPartialID,
		reconcile.TierFuzzyName,
		reconcile.TierUnmatched,
	}, tiers)

	assert.Equal(t, 1, res.Count(reconcile.TierExactID))
	assert.Len(t, res.Matched(), 3)
	assert.Equal(t, 3, res.Used.Len())
	assert.Equal(t, 4, res.Metadata.Features)
	assert.Equal(t, 3, res.Metadata.Rows)
	assert.InDelta(t, reconcile.DefaultThreshold, res.Metadata.Threshold, 1e-9)
}
