package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entry(m *CoverageMap, key string) CoverageEntry {
	e, _ := m.Get(key)
	return e
}

func TestNormalizeCoverageMap_EquivalentEntryShapes(t *testing.T) {
	shapes := []string{
		`{"ibuprofen 200mg": 100}`,
		`{"ibuprofen 200mg": {"type": "covered"}}`,
		`{"ibuprofen 200mg": {"type": "percent", "percent": 100}}`,
	}

	for _, raw := range shapes {
		m := NormalizeCoverageMap(json.RawMessage(raw))
		require.Equal(t, 1, m.Len(), "shape: %s", raw)

		e := entry(m, "ibuprofen 200mg")
		assert.Equal(t, CoverageCovered, e.Type, "shape: %s", raw)
		assert.Nil(t, e.Percent, "shape: %s", raw)
	}
}

func TestNormalizeCoverageMap_ObjectShapePreservesOrder(t *testing.T) {
	raw := `{"zidovudine": 50, "amlodipine": {"type": "covered"}, "metformin": {"type": "not_covered"}}`
	m := NormalizeCoverageMap(json.RawMessage(raw))

	assert.Equal(t, []string{"zidovudine", "amlodipine", "metformin"}, m.Keys())
}

func TestNormalizeCoverageMap_ArrayShape(t *testing.T) {
	raw := `[{"ibuprofen": {"type": "percent", "percent": 50}}, {"paracetamol": 100}]`
	m := NormalizeCoverageMap(json.RawMessage(raw))

	require.Equal(t, 2, m.Len())
	assert.Equal(t, CoveragePercent, entry(m, "ibuprofen").Type)
	assert.Equal(t, 50.0, *entry(m, "ibuprofen").Percent)
	assert.Equal(t, CoverageCovered, entry(m, "paracetamol").Type)
}

func TestNormalizeCoverageMap_MalformedInput(t *testing.T) {
	for _, raw := range []string{``, `42`, `"covered"`, `null`, `{invalid`} {
		m := NormalizeCoverageMap(json.RawMessage(raw))
		assert.Equal(t, 0, m.Len(), "input: %q", raw)
	}
}

func TestNormalizeCoverageMap_KeyNormalization(t *testing.T) {
	raw := `{"  Ibu  Profen 200MG ": 30, "ibu profen 200mg": 60}`
	m := NormalizeCoverageMap(json.RawMessage(raw))

	// Same canonical key: last write wins, first-seen position kept.
	require.Equal(t, []string{"ibu profen 200mg"}, m.Keys())
	assert.Equal(t, 60.0, *entry(m, "ibu profen 200mg").Percent)
}

func TestNormalizeCoverageEntry_PercentClampAndStringNumbers(t *testing.T) {
	m := NormalizeCoverageMap(json.RawMessage(`{
		"a": {"type": "percent", "percent": -5},
		"b": {"type": "percent", "percent": 150},
		"c": {"type": "percent", "percent": "75", "copay": "12.5"},
		"d": {"type": "percent"},
		"e": {"type": "PARTIAL"}
	}`))

	assert.Equal(t, 0.0, *entry(m, "a").Percent)
	assert.Equal(t, CoverageCovered, entry(m, "b").Type, "clamped 100 promotes to covered")
	assert.Equal(t, 75.0, *entry(m, "c").Percent)
	assert.Equal(t, 12.5, *entry(m, "c").Copay)
	assert.Equal(t, 0.0, *entry(m, "d").Percent, "absent percent reads as 0")
	assert.Equal(t, CoverageNotCovered, entry(m, "e").Type, "unknown type degrades to not_covered")
}

func TestCoverageEntryEqual(t *testing.T) {
	fifty := 50.0
	ten := 10.0
	zero := 0.0

	assert.True(t, CoverageEntry{Type: CoverageCovered}.Equal(CoverageEntry{Type: CoverageCovered, Copay: &ten}),
		"copay does not participate for covered entries")
	assert.True(t, CoverageEntry{Type: CoveragePercent, Percent: &fifty}.Equal(
		CoverageEntry{Type: CoveragePercent, Percent: &fifty, Copay: &zero}),
		"nil copay equals explicit zero")
	assert.False(t, CoverageEntry{Type: CoveragePercent, Percent: &fifty}.Equal(
		CoverageEntry{Type: CoveragePercent, Percent: &fifty, Copay: &ten}))
	assert.False(t, CoverageEntry{Type: CoverageCovered}.Equal(CoverageEntry{Type: CoverageNotCovered}))
}

func TestDiffCoverageMaps_Reflexive(t *testing.T) {
	raw := json.RawMessage(`{"a": 100, "b": {"type": "percent", "percent": 40}}`)
	diff := DiffCoverageMaps(raw, raw)

	assert.Empty(t, diff.ChangedMedications)
	assert.Empty(t, diff.Details)
}

func TestDiffCoverageMaps_EquivalentShapesDiffAsEqual(t *testing.T) {
	oldRaw := json.RawMessage(`{"ibuprofen": 100}`)
	newRaw := json.RawMessage(`{"ibuprofen": {"type": "covered"}}`)

	diff := DiffCoverageMaps(oldRaw, newRaw)
	assert.Empty(t, diff.ChangedMedications)
}

func TestDiffCoverageMaps_OrderingContract(t *testing.T) {
	oldRaw := json.RawMessage(`{"alpha": 100, "bravo": 50, "charlie": {"type": "not_covered"}}`)
	newRaw := json.RawMessage(`{"delta": 100, "bravo": 60, "alpha": 100, "echo": 10}`)

	diff := DiffCoverageMaps(oldRaw, newRaw)

	// Old-map keys first in source order, then new-only keys in source order.
	assert.Equal(t, []string{"bravo", "charlie", "delta", "echo"}, diff.ChangedMedications)

	bravo := diff.Details["bravo"]
	require.NotNil(t, bravo.Old)
	require.NotNil(t, bravo.Next)
	assert.Equal(t, 50.0, *bravo.Old.Percent)
	assert.Equal(t, 60.0, *bravo.Next.Percent)

	charlie := diff.Details["charlie"]
	require.NotNil(t, charlie.Old)
	assert.Nil(t, charlie.Next, "removed medication has no next entry")

	delta := diff.Details["delta"]
	assert.Nil(t, delta.Old, "added medication has no old entry")
	require.NotNil(t, delta.Next)
	assert.Equal(t, CoverageCovered, delta.Next.Type)
}

func TestCoverageMapMarshalJSON_RoundTripsInOrder(t *testing.T) {
	raw := json.RawMessage(`{"zeta": 25, "alpha": {"type": "covered", "copay": 5}}`)
	m := NormalizeCoverageMap(raw)

	encoded, err := json.Marshal(m)
	require.NoError(t, err)

	again := NormalizeCoverageMap(encoded)
	assert.Equal(t, m.Keys(), again.Keys())
	assert.True(t, entry(m, "zeta").Equal(entry(again, "zeta")))
	assert.True(t, entry(m, "alpha").Equal(entry(again, "alpha")))
}
