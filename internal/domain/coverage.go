package domain

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// CoverageType classifies how a policy pays for one medication.
type CoverageType string

const (
	CoverageCovered    CoverageType = "covered"
	CoveragePercent    CoverageType = "percent"
	CoverageNotCovered CoverageType = "not_covered"
)

// CoverageEntry is the canonical representation of one medication's coverage
// rule. Percent is nil unless Type is "percent"; Copay is nil when the policy
// document carries none.
type CoverageEntry struct {
	Type    CoverageType `json:"type"`
	Percent *float64     `json:"percent,omitempty"`
	Copay   *float64     `json:"copay,omitempty"`
}

// CoverageMap maps normalized medication names to canonical entries while
// preserving the key order of the source document. Go maps do not keep
// insertion order, and diff output ordering is part of the contract with
// downstream consumers, so the keys ride alongside.
type CoverageMap struct {
	keys    []string
	entries map[string]CoverageEntry
}

// NewCoverageMap returns an empty coverage map.
func NewCoverageMap() *CoverageMap {
	return &CoverageMap{entries: make(map[string]CoverageEntry)}
}

// Set inserts or overwrites an entry under the normalized medication name.
// Later writes win; the first-seen position is kept.
func (m *CoverageMap) Set(name string, entry CoverageEntry) {
	key := NormalizeMedName(name)
	if key == "" {
		return
	}
	if _, exists := m.entries[key]; !exists {
		m.keys = append(m.keys, key)
	}
	m.entries[key] = entry
}

// Get returns the entry for a medication name (normalized before lookup).
func (m *CoverageMap) Get(name string) (CoverageEntry, bool) {
	entry, ok := m.entries[NormalizeMedName(name)]
	return entry, ok
}

// Keys returns the medication names in source order.
func (m *CoverageMap) Keys() []string {
	return m.keys
}

// Len returns the number of medications in the map.
func (m *CoverageMap) Len() int {
	return len(m.keys)
}

// MarshalJSON writes the map as a JSON object in source key order.
func (m *CoverageMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		keyJSON, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		buf.Write(keyJSON)
		buf.WriteByte(':')
		entryJSON, err := json.Marshal(m.entries[key])
		if err != nil {
			return nil, err
		}
		buf.Write(entryJSON)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// NormalizeMedName lower-cases, trims and collapses internal whitespace so
// that policy coverage keys and user medication lists join consistently.
func NormalizeMedName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

// NormalizeCoverageMap converts any of the historical coverage-map shapes to
// the canonical form. Accepted map shapes: a JSON object keyed by medication
// name, or an array of single-key objects. Accepted entry shapes: a plain
// number (percent covered), or a typed record {type, percent, copay}.
// Normalization is total: malformed input yields an empty map, malformed
// entries become not_covered.
func NormalizeCoverageMap(raw json.RawMessage) *CoverageMap {
	out := NewCoverageMap()
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return out
	}

	switch trimmed[0] {
	case '{':
		decodeObjectShape(trimmed, out)
	case '[':
		decodeArrayShape(trimmed, out)
	}
	return out
}

// decodeObjectShape walks the object with a token decoder so that source key
// order survives into the normalized map.
func decodeObjectShape(raw []byte, out *CoverageMap) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	if _, err := dec.Token(); err != nil { // opening brace
		return
	}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return
		}
		key, ok := keyTok.(string)
		if !ok {
			return
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return
		}
		out.Set(key, NormalizeCoverageEntry(value))
	}
}

func decodeArrayShape(raw []byte, out *CoverageMap) {
	var items []map[string]json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return
	}
	for _, item := range items {
		// Historical shape: one medication per element.
		for key, value := range item {
			out.Set(key, NormalizeCoverageEntry(value))
		}
	}
}

// rawEntry is the typed-record historical shape. Percent arrives as a number
// or a numeric string depending on which ingestion path wrote the policy.
type rawEntry struct {
	Type    string          `json:"type"`
	Percent json.RawMessage `json:"percent"`
	Copay   json.RawMessage `json:"copay"`
}

// NormalizeCoverageEntry converts one raw entry value to canonical form.
// A full (100%) percent entry and a plain number 100 both normalize to
// "covered" so semantically equivalent shapes diff as equal.
func NormalizeCoverageEntry(raw json.RawMessage) CoverageEntry {
	notCovered := CoverageEntry{Type: CoverageNotCovered}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return notCovered
	}

	if n, ok := parseJSONNumber(trimmed); ok {
		return percentEntry(clampPercent(n), nil)
	}

	if trimmed[0] != '{' {
		return notCovered
	}

	var entry rawEntry
	if err := json.Unmarshal(trimmed, &entry); err != nil {
		return notCovered
	}

	copay := parseOptionalNumber(entry.Copay)
	switch CoverageType(strings.ToLower(strings.TrimSpace(entry.Type))) {
	case CoverageCovered:
		return CoverageEntry{Type: CoverageCovered, Copay: copay}
	case CoveragePercent:
		percent := 0.0 // absent percent reads as 0
		if p := parseOptionalNumber(entry.Percent); p != nil {
			percent = clampPercent(*p)
		}
		return percentEntry(percent, copay)
	case CoverageNotCovered:
		return notCovered
	default:
		return notCovered
	}
}

func percentEntry(percent float64, copay *float64) CoverageEntry {
	if percent >= 100 {
		return CoverageEntry{Type: CoverageCovered, Copay: copay}
	}
	return CoverageEntry{Type: CoveragePercent, Percent: &percent, Copay: copay}
}

func clampPercent(n float64) float64 {
	if n < 0 {
		return 0
	}
	if n > 100 {
		return 100
	}
	return n
}

func parseJSONNumber(raw []byte) (float64, bool) {
	var n float64
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, false
	}
	return n, true
}

// parseOptionalNumber accepts a JSON number or a numeric string, returning
// nil for anything else.
func parseOptionalNumber(raw json.RawMessage) *float64 {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	if n, ok := parseJSONNumber(trimmed); ok {
		return &n
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err != nil {
		return nil
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil
	}
	return &n
}

// Equal reports whether two canonical entries mean the same coverage:
// matching type, and for percent entries matching percent and copay.
func (e CoverageEntry) Equal(other CoverageEntry) bool {
	if e.Type != other.Type {
		return false
	}
	if e.Type == CoveragePercent {
		if !floatPtrEqual(e.Percent, other.Percent) {
			return false
		}
		if !floatPtrEqual(e.Copay, other.Copay) {
			return false
		}
	}
	return true
}

func floatPtrEqual(a, b *float64) bool {
	av, bv := 0.0, 0.0
	if a != nil {
		av = *a
	}
	if b != nil {
		bv = *b
	}
	return av == bv
}

// ChangeDetail is the before/after pair for one changed medication. A nil
// side means the medication only exists in the other map.
type ChangeDetail struct {
	Old  *CoverageEntry `json:"old"`
	Next *CoverageEntry `json:"next"`
}

// CoverageDiff is the semantic set of changed medications between two
// coverage maps.
type CoverageDiff struct {
	ChangedMedications []string                `json:"changedMedications"`
	Details            map[string]ChangeDetail `json:"details"`
}

// DiffCoverageMaps normalizes both raw maps and collects every medication
// whose canonical entry differs, or which exists on only one side.
// ChangedMedications is ordered: keys of the old map in source order first,
// then keys that exist only in the new map, also in source order. Downstream
// consumers display changes in this order, so it is part of the contract.
func DiffCoverageMaps(oldRaw, newRaw json.RawMessage) CoverageDiff {
	return DiffNormalizedMaps(NormalizeCoverageMap(oldRaw), NormalizeCoverageMap(newRaw))
}

// DiffNormalizedMaps is the already-normalized variant of DiffCoverageMaps.
func DiffNormalizedMaps(oldMap, newMap *CoverageMap) CoverageDiff {
	diff := CoverageDiff{
		ChangedMedications: []string{},
		Details:            make(map[string]ChangeDetail),
	}

	for _, med := range oldMap.Keys() {
		was, _ := oldMap.Get(med)
		now, inNew := newMap.Get(med)
		if !inNew {
			entry := was
			diff.ChangedMedications = append(diff.ChangedMedications, med)
			diff.Details[med] = ChangeDetail{Old: &entry}
			continue
		}
		if !was.Equal(now) {
			wasCopy, nowCopy := was, now
			diff.ChangedMedications = append(diff.ChangedMedications, med)
			diff.Details[med] = ChangeDetail{Old: &wasCopy, Next: &nowCopy}
		}
	}

	for _, med := range newMap.Keys() {
		if _, inOld := oldMap.Get(med); inOld {
			continue
		}
		now, _ := newMap.Get(med)
		entry := now
		diff.ChangedMedications = append(diff.ChangedMedications, med)
		diff.Details[med] = ChangeDetail{Next: &entry}
	}

	return diff
}
