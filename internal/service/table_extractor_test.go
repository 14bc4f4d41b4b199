package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"policy-pulse-server/internal/domain"
)

const samplePolicyText = `ACME Health Insurance
Policy Overview

Simplified Medication Coverage Map

Medication          Coverage Type   Percent   Copay (USD)
ibuprofen 200mg     covered
paracetamol 500mg   percent         80        2
insulin glargine    percent         50
naproxen 250mg      not_covered

<<< Page 2 >>>

Illustrative Out-of-Pocket (OOP) Examples

Medication          Retail Price (USD)   Coverage Rule     Estimated Patient Pays (USD)
ibuprofen 200mg     $12.50               covered           $0.00
paracetamol 500mg   $8.00                80% + $2 copay    $3.60
naproxen 250mg      $1,150.00            none              $1,150.00

Notes
Prices are illustrative only.`

func TestExtractCoverageBlock(t *testing.T) {
	block := ExtractCoverageBlock(samplePolicyText)
	assert.Contains(t, block, "ibuprofen 200mg")
	assert.Contains(t, block, "naproxen 250mg")
	assert.NotContains(t, block, "Retail Price")
	assert.NotContains(t, block, "ACME Health")
}

func TestExtractOOPBlock(t *testing.T) {
	block := ExtractOOPBlock(samplePolicyText)
	assert.Contains(t, block, "$12.50")
	assert.NotContains(t, block, "Prices are illustrative")
	assert.NotContains(t, block, "Coverage Map")
}

func TestExtractBlocks_MissingSentinelsYieldEmpty(t *testing.T) {
	assert.Equal(t, "", ExtractCoverageBlock("no tables here"))
	assert.Equal(t, "", ExtractOOPBlock("no tables here"))
}

func TestParseCoverageTable(t *testing.T) {
	rows := ParseCoverageTable(ExtractCoverageBlock(samplePolicyText))
	require.Len(t, rows, 4)

	assert.Equal(t, "ibuprofen 200mg", rows[0].Medication)
	assert.Equal(t, "covered", rows[0].CoverageType)

	assert.Equal(t, "percent", rows[1].CoverageType)
	require.NotNil(t, rows[1].Percent)
	assert.Equal(t, 80.0, *rows[1].Percent)
	require.NotNil(t, rows[1].Copay)
	assert.Equal(t, 2.0, *rows[1].Copay)

	require.NotNil(t, rows[2].Percent)
	assert.Equal(t, 50.0, *rows[2].Percent)
	assert.Nil(t, rows[2].Copay)

	assert.Equal(t, "not_covered", rows[3].CoverageType)
}

func TestParseCoverageTable_GluedColumnsFallBackToKeyword(t *testing.T) {
	block := "Medication Coverage Type\nparacetamol 500mg percent 100 2.5\nibuprofen not_covered"
	rows := ParseCoverageTable(block)
	require.Len(t, rows, 2)

	assert.Equal(t, "paracetamol 500mg", rows[0].Medication)
	assert.Equal(t, "percent", rows[0].CoverageType)
	require.NotNil(t, rows[0].Percent)
	assert.Equal(t, 100.0, *rows[0].Percent)
	require.NotNil(t, rows[0].Copay)
	assert.Equal(t, 2.5, *rows[0].Copay)

	assert.Equal(t, "ibuprofen", rows[1].Medication)
	assert.Equal(t, "not_covered", rows[1].CoverageType)
}

func TestParseCoverageTable_SkipsUnparsableLines(t *testing.T) {
	block := "some prose with no keywords\nibuprofen  covered"
	rows := ParseCoverageTable(block)
	require.Len(t, rows, 1)
	assert.Equal(t, "ibuprofen", rows[0].Medication)
}

func TestParseOOPTable(t *testing.T) {
	rows := ParseOOPTable(ExtractOOPBlock(samplePolicyText))
	require.Len(t, rows, 3)

	assert.Equal(t, "ibuprofen 200mg", rows[0].Medication)
	require.NotNil(t, rows[0].RetailPrice)
	assert.Equal(t, 12.5, *rows[0].RetailPrice)
	assert.Equal(t, "covered", rows[0].CoverageRule)
	require.NotNil(t, rows[0].PatientPays)
	assert.Equal(t, 0.0, *rows[0].PatientPays)

	// Thousands separators are tolerated.
	require.NotNil(t, rows[2].RetailPrice)
	assert.Equal(t, 1150.0, *rows[2].RetailPrice)
}

func TestParseMoney(t *testing.T) {
	cases := map[string]*float64{
		"$12.50":    ptr(12.5),
		"1,150.00":  ptr(1150.0),
		"$ 3":       ptr(3.0),
		"free":      nil,
		"":          nil,
		"$1,234.56": ptr(1234.56),
	}
	for in, want := range cases {
		got := parseMoney(in)
		if want == nil {
			assert.Nil(t, got, "input %q", in)
		} else {
			require.NotNil(t, got, "input %q", in)
			assert.Equal(t, *want, *got, "input %q", in)
		}
	}
}

func ptr(f float64) *float64 { return &f }

func TestDiffCoverageRows(t *testing.T) {
	oldRows := []domain.CoverageRow{
		{Medication: "Ibuprofen", CoverageType: "covered"},
		{Medication: "paracetamol", CoverageType: "percent", Percent: ptr(80), Copay: ptr(2)},
		{Medication: "naproxen", CoverageType: "not_covered"},
	}
	newRows := []domain.CoverageRow{
		{Medication: "ibuprofen", CoverageType: "covered"},
		{Medication: "paracetamol", CoverageType: "percent", Percent: ptr(60), Copay: ptr(2)},
		{Medication: "metformin", CoverageType: "covered"},
	}

	diff := DiffCoverageRows(oldRows, newRows)

	assert.Equal(t, domain.SectionCoverage, diff.Section)
	assert.Equal(t, 3, diff.OldCount)
	assert.Equal(t, 3, diff.NewCount)
	require.Len(t, diff.Added, 1)
	require.Len(t, diff.Removed, 1)
	require.Len(t, diff.Changed, 1)

	change := diff.Changed[0]
	assert.Equal(t, "paracetamol", change.Medication)
	// Only the differing field appears.
	require.Len(t, change.Changes, 1)
	pair, ok := change.Changes["percent"]
	require.True(t, ok)
	assert.Equal(t, 80.0, pair[0])
	assert.Equal(t, 60.0, pair[1])
}

func TestDiffOOPRows_NoChanges(t *testing.T) {
	rows := []domain.OOPRow{
		{Medication: "ibuprofen", RetailPrice: ptr(12.5), CoverageRule: "covered", PatientPays: ptr(0)},
	}

	diff := DiffOOPRows(rows, rows)
	assert.Empty(t, diff.Added)
	assert.Empty(t, diff.Removed)
	assert.Empty(t, diff.Changed)
}

func TestDiffOOPRows_FieldChanges(t *testing.T) {
	oldRows := []domain.OOPRow{
		{Medication: "naproxen", RetailPrice: ptr(1150), CoverageRule: "none", PatientPays: ptr(1150)},
	}
	newRows := []domain.OOPRow{
		{Medication: "naproxen", RetailPrice: ptr(1150), CoverageRule: "50%", PatientPays: ptr(575)},
	}

	diff := DiffOOPRows(oldRows, newRows)
	require.Len(t, diff.Changed, 1)
	assert.Len(t, diff.Changed[0].Changes, 2)
	rule := diff.Changed[0].Changes["coverageRule"]
	assert.Equal(t, "none", rule[0])
	assert.Equal(t, "50%", rule[1])
}
