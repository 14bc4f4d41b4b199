package service

import (
	"regexp"
	"strconv"
	"strings"

	"policy-pulse-server/internal/domain"
)

// Section sentinels as printed by the product's policy templates. Absence of
// a sentinel yields an empty block, never an error.
const (
	coverageHeading = "Simplified Medication Coverage Map"
	oopHeading      = "Illustrative Out-of-Pocket (OOP) Examples"
	oopBoundary     = "Illustrative Out-of-Pocket"
	notesHeading    = "Notes"
)

var (
	columnSplitRe   = regexp.MustCompile(`[ \t]{2,}`)
	coverageTypeRe  = regexp.MustCompile(`(?i)\b(covered|not_covered|percent)\b`)
	plainNumberRe   = regexp.MustCompile(`^\d+(\.\d+)?$`)
	moneyRe         = regexp.MustCompile(`\$?(-?\d+(\.\d+)?)`)
	coverageHeadRe  = regexp.MustCompile(`(?i)Medication`)
	coverageHead2Re = regexp.MustCompile(`(?i)Coverage\s*Type`)
	oopHeadRe       = regexp.MustCompile(`(?i)Retail Price`)
	oopHead2Re      = regexp.MustCompile(`(?i)Coverage Rule`)
	notesLineRe     = regexp.MustCompile(`(?i)^Notes$`)
	oopStartLineRe  = regexp.MustCompile(`(?i)^Illustrative Out-of-Pocket`)
)

// ExtractCoverageBlock slices the coverage-table text out of a full
// reconstructed document.
func ExtractCoverageBlock(fullText string) string {
	return sliceBetween(fullText, coverageHeading, oopBoundary)
}

// ExtractOOPBlock slices the out-of-pocket table text out of a full
// reconstructed document.
func ExtractOOPBlock(fullText string) string {
	return sliceBetween(fullText, oopHeading, notesHeading)
}

func sliceBetween(text, startMarker, endMarker string) string {
	start := strings.Index(text, startMarker)
	if start == -1 {
		return ""
	}
	rest := text[start+len(startMarker):]
	if end := strings.Index(rest, endMarker); end != -1 {
		rest = rest[:end]
	}
	return strings.TrimSpace(rest)
}

// tableLines drops blanks and page markers from a block.
func tableLines(block string) []string {
	var lines []string
	for _, l := range strings.Split(block, "\n") {
		l = strings.TrimSpace(l)
		if l == "" || IsPageMarker(l) {
			continue
		}
		lines = append(lines, l)
	}
	return lines
}

// splitColumns approximates table columns by splitting on runs of 2+
// spaces or tabs.
func splitColumns(line string) []string {
	var cols []string
	for _, c := range columnSplitRe.Split(strings.TrimSpace(line), -1) {
		c = strings.TrimSpace(c)
		if c != "" {
			cols = append(cols, c)
		}
	}
	return cols
}

// parseNumber reads a bare decimal, returning nil when the token is not one.
func parseNumber(s string) *float64 {
	if !plainNumberRe.MatchString(s) {
		return nil
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &n
}

// parseMoney reads an amount tolerating a leading $ and thousands
// separators. Unparsable input degrades to nil rather than failing the row.
func parseMoney(s string) *float64 {
	cleaned := strings.NewReplacer(",", "", " ", "").Replace(s)
	m := moneyRe.FindStringSubmatch(cleaned)
	if m == nil {
		return nil
	}
	n, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return nil
	}
	return &n
}

// ParseCoverageTable parses the coverage block into rows. Expected columns:
// Medication | Coverage Type | Percent | Copay (USD) | Notes. When the
// extractor glued a row into one column, a coverage-type keyword anchors the
// split between medication name and the rest.
func ParseCoverageTable(block string) []domain.CoverageRow {
	lines := tableLines(block)

	// Drop the header row when present.
	headerIdx := -1
	for i, l := range lines {
		if coverageHeadRe.MatchString(l) && coverageHead2Re.MatchString(l) {
			headerIdx = i
			break
		}
	}
	rows := lines
	if headerIdx >= 0 {
		rows = lines[headerIdx+1:]
	}

	var data []domain.CoverageRow
	for _, rawLine := range rows {
		// Stop if the next section header bled into this block.
		if oopStartLineRe.MatchString(rawLine) {
			break
		}

		cols := splitColumns(rawLine)
		if len(cols) == 1 {
			loc := coverageTypeRe.FindStringIndex(rawLine)
			if loc == nil {
				continue
			}
			med := strings.TrimSpace(rawLine[:loc[0]])
			rest := strings.Fields(rawLine[loc[0]:])
			cols = append([]string{med}, rest...)
		}
		if len(cols) == 0 {
			continue
		}

		row := domain.CoverageRow{Medication: cols[0]}
		coverageType := ""
		if len(cols) > 1 {
			coverageType = cols[1]
		}

		switch strings.ToLower(coverageType) {
		case "percent":
			row.CoverageType = "percent"
			if len(cols) > 2 {
				row.Percent = parseNumber(cols[2])
			}
			// Copay may follow as a bare number or as "copay <n>".
			if len(cols) > 3 {
				if n := parseNumber(cols[3]); n != nil {
					row.Copay = n
				} else if strings.EqualFold(cols[3], "copay") && len(cols) > 4 {
					row.Copay = parseNumber(cols[4])
				}
			}
		case "covered", "not_covered":
			row.CoverageType = strings.ToLower(coverageType)
		default:
			// The extractor sometimes glues the tail into the second column,
			// e.g. ["paracetamol 500mg", "percent 100 2.0"].
			parts := strings.Fields(coverageType)
			if len(parts) > 0 && strings.EqualFold(parts[0], "percent") {
				row.CoverageType = "percent"
				if len(parts) > 1 {
					row.Percent = parseNumber(parts[1])
				}
				if len(parts) > 2 {
					row.Copay = parseNumber(parts[2])
				}
			} else if len(parts) > 0 {
				row.CoverageType = strings.ToLower(parts[0])
			}
			for i := 2; i < len(cols); i++ {
				if row.Copay == nil && row.CoverageType != "percent" {
					row.Copay = parseNumber(cols[i])
				}
			}
		}

		if len(cols) >= 5 && row.Notes == "" {
			row.Notes = strings.Join(cols[4:], " ")
		}

		data = append(data, row)
	}
	return data
}

// ParseOOPTable parses the out-of-pocket block. Expected columns:
// Medication | Retail Price (USD) | Coverage Rule | Estimated Patient Pays (USD).
func ParseOOPTable(block string) []domain.OOPRow {
	lines := tableLines(block)

	headerIdx := -1
	for i, l := range lines {
		if coverageHeadRe.MatchString(l) && oopHeadRe.MatchString(l) && oopHead2Re.MatchString(l) {
			headerIdx = i
			break
		}
	}
	rows := lines
	if headerIdx >= 0 {
		rows = lines[headerIdx+1:]
	}

	var data []domain.OOPRow
	for _, rawLine := range rows {
		if notesLineRe.MatchString(rawLine) {
			break
		}

		cols := splitColumns(rawLine)
		if len(cols) < 3 {
			// Fallback: some layouts keep literal pipes between columns.
			cols = nil
			for _, c := range strings.Split(rawLine, "|") {
				c = strings.TrimSpace(c)
				if c != "" {
					cols = append(cols, c)
				}
			}
		}
		if len(cols) < 3 {
			continue
		}

		row := domain.OOPRow{
			Medication:   cols[0],
			RetailPrice:  parseMoney(cols[1]),
			CoverageRule: cols[2],
		}
		if len(cols) > 3 {
			row.PatientPays = parseMoney(cols[3])
		}
		data = append(data, row)
	}
	return data
}

// DiffCoverageRows keys rows by lower-cased medication name and reports
// added/removed rows plus per-field changes.
func DiffCoverageRows(oldRows, newRows []domain.CoverageRow) *domain.TableDiff {
	diff := &domain.TableDiff{
		Section:  domain.SectionCoverage,
		OldCount: len(oldRows),
		NewCount: len(newRows),
		Added:    []interface{}{},
		Removed:  []interface{}{},
		Changed:  []domain.RowChange{},
	}

	oldIdx := make(map[string]domain.CoverageRow, len(oldRows))
	oldOrder := make([]string, 0, len(oldRows))
	for _, r := range oldRows {
		key := strings.ToLower(r.Medication)
		if _, seen := oldIdx[key]; !seen {
			oldOrder = append(oldOrder, key)
		}
		oldIdx[key] = r
	}

	newKeys := make(map[string]bool, len(newRows))
	for _, nv := range newRows {
		key := strings.ToLower(nv.Medication)
		newKeys[key] = true
		ov, exists := oldIdx[key]
		if !exists {
			diff.Added = append(diff.Added, nv)
			continue
		}

		changes := make(map[string]domain.FieldChange)
		if ov.CoverageType != nv.CoverageType {
			changes["coverageType"] = domain.FieldChange{ov.CoverageType, nv.CoverageType}
		}
		if !floatPtrMatches(ov.Percent, nv.Percent) {
			changes["percent"] = domain.FieldChange{floatPtrValue(ov.Percent), floatPtrValue(nv.Percent)}
		}
		if !floatPtrMatches(ov.Copay, nv.Copay) {
			changes["copay"] = domain.FieldChange{floatPtrValue(ov.Copay), floatPtrValue(nv.Copay)}
		}
		if len(changes) > 0 {
			diff.Changed = append(diff.Changed, domain.RowChange{
				Medication: nv.Medication,
				Changes:    changes,
				Old:        ov,
				New:        nv,
			})
		}
	}

	for _, key := range oldOrder {
		if !newKeys[key] {
			diff.Removed = append(diff.Removed, oldIdx[key])
		}
	}
	return diff
}

// DiffOOPRows is the out-of-pocket analogue of DiffCoverageRows.
func DiffOOPRows(oldRows, newRows []domain.OOPRow) *domain.TableDiff {
	diff := &domain.TableDiff{
		Section:  domain.SectionOutOfPocket,
		OldCount: len(oldRows),
		NewCount: len(newRows),
		Added:    []interface{}{},
		Removed:  []interface{}{},
		Changed:  []domain.RowChange{},
	}

	oldIdx := make(map[string]domain.OOPRow, len(oldRows))
	oldOrder := make([]string, 0, len(oldRows))
	for _, r := range oldRows {
		key := strings.ToLower(r.Medication)
		if _, seen := oldIdx[key]; !seen {
			oldOrder = append(oldOrder, key)
		}
		oldIdx[key] = r
	}

	newKeys := make(map[string]bool, len(newRows))
	for _, nv := range newRows {
		key := strings.ToLower(nv.Medication)
		newKeys[key] = true
		ov, exists := oldIdx[key]
		if !exists {
			diff.Added = append(diff.Added, nv)
			continue
		}

		changes := make(map[string]domain.FieldChange)
		if !floatPtrMatches(ov.RetailPrice, nv.RetailPrice) {
			changes["retail"] = domain.FieldChange{floatPtrValue(ov.RetailPrice), floatPtrValue(nv.RetailPrice)}
		}
		if ov.CoverageRule != nv.CoverageRule {
			changes["coverageRule"] = domain.FieldChange{ov.CoverageRule, nv.CoverageRule}
		}
		if !floatPtrMatches(ov.PatientPays, nv.PatientPays) {
			changes["patientPays"] = domain.FieldChange{floatPtrValue(ov.PatientPays), floatPtrValue(nv.PatientPays)}
		}
		if len(changes) > 0 {
			diff.Changed = append(diff.Changed, domain.RowChange{
				Medication: nv.Medication,
				Changes:    changes,
				Old:        ov,
				New:        nv,
			})
		}
	}

	for _, key := range oldOrder {
		if !newKeys[key] {
			diff.Removed = append(diff.Removed, oldIdx[key])
		}
	}
	return diff
}

func floatPtrMatches(a, b *float64) bool {
	if (a == nil) != (b == nil) {
		return false
	}
	if a == nil {
		return true
	}
	return *a == *b
}

// floatPtrValue unwraps for [old,new] change pairs; nil stays nil in JSON.
func floatPtrValue(p *float64) interface{} {
	if p == nil {
		return nil
	}
	return *p
}
