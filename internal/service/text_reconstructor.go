package service

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"policy-pulse-server/internal/domain"
)

// DefaultYTolerance is the vertical distance (in PDF units) within which two
// text items are considered to sit on the same line.
const DefaultYTolerance = 2.0

var (
	multiSpaceRe   = regexp.MustCompile(`[ \t]+`)
	manyNewlinesRe = regexp.MustCompile(`\n{3,}`)
)

// ReconstructPage builds stable, line-broken text from one page of positioned
// text items. Items are ordered top-to-bottom then left-to-right; a new line
// starts when the vertical gap exceeds yTol or an item carries an
// end-of-line flag. Within a line, items are re-sorted by X so glyph runs
// emitted out of order still read left to right.
//
// The heuristic is layout-based on purpose: the source PDFs expose no logical
// paragraph structure. It never fails; a page with no usable items yields "".
func ReconstructPage(items []domain.PositionedTextItem, yTol float64) string {
	if yTol <= 0 {
		yTol = DefaultYTolerance
	}

	usable := make([]domain.PositionedTextItem, 0, len(items))
	for _, it := range items {
		if strings.TrimSpace(it.Text) != "" {
			usable = append(usable, it)
		}
	}
	if len(usable) == 0 {
		return ""
	}

	sort.SliceStable(usable, func(i, j int) bool {
		if usable[i].Y != usable[j].Y {
			return usable[i].Y > usable[j].Y
		}
		return usable[i].X < usable[j].X
	})

	var lines []string
	var buf []domain.PositionedTextItem
	haveLineY := false
	lineY := 0.0

	flush := func() {
		if len(buf) == 0 {
			return
		}
		sort.SliceStable(buf, func(i, j int) bool { return buf[i].X < buf[j].X })
		parts := make([]string, len(buf))
		for i, it := range buf {
			parts[i] = it.Text
		}
		line := strings.TrimSpace(squashSpaces(strings.Join(parts, " ")))
		if line != "" {
			lines = append(lines, line)
		}
		buf = buf[:0]
	}

	for _, it := range usable {
		if !haveLineY {
			lineY = it.Y
			haveLineY = true
			buf = append(buf, it)
			if it.EndsLine {
				flush()
				haveLineY = false
			}
			continue
		}

		if abs(it.Y-lineY) > yTol {
			flush()
			lineY = it.Y
		}
		buf = append(buf, it)

		if it.EndsLine {
			flush()
			haveLineY = false
		}
	}
	flush()

	return strings.Join(lines, "\n")
}

// PageMarker is the boundary line inserted between reconstructed pages.
func PageMarker(pageNum int) string {
	return fmt.Sprintf("<<< Page %d >>>", pageNum)
}

var pageMarkerRe = regexp.MustCompile(`^<<< Page \d+ >>>$`)

// IsPageMarker reports whether a reconstructed line is a page boundary.
func IsPageMarker(line string) bool {
	return pageMarkerRe.MatchString(strings.TrimSpace(line))
}

// ReconstructDocument joins per-page reconstructions with page markers and
// normalizes the result for diffing.
func ReconstructDocument(pages [][]domain.PositionedTextItem, yTol float64) string {
	var sb strings.Builder
	for i, items := range pages {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
		sb.WriteString(PageMarker(i + 1))
		sb.WriteString("\n")
		sb.WriteString(ReconstructPage(items, yTol))
	}
	return NormalizeText(sb.String())
}

// NormalizeText tidies text without destroying line structure: right-trims
// each line, squashes space runs, and collapses 3+ blank-separated newlines
// down to one blank line.
func NormalizeText(txt string) string {
	lines := strings.Split(txt, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(squashSpaces(l), " \t")
	}
	out := strings.Join(lines, "\n")
	out = manyNewlinesRe.ReplaceAllString(out, "\n\n")
	return strings.TrimSpace(out)
}

// squashSpaces converts NBSP to plain spaces and collapses space/tab runs.
func squashSpaces(s string) string {
	s = strings.ReplaceAll(s, " ", " ")
	return multiSpaceRe.ReplaceAllString(s, " ")
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
