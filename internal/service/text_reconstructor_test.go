package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"policy-pulse-server/internal/domain"
)

func item(text string, x, y float64) domain.PositionedTextItem {
	return domain.PositionedTextItem{Text: text, X: x, Y: y}
}

func TestReconstructPage_OrdersTopToBottomLeftToRight(t *testing.T) {
	items := []domain.PositionedTextItem{
		item("world", 50, 700),
		item("Hello", 10, 700),
		item("line two", 10, 680),
	}

	got := ReconstructPage(items, DefaultYTolerance)
	assert.Equal(t, "Hello world\nline two", got)
}

func TestReconstructPage_YToleranceGroupsJitteryItems(t *testing.T) {
	items := []domain.PositionedTextItem{
		item("a", 10, 700),
		item("b", 20, 699.2), // within tolerance, same line
		item("c", 10, 690),   // beyond tolerance, new line
	}

	got := ReconstructPage(items, 2.0)
	assert.Equal(t, "a b\nc", got)
}

func TestReconstructPage_EndsLineFlagBreaksEarly(t *testing.T) {
	items := []domain.PositionedTextItem{
		{Text: "first", X: 10, Y: 700, EndsLine: true},
		{Text: "second", X: 20, Y: 700},
	}

	got := ReconstructPage(items, DefaultYTolerance)
	assert.Equal(t, "first\nsecond", got)
}

func TestReconstructPage_SkipsEmptyItems(t *testing.T) {
	items := []domain.PositionedTextItem{
		item("  ", 10, 700),
		item("", 20, 700),
	}

	assert.Equal(t, "", ReconstructPage(items, DefaultYTolerance))
}

func TestReconstructDocument_PageMarkers(t *testing.T) {
	pages := [][]domain.PositionedTextItem{
		{item("page one", 10, 700)},
		{item("page two", 10, 700)},
	}

	got := ReconstructDocument(pages, DefaultYTolerance)
	assert.Contains(t, got, "<<< Page 1 >>>\npage one")
	assert.Contains(t, got, "<<< Page 2 >>>\npage two")
}

func TestIsPageMarker(t *testing.T) {
	assert.True(t, IsPageMarker("<<< Page 3 >>>"))
	assert.True(t, IsPageMarker("  <<< Page 12 >>>  "))
	assert.False(t, IsPageMarker("<<< Page x >>>"))
	assert.False(t, IsPageMarker("Page 3"))
}

func TestNormalizeText(t *testing.T) {
	in := "a  b   c  \n\n\n\n\nnext   line\t\t\n"
	got := NormalizeText(in)
	assert.Equal(t, "a b c\n\nnext line", got)
}

func TestNormalizeText_Idempotent(t *testing.T) {
	in := "  leading\nmiddle   spaced \n\n\n\ntrailing  "
	once := NormalizeText(in)
	assert.Equal(t, once, NormalizeText(once))
}
