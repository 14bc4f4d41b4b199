package service

import (
	"bytes"
	"fmt"
	"strings"

	"policy-pulse-server/internal/domain"

	"github.com/gen2brain/go-fitz"
	pdfreader "github.com/ledongthuc/pdf"
)

// PDFExtractor turns policy PDF bytes into positioned text items and
// document metadata. Positioned runs come from the pdf content reader;
// metadata and the plain-text fallback come from fitz.
type PDFExtractor struct {
	logger domain.Logger
}

// NewPDFExtractor creates a new PDF extractor
func NewPDFExtractor(logger domain.Logger) *PDFExtractor {
	return &PDFExtractor{logger: logger}
}

// ExtractText returns the full reconstructed, normalized document text with
// page markers. When no page yields positioned items (some generators write
// uncommon content streams) it falls back to fitz plain text per page so a
// comparison can still run.
func (e *PDFExtractor) ExtractText(pdfBytes []byte) (string, error) {
	pages, err := e.extractPositionedPages(pdfBytes)
	if err != nil {
		e.logger.Warn("Positioned extraction failed; falling back to plain text", "error", err)
		return e.extractPlainText(pdfBytes)
	}

	usable := 0
	for _, items := range pages {
		usable += len(items)
	}
	if usable == 0 {
		e.logger.Debug("No positioned items found; falling back to plain text")
		return e.extractPlainText(pdfBytes)
	}

	return ReconstructDocument(pages, DefaultYTolerance), nil
}

// Metadata reads title/author/page count for labeling diff output.
func (e *PDFExtractor) Metadata(pdfBytes []byte) (*domain.DocumentMetadata, error) {
	doc, err := fitz.NewFromMemory(pdfBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	meta := &domain.DocumentMetadata{PageCount: doc.NumPage()}
	docMeta := doc.Metadata()
	if title, ok := docMeta["title"]; ok && title != "" {
		meta.Title = title
	}
	if author, ok := docMeta["author"]; ok && author != "" {
		meta.Author = author
	}
	return meta, nil
}

// extractPositionedPages reads each page's glyph runs with their baseline
// coordinates. The reader panics on some malformed cross-reference tables,
// so the whole read is wrapped in a recover.
func (e *PDFExtractor) extractPositionedPages(pdfBytes []byte) (pages [][]domain.PositionedTextItem, err error) {
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = fmt.Errorf("pdf reader panic: %v", r)
		}
	}()

	reader, err := pdfreader.NewReader(bytes.NewReader(pdfBytes), int64(len(pdfBytes)))
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}

	numPages := reader.NumPage()
	pages = make([][]domain.PositionedTextItem, 0, numPages)
	for pageNum := 1; pageNum <= numPages; pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			pages = append(pages, nil)
			continue
		}

		content := page.Content()
		items := make([]domain.PositionedTextItem, 0, len(content.Text))
		for _, t := range content.Text {
			if strings.TrimSpace(t.S) == "" {
				continue
			}
			items = append(items, domain.PositionedTextItem{
				Text: t.S,
				X:    t.X,
				Y:    t.Y,
			})
		}
		pages = append(pages, items)
	}
	return pages, nil
}

// extractPlainText mirrors the positioned pipeline's output shape (page
// markers + normalization) using fitz's own text extraction.
func (e *PDFExtractor) extractPlainText(pdfBytes []byte) (string, error) {
	doc, err := fitz.NewFromMemory(pdfBytes)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	var sb strings.Builder
	numPages := doc.NumPage()
	for pageNum := 0; pageNum < numPages; pageNum++ {
		text, err := doc.Text(pageNum)
		if err != nil {
			e.logger.Warn("Failed to extract text from page", "page_num", pageNum+1, "total", numPages, "error", err)
			text = ""
		}
		if pageNum > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
		sb.WriteString(PageMarker(pageNum + 1))
		sb.WriteString("\n")
		sb.WriteString(strings.TrimSpace(text))
	}
	return NormalizeText(sb.String()), nil
}
