package service

import (
	"context"
	"fmt"

	"policy-pulse-server/internal/domain"
	apperrors "policy-pulse-server/pkg/errors"
)

// CompareServiceImpl runs the full document comparison pipeline:
// extraction, normalization, and one of the diff shapes.
type CompareServiceImpl struct {
	extractor *PDFExtractor
	logger    domain.Logger
}

// NewCompareService creates a new comparison service
func NewCompareService(extractor *PDFExtractor, logger domain.Logger) *CompareServiceImpl {
	return &CompareServiceImpl{
		extractor: extractor,
		logger:    logger,
	}
}

// extractBoth reads both buffers up front so a bad upload fails before any
// diffing work happens.
func (s *CompareServiceImpl) extractBoth(ctx context.Context, oldPDF, newPDF []byte) (string, string, error) {
	if err := ctx.Err(); err != nil {
		return "", "", err
	}

	oldTxt, err := s.extractor.ExtractText(oldPDF)
	if err != nil {
		return "", "", apperrors.NewProcessingError("failed to extract old document", err)
	}

	newTxt, err := s.extractor.ExtractText(newPDF)
	if err != nil {
		return "", "", apperrors.NewProcessingError("failed to extract new document", err)
	}

	return oldTxt, newTxt, nil
}

// CompareStructured returns the segment list with its summary
func (s *CompareServiceImpl) CompareStructured(ctx context.Context, oldPDF, newPDF []byte) (*domain.StructuredDiff, error) {
	oldTxt, newTxt, err := s.extractBoth(ctx, oldPDF, newPDF)
	if err != nil {
		return nil, err
	}

	diff := DiffStructured(oldTxt, newTxt)

	s.logger.Info("Structured comparison completed",
		"granularity", diff.Granularity,
		"segments", diff.Summary.TotalSegments,
		"added", diff.Summary.Added,
		"removed", diff.Summary.Removed)

	return diff, nil
}

// CompareUnified returns a unified patch for the two documents
func (s *CompareServiceImpl) CompareUnified(ctx context.Context, oldPDF, newPDF []byte, opts domain.UnifiedOptions) (*domain.UnifiedDiff, error) {
	oldTxt, newTxt, err := s.extractBoth(ctx, oldPDF, newPDF)
	if err != nil {
		return nil, err
	}

	diff, err := DiffUnified(oldTxt, newTxt, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to build unified diff: %w", err)
	}

	s.logger.Info("Unified comparison completed",
		"old_length", diff.OldLength,
		"new_length", diff.NewLength)

	return diff, nil
}

// CompareInline returns the single-column annotated view
func (s *CompareServiceImpl) CompareInline(ctx context.Context, oldPDF, newPDF []byte, maxEqualChunkLines int) (string, error) {
	oldTxt, newTxt, err := s.extractBoth(ctx, oldPDF, newPDF)
	if err != nil {
		return "", err
	}

	if maxEqualChunkLines <= 0 {
		maxEqualChunkLines = DefaultMaxEqualChunkLines
	}

	view := DiffInline(oldTxt, newTxt, maxEqualChunkLines)

	s.logger.Info("Inline comparison completed", "max_equal_chunk", maxEqualChunkLines)

	return view, nil
}

// CompareTables extracts the requested section from both documents and
// diffs the parsed rows.
func (s *CompareServiceImpl) CompareTables(ctx context.Context, oldPDF, newPDF []byte, section domain.TableSection) (*domain.TableDiff, error) {
	oldTxt, newTxt, err := s.extractBoth(ctx, oldPDF, newPDF)
	if err != nil {
		return nil, err
	}

	var diff *domain.TableDiff
	switch section {
	case domain.SectionOutOfPocket:
		oldRows := ParseOOPTable(ExtractOOPBlock(oldTxt))
		newRows := ParseOOPTable(ExtractOOPBlock(newTxt))
		diff = DiffOOPRows(oldRows, newRows)
	case domain.SectionCoverage:
		oldRows := ParseCoverageTable(ExtractCoverageBlock(oldTxt))
		newRows := ParseCoverageTable(ExtractCoverageBlock(newTxt))
		diff = DiffCoverageRows(oldRows, newRows)
	default:
		return nil, apperrors.NewValidationError(fmt.Sprintf("unknown table section: %s", section))
	}

	s.logger.Info("Table comparison completed",
		"section", string(section),
		"added", len(diff.Added),
		"removed", len(diff.Removed),
		"changed", len(diff.Changed))

	return diff, nil
}
