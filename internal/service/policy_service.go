package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"policy-pulse-server/internal/domain"
	apperrors "policy-pulse-server/pkg/errors"
)

// PolicyServiceImpl covers directory reads plus PDF-driven ingestion.
type PolicyServiceImpl struct {
	policies  domain.PolicyRepository
	files     domain.PolicyFileStore
	extractor *PDFExtractor
	logger    domain.Logger
}

// NewPolicyService creates a new policy service
func NewPolicyService(
	policies domain.PolicyRepository,
	files domain.PolicyFileStore,
	extractor *PDFExtractor,
	logger domain.Logger,
) *PolicyServiceImpl {
	return &PolicyServiceImpl{
		policies:  policies,
		files:     files,
		extractor: extractor,
		logger:    logger,
	}
}

// List returns every policy version in the directory
func (s *PolicyServiceImpl) List(ctx context.Context) ([]*domain.Policy, error) {
	return s.policies.List(ctx)
}

// GetByID returns one policy version
func (s *PolicyServiceImpl) GetByID(ctx context.Context, id string) (*domain.Policy, error) {
	return s.policies.GetByID(ctx, id)
}

// Ingest turns a policy PDF already present in the storage bucket into a
// directory record. The coverage map is read from the document's coverage
// table, so the stored record always carries the canonical typed shape.
func (s *PolicyServiceImpl) Ingest(ctx context.Context, req domain.IngestRequest) (*domain.Policy, error) {
	if strings.TrimSpace(req.FileName) == "" {
		return nil, apperrors.NewValidationError("fileName is required")
	}
	if strings.TrimSpace(req.Name) == "" {
		return nil, apperrors.NewValidationError("name is required")
	}
	if strings.TrimSpace(req.InsuranceCompanyRef) == "" {
		return nil, apperrors.NewValidationError("insuranceCompanyRef is required")
	}

	if existing, err := s.policies.GetByFileName(ctx, req.FileName); err == nil {
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("file %q is already ingested as policy %s", req.FileName, existing.ID))
	} else if !errors.Is(err, domain.ErrPolicyNotFound) {
		return nil, fmt.Errorf("failed to check for existing policy: %w", err)
	}

	pdfBytes, err := s.files.Download(ctx, req.FileName)
	if err != nil {
		return nil, fmt.Errorf("failed to download policy file %q: %w", req.FileName, err)
	}

	meta, err := s.extractor.Metadata(pdfBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy file %q: %w", req.FileName, err)
	}
	if meta.PageCount == 0 {
		return nil, apperrors.NewValidationError(fmt.Sprintf("policy file %q has no pages", req.FileName))
	}

	text, err := s.extractor.ExtractText(pdfBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy file %q: %w", req.FileName, err)
	}

	rows := ParseCoverageTable(ExtractCoverageBlock(text))
	coverageRaw, err := coverageMapFromRows(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to encode coverage map: %w", err)
	}

	version, err := s.nextVersion(ctx, req.Name, req.InsuranceCompanyRef)
	if err != nil {
		return nil, err
	}

	policy := &domain.Policy{
		ID:                  uuid.New().String(),
		Name:                req.Name,
		Summary:             req.Summary,
		Version:             version,
		EffectiveDate:       req.EffectiveDate,
		InsuranceCompanyRef: req.InsuranceCompanyRef,
		FileName:            req.FileName,
		CoverageMap:         coverageRaw,
		CreatedAt:           time.Now().UTC(),
	}

	if err := s.policies.Create(ctx, policy); err != nil {
		return nil, fmt.Errorf("failed to store policy: %w", err)
	}

	s.logger.Info("Policy ingested",
		"policy_id", policy.ID,
		"name", policy.Name,
		"version", policy.Version,
		"pages", meta.PageCount,
		"medications", len(rows))

	return policy, nil
}

// nextVersion bumps past the highest stored version of the same policy line.
func (s *PolicyServiceImpl) nextVersion(ctx context.Context, name, companyRef string) (int, error) {
	all, err := s.policies.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list policies: %w", err)
	}

	version := 1
	for _, p := range all {
		if strings.EqualFold(strings.TrimSpace(p.Name), strings.TrimSpace(name)) &&
			p.InsuranceCompanyRef == companyRef &&
			p.Version >= version {
			version = p.Version + 1
		}
	}
	return version, nil
}

// coverageMapFromRows converts parsed coverage-table rows into the stored
// typed-record shape. Percent rows at or above 100 are stored as covered so
// reads do not depend on normalization to reconcile them.
func coverageMapFromRows(rows []domain.CoverageRow) (json.RawMessage, error) {
	coverage := domain.NewCoverageMap()
	for _, row := range rows {
		entry := domain.CoverageEntry{Type: domain.CoverageNotCovered}
		switch row.CoverageType {
		case string(domain.CoverageCovered):
			entry.Type = domain.CoverageCovered
			entry.Copay = row.Copay
		case string(domain.CoveragePercent):
			pct := 0.0
			if row.Percent != nil {
				pct = *row.Percent
			}
			if pct >= 100 {
				entry.Type = domain.CoverageCovered
			} else {
				entry.Type = domain.CoveragePercent
				entry.Percent = &pct
			}
			entry.Copay = row.Copay
		}
		coverage.Set(row.Medication, entry)
	}
	return json.Marshal(coverage)
}

type policyFileResult struct {
	which  string
	pdf    []byte
	policy *domain.Policy
	err    error
}

// ComparePolicyFiles resolves two stored policies and downloads both PDFs
// concurrently. Each side fails independently with an error naming it.
func (s *PolicyServiceImpl) ComparePolicyFiles(ctx context.Context, oldPolicyID, newPolicyID string) ([]byte, []byte, *domain.Policy, *domain.Policy, error) {
	results := make(chan policyFileResult, 2)

	fetch := func(which, id string) {
		policy, err := s.policies.GetByID(ctx, id)
		if err != nil {
			results <- policyFileResult{which: which, err: fmt.Errorf("failed to load %s policy: %w", which, err)}
			return
		}
		pdf, err := s.files.Download(ctx, policy.FileName)
		if err != nil {
			results <- policyFileResult{which: which, err: fmt.Errorf("failed to download %s policy file %q: %w", which, policy.FileName, err)}
			return
		}
		results <- policyFileResult{which: which, pdf: pdf, policy: policy}
	}
	go fetch("old", oldPolicyID)
	go fetch("new", newPolicyID)

	var oldPDF, newPDF []byte
	var oldPolicy, newPolicy *domain.Policy
	for i := 0; i < 2; i++ {
		res := <-results
		if res.err != nil {
			return nil, nil, nil, nil, res.err
		}
		if res.which == "old" {
			oldPDF, oldPolicy = res.pdf, res.policy
		} else {
			newPDF, newPolicy = res.pdf, res.policy
		}
	}
	return oldPDF, newPDF, oldPolicy, newPolicy, nil
}
