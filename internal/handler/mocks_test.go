package handler

import (
	"context"

	"policy-pulse-server/internal/config"
	"policy-pulse-server/internal/domain"
)

type testLogger struct{}

func (testLogger) Info(msg string, fields ...interface{})             {}
func (testLogger) Error(msg string, err error, fields ...interface{}) {}
func (testLogger) Debug(msg string, fields ...interface{})            {}
func (testLogger) Warn(msg string, fields ...interface{})             {}

func testContainer() *config.Container {
	return &config.Container{
		Config: config.NewConfig(),
		Logger: testLogger{},
	}
}

type mockCompareService struct {
	structured  *domain.StructuredDiff
	unified     *domain.UnifiedDiff
	inline      string
	table       *domain.TableDiff
	err         error
	unifiedOpts domain.UnifiedOptions
}

func (m *mockCompareService) CompareStructured(ctx context.Context, oldPDF, newPDF []byte) (*domain.StructuredDiff, error) {
	return m.structured, m.err
}

func (m *mockCompareService) CompareUnified(ctx context.Context, oldPDF, newPDF []byte, opts domain.UnifiedOptions) (*domain.UnifiedDiff, error) {
	m.unifiedOpts = opts
	return m.unified, m.err
}

func (m *mockCompareService) CompareInline(ctx context.Context, oldPDF, newPDF []byte, maxEqualChunkLines int) (string, error) {
	return m.inline, m.err
}

func (m *mockCompareService) CompareTables(ctx context.Context, oldPDF, newPDF []byte, section domain.TableSection) (*domain.TableDiff, error) {
	return m.table, m.err
}

type mockImpactService struct {
	report  *domain.ImpactReport
	entries []*domain.ImpactIndexEntry
	err     error
}

func (m *mockImpactService) Run(ctx context.Context, params domain.ImpactParams) (*domain.ImpactReport, error) {
	return m.report, m.err
}

func (m *mockImpactService) ListReports(ctx context.Context, policyID string, limit int) ([]*domain.ImpactIndexEntry, error) {
	return m.entries, m.err
}

type mockNotificationService struct {
	result *domain.NotificationResult
	err    error
}

func (m *mockNotificationService) SendPlanChangeEmails(ctx context.Context, req domain.PlanChangeNotification) (*domain.NotificationResult, error) {
	return m.result, m.err
}

type mockRecommendationService struct {
	recommendation *domain.Recommendation
	err            error
	lastOpts       domain.RecommendOptions
}

func (m *mockRecommendationService) RecommendBetter(ctx context.Context, userID string, opts domain.RecommendOptions) (*domain.Recommendation, error) {
	m.lastOpts = opts
	return m.recommendation, m.err
}
