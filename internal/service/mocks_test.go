package service

import (
	"context"
	"sync"

	"policy-pulse-server/internal/domain"
)

// testLogger discards everything; tests assert on behavior, not log lines.
type testLogger struct{}

func (testLogger) Info(msg string, fields ...interface{})             {}
func (testLogger) Error(msg string, err error, fields ...interface{}) {}
func (testLogger) Debug(msg string, fields ...interface{})            {}
func (testLogger) Warn(msg string, fields ...interface{})             {}

type mockPolicyRepo struct {
	policies map[string]*domain.Policy
	listErr  error
}

func newMockPolicyRepo(policies ...*domain.Policy) *mockPolicyRepo {
	repo := &mockPolicyRepo{policies: make(map[string]*domain.Policy)}
	for _, p := range policies {
		repo.policies[p.ID] = p
	}
	return repo
}

func (r *mockPolicyRepo) List(ctx context.Context) ([]*domain.Policy, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	var out []*domain.Policy
	for _, p := range r.policies {
		out = append(out, p)
	}
	return out, nil
}

func (r *mockPolicyRepo) GetByID(ctx context.Context, id string) (*domain.Policy, error) {
	p, ok := r.policies[id]
	if !ok {
		return nil, domain.ErrPolicyNotFound
	}
	return p, nil
}

func (r *mockPolicyRepo) GetByFileName(ctx context.Context, fileName string) (*domain.Policy, error) {
	for _, p := range r.policies {
		if p.FileName == fileName {
			return p, nil
		}
	}
	return nil, domain.ErrPolicyNotFound
}

func (r *mockPolicyRepo) Create(ctx context.Context, policy *domain.Policy) error {
	r.policies[policy.ID] = policy
	return nil
}

type mockUserRepo struct {
	users map[string]*domain.User
}

func newMockUserRepo(users ...*domain.User) *mockUserRepo {
	repo := &mockUserRepo{users: make(map[string]*domain.User)}
	for _, u := range users {
		repo.users[u.ID] = u
	}
	return repo
}

func (r *mockUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return u, nil
}

func (r *mockUserRepo) GetInsuredOnAny(ctx context.Context, policyPaths []string) ([]*domain.User, error) {
	wanted := make(map[string]bool, len(policyPaths))
	for _, p := range policyPaths {
		wanted[p] = true
	}
	var out []*domain.User
	for _, u := range r.users {
		for _, ref := range u.InsuredAt {
			if wanted[ref] {
				out = append(out, u)
				break
			}
		}
	}
	return out, nil
}

type mockReportRepo struct {
	mu     sync.Mutex
	saved  []*domain.ImpactReport
	paths  []string
	listed []*domain.ImpactIndexEntry
}

func (r *mockReportRepo) Save(ctx context.Context, policyPath string, report *domain.ImpactReport) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saved = append(r.saved, report)
	r.paths = append(r.paths, policyPath)
	return nil
}

func (r *mockReportRepo) ListIndex(ctx context.Context, policyPath string, limit int) ([]*domain.ImpactIndexEntry, error) {
	return r.listed, nil
}

type mockFileStore struct {
	files map[string][]byte
}

func (s *mockFileStore) Download(ctx context.Context, objectName string) ([]byte, error) {
	data, ok := s.files[objectName]
	if !ok {
		return nil, domain.ErrFileNotFound
	}
	return data, nil
}

type mockMailer struct {
	mu      sync.Mutex
	sent    []*domain.MailMessage
	failFor map[string]error
}

func (m *mockMailer) Send(ctx context.Context, msg *domain.MailMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.failFor[msg.To]; ok {
		return err
	}
	m.sent = append(m.sent, msg)
	return nil
}
