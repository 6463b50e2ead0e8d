package service

import (
	"context"
	"database/sql"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/admitguard-api/internal/models"
	"github.com/noah-isme/admitguard-api/internal/repository"
)

type mockUserRepo struct {
	mu       sync.Mutex
	users    []*models.User
	countErr error
	createFn func(user *models.User) error
}

func (m *mockUserRepo) Count(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.countErr != nil {
		return 0, m.countErr
	}
	return len(m.users), nil
}

func (m *mockUserRepo) CreateBootstrap(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.users) > 0 {
		return repository.ErrBootstrapClosed
	}
	user.ID = uuid.NewString()
	user.Bootstrap = true
	user.CreatedAt = time.Now().UTC()
	m.users = append(m.users, user)
	return nil
}

func (m *mockUserRepo) Create(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createFn != nil {
		return m.createFn(user)
	}
	for _, u := range m.users {
		if strings.EqualFold(u.Email, user.Email) {
			return repository.ErrDuplicate
		}
	}
	user.ID = uuid.NewString()
	user.CreatedAt = time.Now().UTC()
	m.users = append(m.users, user)
	return nil
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.User
	for _, u := range m.users {
		if filter.Role != nil && u.Role != *filter.Role {
			continue
		}
		out = append(out, *u)
	}
	return out, len(out), nil
}

type mockAudit struct {
	mu   sync.Mutex
	logs []*models.AuditLog
	err  error
}

func (m *mockAudit) Create(ctx context.Context, log *models.AuditLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs = append(m.logs, log)
	return m.err
}

type mockBatchRepo struct {
	batches   map[string]*models.Batch
	findCalls int
	createErr error
}

func newMockBatchRepo(batches ...*models.Batch) *mockBatchRepo {
	m := &mockBatchRepo{batches: map[string]*models.Batch{}}
	for _, b := range batches {
		m.batches[b.ID] = b
	}
	return m
}

func (m *mockBatchRepo) Create(ctx context.Context, batch *models.Batch) error {
	if m.createErr != nil {
		return m.createErr
	}
	if batch.ID == "" {
		batch.ID = uuid.NewString()
	}
	batch.CreatedAt = time.Now().UTC()
	m.batches[batch.ID] = batch
	return nil
}

func (m *mockBatchRepo) FindByID(ctx context.Context, id string) (*models.Batch, error) {
	m.findCalls++
	b, ok := m.batches[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *b
	return &cp, nil
}

func (m *mockBatchRepo) List(ctx context.Context, filter models.BatchFilter) ([]models.Batch, error) {
	var out []models.Batch
	for _, b := range m.batches {
		if filter.CreatedBy != "" && b.CreatedBy != filter.CreatedBy {
			continue
		}
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

type mockCandidateRepo struct {
	candidates map[string]*models.Candidate
	writes     int
	listErr    error
}

func newMockCandidateRepo(candidates ...*models.Candidate) *mockCandidateRepo {
	m := &mockCandidateRepo{candidates: map[string]*models.Candidate{}}
	for _, c := range candidates {
		m.candidates[c.ID] = c
	}
	return m
}

func (m *mockCandidateRepo) Create(ctx context.Context, c *models.Candidate) error {
	m.writes++
	c.ID = uuid.NewString()
	c.CreatedAt = time.Now().UTC()
	c.UpdatedAt = c.CreatedAt
	cp := *c
	m.candidates[c.ID] = &cp
	return nil
}

func (m *mockCandidateRepo) ListByBatch(ctx context.Context, batchID string) ([]models.Candidate, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []models.Candidate
	for _, c := range m.candidates {
		if c.BatchID == batchID {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *mockCandidateRepo) FindInBatch(ctx context.Context, batchID, id string) (*models.Candidate, error) {
	c, ok := m.candidates[id]
	if !ok || c.BatchID != batchID {
		return nil, sql.ErrNoRows
	}
	cp := *c
	return &cp, nil
}

func (m *mockCandidateRepo) Replace(ctx context.Context, c *models.Candidate) (*models.Candidate, error) {
	m.writes++
	stored, ok := m.candidates[c.ID]
	if !ok || stored.BatchID != c.BatchID {
		return nil, sql.ErrNoRows
	}
	stored.Name, stored.Email = c.Name, c.Email
	stored.InterviewStatus, stored.ScreeningScore, stored.OfferLetterSent = c.InterviewStatus, c.ScreeningScore, c.OfferLetterSent
	stored.ExceptionCount, stored.Flagged, stored.Data = c.ExceptionCount, c.Flagged, c.Data
	stored.UpdatedAt = time.Now().UTC()
	cp := *stored
	return &cp, nil
}

func (m *mockCandidateRepo) UpdateReview(ctx context.Context, batchID, id string, review models.ReviewUpdate) (*models.Candidate, error) {
	m.writes++
	stored, ok := m.candidates[id]
	if !ok || stored.BatchID != batchID {
		return nil, sql.ErrNoRows
	}
	status := review.ReviewStatus
	reviewer := review.ReviewedBy
	stored.ReviewStatus = &status
	stored.ReviewedBy = &reviewer
	stored.ReviewNote = review.ReviewNote
	stored.UpdatedAt = review.UpdatedAt
	cp := *stored
	return &cp, nil
}
