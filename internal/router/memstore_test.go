package router

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

// memStore is an in-memory stand-in for the Postgres repositories.
type memStore struct {
	mu         sync.Mutex
	users      []*models.User
	batches    []*models.Batch
	candidates []*models.Candidate
	audits     []*models.AuditLog
}

type memUsers struct{ *memStore }
type memBatches struct{ *memStore }
type memCandidates struct{ *memStore }
type memAudit struct{ *memStore }

func (s memUsers) Count(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users), nil
}

func (s memUsers) CreateBootstrap(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.users) > 0 {
		return repository.ErrBootstrapClosed
	}
	user.Bootstrap = true
	return s.insertLocked(user)
}

func (s memUsers) Create(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertLocked(user)
}

func (s memUsers) insertLocked(user *models.User) error {
	for _, u := range s.users {
		if strings.EqualFold(u.Email, user.Email) {
			return repository.ErrDuplicate
		}
	}
	user.ID = uuid.NewString()
	user.CreatedAt = time.Now().UTC()
	cp := *user
	s.users = append(s.users, &cp)
	return nil
}

func (s memUsers) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s memUsers) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.User{}
	for _, u := range s.users {
		if filter.Role == nil || u.Role == *filter.Role {
			out = append(out, *u)
		}
	}
	return out, len(out), nil
}

func (s memBatches) Create(ctx context.Context, batch *models.Batch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	batch.ID = uuid.NewString()
	batch.CreatedAt = time.Now().UTC()
	cp := *batch
	s.batches = append(s.batches, &cp)
	return nil
}

func (s memBatches) FindByID(ctx context.Context, id string) (*models.Batch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.batches {
		if b.ID == id {
			cp := *b
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s memBatches) List(ctx context.Context, filter models.BatchFilter) ([]models.Batch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Batch{}
	for i := len(s.batches) - 1; i >= 0; i-- {
		b := s.batches[i]
		if filter.CreatedBy == "" || b.CreatedBy == filter.CreatedBy {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (s memCandidates) Create(ctx context.Context, c *models.Candidate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = uuid.NewString()
	c.CreatedAt = time.Now().UTC()
	c.UpdatedAt = c.CreatedAt
	cp := *c
	s.candidates = append(s.candidates, &cp)
	return nil
}

func (s memCandidates) ListByBatch(ctx context.Context, batchID string) ([]models.Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Candidate{}
	for _, c := range s.candidates {
		if c.BatchID == batchID {
			out = append(out, *c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s memCandidates) findLocked(batchID, id string) *models.Candidate {
	for _, c := range s.candidates {
		if c.ID == id && c.BatchID == batchID {
			return c
		}
	}
	return nil
}

func (s memCandidates) FindInBatch(ctx context.Context, batchID, id string) (*models.Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.findLocked(batchID, id)
	if c == nil {
		return nil, sql.ErrNoRows
	}
	cp := *c
	return &cp, nil
}

func (s memCandidates) Replace(ctx context.Context, in *models.Candidate) (*models.Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.findLocked(in.BatchID, in.ID)
	if c == nil {
		return nil, sql.ErrNoRows
	}
	c.Name, c.Email, c.InterviewStatus = in.Name, in.Email, in.InterviewStatus
	c.ScreeningScore, c.OfferLetterSent = in.ScreeningScore, in.OfferLetterSent
	c.ExceptionCount, c.Flagged, c.Data = in.ExceptionCount, in.Flagged, in.Data
	c.UpdatedAt = time.Now().UTC()
	cp := *c
	return &cp, nil
}

func (s memCandidates) UpdateReview(ctx context.Context, batchID, id string, review models.ReviewUpdate) (*models.Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.findLocked(batchID, id)
	if c == nil {
		return nil, sql.ErrNoRows
	}
	status, reviewer := review.ReviewStatus, review.ReviewedBy
	c.ReviewStatus, c.ReviewedBy, c.ReviewNote = &status, &reviewer, review.ReviewNote
	c.UpdatedAt = review.UpdatedAt
	cp := *c
	return &cp, nil
}

func (s memAudit) Create(ctx context.Context, log *models.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.audits = append(s.audits, log)
	return nil
}
