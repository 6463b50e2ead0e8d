package service

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"

	"github.com/noah-isme/admitguard-api/internal/models"
	appErrors "github.com/noah-isme/admitguard-api/pkg/errors"
)

type candidateRepository interface {
	Create(ctx context.Context, c *models.Candidate) error
	ListByBatch(ctx context.Context, batchID string) ([]models.Candidate, error)
	FindInBatch(ctx context.Context, batchID, id string) (*models.Candidate, error)
	Replace(ctx context.Context, c *models.Candidate) (*models.Candidate, error)
	UpdateReview(ctx context.Context, batchID, id string, review models.ReviewUpdate) (*models.Candidate, error)
}

// CandidateService manages candidates inside an already resolved batch.
type CandidateService struct {
	repo      candidateRepository
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewCandidateService constructs a CandidateService.
func NewCandidateService(repo candidateRepository, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *CandidateService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &CandidateService{repo: repo, metrics: metrics, validator: validate, logger: logger, now: time.Now}
}

// List returns the batch's candidates, newest first.
func (s *CandidateService) List(ctx context.Context, batch *models.Batch) ([]models.Candidate, error) {
	candidates, err := s.repo.ListByBatch(ctx, batch.ID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list candidates")
	}
	if candidates == nil {
		candidates = []models.Candidate{}
	}
	return candidates, nil
}

// Get returns a candidate that belongs to the batch.
func (s *CandidateService) Get(ctx context.Context, batch *models.Batch, id string) (*models.Candidate, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, candidateNotFound()
	}
	candidate, err := s.repo.FindInBatch(ctx, batch.ID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, candidateNotFound()
		}
		return nil, appErrors.Internal(err, "failed to load candidate")
	}
	return candidate, nil
}

// Create admits a candidate into the batch.
func (s *CandidateService) Create(ctx context.Context, batch *models.Batch, req models.CandidateRequest) (*models.Candidate, error) {
	candidate, err := s.admit(req)
	if err != nil {
		return nil, err
	}
	candidate.BatchID = batch.ID

	if err := s.repo.Create(ctx, candidate); err != nil {
		return nil, appErrors.Internal(err, "failed to create candidate")
	}
	s.metrics.RecordEvent(EventCandidateCreated)
	return candidate, nil
}

// Update replaces the intake fields of a candidate in the batch. Review
// fields are preserved.
func (s *CandidateService) Update(ctx context.Context, batch *models.Batch, id string, req models.CandidateRequest) (*models.Candidate, error) {
	if _, err := s.Get(ctx, batch, id); err != nil {
		return nil, err
	}

	candidate, err := s.admit(req)
	if err != nil {
		return nil, err
	}
	candidate.ID = id
	candidate.BatchID = batch.ID

	updated, err := s.repo.Replace(ctx, candidate)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, candidateNotFound()
		}
		return nil, appErrors.Internal(err, "failed to update candidate")
	}
	s.metrics.RecordEvent(EventCandidateUpdated)
	return updated, nil
}

// Review records an accept/reject decision stamped with the reviewer's email.
// Only admins and managers may review.
func (s *CandidateService) Review(ctx context.Context, batch *models.Batch, id string, actor *models.JWTClaims, req models.ReviewRequest) (*models.Candidate, error) {
	if actor == nil || (actor.Role != models.RoleAdmin && actor.Role != models.RoleManager) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "Only admin or manager can review candidates.")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid review payload")
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, candidateNotFound()
	}

	reviewer := actor.Email
	if reviewer == "" {
		reviewer = actor.UserID
	}
	updated, err := s.repo.UpdateReview(ctx, batch.ID, id, models.ReviewUpdate{
		ReviewStatus: req.ReviewStatus,
		ReviewedBy:   reviewer,
		ReviewNote:   req.ReviewNote,
		UpdatedAt:    s.now().UTC(),
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, candidateNotFound()
		}
		return nil, appErrors.Internal(err, "failed to review candidate")
	}

	s.metrics.RecordEvent(EventCandidateReviewed)
	s.logger.Info("candidate reviewed",
		zap.String("candidate_id", id),
		zap.String("batch_id", batch.ID),
		zap.String("review_status", string(req.ReviewStatus)))
	return updated, nil
}

// admit applies the admission gate and payload validation, returning the
// candidate to persist. A Rejected interview status always blocks the write.
func (s *CandidateService) admit(req models.CandidateRequest) (*models.Candidate, error) {
	if req.InterviewStatus != nil && *req.InterviewStatus == models.InterviewRejected {
		s.metrics.RecordEvent(EventCandidateBlocked)
		return nil, appErrors.ErrCandidateRejected
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid candidate payload")
	}

	data, err := normalizeData(req.Data)
	if err != nil {
		return nil, err
	}

	return &models.Candidate{
		Name:            req.Name,
		Email:           req.Email,
		InterviewStatus: req.InterviewStatus,
		ScreeningScore:  req.ScreeningScore,
		OfferLetterSent: req.OfferLetterSent,
		ExceptionCount:  req.ExceptionCount,
		Flagged:         req.Flagged,
		Data:            data,
	}, nil
}

// normalizeData defaults an absent payload to an empty object and rejects
// anything that is not a JSON object.
func normalizeData(raw types.JSONText) (types.JSONText, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return types.JSONText(`{}`), nil
	}
	var fields map[string]interface{}
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return nil, appErrors.Validation(err, "data must be a JSON object")
	}
	return types.JSONText(trimmed), nil
}

func candidateNotFound() error {
	return appErrors.Clone(appErrors.ErrNotFound, "candidate not found")
}
