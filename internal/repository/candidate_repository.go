package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/admitguard-api/internal/models"
)

// CandidateRepository persists candidates scoped to a batch.
type CandidateRepository struct {
	db *sqlx.DB
}

// NewCandidateRepository constructs a CandidateRepository.
func NewCandidateRepository(db *sqlx.DB) *CandidateRepository {
	return &CandidateRepository{db: db}
}

const candidateColumns = `id, batch_id, name, email, interview_status, screening_score, offer_letter_sent, exception_count, flagged, review_status, reviewed_by, review_note, data, created_at, updated_at`

// Create inserts a candidate. Review fields are always stored empty.
func (r *CandidateRepository) Create(ctx context.Context, c *models.Candidate) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = c.CreatedAt
	c.ReviewStatus, c.ReviewedBy, c.ReviewNote = nil, nil, nil

	const query = `INSERT INTO candidates (id, batch_id, name, email, interview_status, screening_score, offer_letter_sent, exception_count, flagged, data, created_at, updated_at) VALUES (:id, :batch_id, :name, :email, :interview_status, :screening_score, :offer_letter_sent, :exception_count, :flagged, :data, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, c); err != nil {
		return fmt.Errorf("create candidate: %w", err)
	}
	return nil
}

// ListByBatch returns the batch's candidates newest first.
func (r *CandidateRepository) ListByBatch(ctx context.Context, batchID string) ([]models.Candidate, error) {
	query := `SELECT ` + candidateColumns + ` FROM candidates WHERE batch_id = $1 ORDER BY created_at DESC`
	candidates := make([]models.Candidate, 0)
	if err := r.db.SelectContext(ctx, &candidates, query, batchID); err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	return candidates, nil
}

// FindInBatch returns a candidate only when it belongs to the batch.
func (r *CandidateRepository) FindInBatch(ctx context.Context, batchID, id string) (*models.Candidate, error) {
	query := `SELECT ` + candidateColumns + ` FROM candidates WHERE id = $1 AND batch_id = $2`
	var c models.Candidate
	if err := r.db.GetContext(ctx, &c, query, id, batchID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find candidate: %w", err)
	}
	return &c, nil
}

// Replace overwrites the intake fields of a candidate in the batch and
// returns the stored row. Review fields are left untouched.
func (r *CandidateRepository) Replace(ctx context.Context, c *models.Candidate) (*models.Candidate, error) {
	c.UpdatedAt = time.Now().UTC()
	query := `UPDATE candidates SET name = $3, email = $4, interview_status = $5, screening_score = $6, offer_letter_sent = $7, exception_count = $8, flagged = $9, data = $10, updated_at = $11
WHERE id = $1 AND batch_id = $2
RETURNING ` + candidateColumns
	var out models.Candidate
	err := r.db.GetContext(ctx, &out, query,
		c.ID, c.BatchID, c.Name, c.Email, c.InterviewStatus, c.ScreeningScore, c.OfferLetterSent,
		c.ExceptionCount, c.Flagged, c.Data, c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("replace candidate: %w", err)
	}
	return &out, nil
}

// UpdateReview sets only the review fields in a single statement.
func (r *CandidateRepository) UpdateReview(ctx context.Context, batchID, id string, review models.ReviewUpdate) (*models.Candidate, error) {
	query := `UPDATE candidates SET review_status = $3, reviewed_by = $4, review_note = $5, updated_at = $6
WHERE id = $1 AND batch_id = $2
RETURNING ` + candidateColumns
	var out models.Candidate
	err := r.db.GetContext(ctx, &out, query, id, batchID, review.ReviewStatus, review.ReviewedBy, review.ReviewNote, review.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("update candidate review: %w", err)
	}
	return &out, nil
}
