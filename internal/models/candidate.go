package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// InterviewStatus is the intake interview outcome.
type InterviewStatus string

const (
	InterviewCleared    InterviewStatus = "Cleared"
	InterviewWaitlisted InterviewStatus = "Waitlisted"
	InterviewRejected   InterviewStatus = "Rejected"
)

// ReviewStatus is the admin/manager decision on a candidate.
type ReviewStatus string

const (
	ReviewAccepted ReviewStatus = "accepted"
	ReviewRejected ReviewStatus = "rejected"
)

// Candidate belongs to exactly one batch. Review fields are written only by
// the review operation.
type Candidate struct {
	ID              string           `db:"id" json:"id"`
	BatchID         string           `db:"batch_id" json:"batch_id"`
	Name            string           `db:"name" json:"name"`
	Email           string           `db:"email" json:"email"`
	InterviewStatus *InterviewStatus `db:"interview_status" json:"interview_status"`
	ScreeningScore  *float64         `db:"screening_score" json:"screening_score"`
	OfferLetterSent *bool            `db:"offer_letter_sent" json:"offer_letter_sent"`
	ExceptionCount  int              `db:"exception_count" json:"exception_count"`
	Flagged         bool             `db:"flagged" json:"flagged"`
	ReviewStatus    *ReviewStatus    `db:"review_status" json:"review_status"`
	ReviewedBy      *string          `db:"reviewed_by" json:"reviewed_by"`
	ReviewNote      *string          `db:"review_note" json:"review_note"`
	Data            types.JSONText   `db:"data" json:"data" swaggertype:"object"`
	CreatedAt       time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time        `db:"updated_at" json:"updated_at"`
}

// CandidateRequest is the intake payload shared by create and full update.
type CandidateRequest struct {
	Name            string           `json:"name" validate:"required,min=1,max=200"`
	Email           string           `json:"email" validate:"required,max=320"`
	InterviewStatus *InterviewStatus `json:"interview_status" validate:"omitempty,oneof=Cleared Waitlisted Rejected"`
	ScreeningScore  *float64         `json:"screening_score"`
	OfferLetterSent *bool            `json:"offer_letter_sent"`
	ExceptionCount  int              `json:"exception_count" validate:"min=0"`
	Flagged         bool             `json:"flagged"`
	Data            types.JSONText   `json:"data" swaggertype:"object"`
}

// ReviewRequest records a review decision.
type ReviewRequest struct {
	ReviewStatus ReviewStatus `json:"review_status" validate:"required,oneof=accepted rejected"`
	ReviewNote   *string      `json:"review_note" validate:"omitempty,max=2000"`
}

// ReviewUpdate is the field set applied by a review.
type ReviewUpdate struct {
	ReviewStatus ReviewStatus
	ReviewedBy   string
	ReviewNote   *string
	UpdatedAt    time.Time
}
