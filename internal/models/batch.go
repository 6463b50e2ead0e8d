package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// Batch is an admission cycle. RulesConfig is stored and returned verbatim.
type Batch struct {
	ID          string         `db:"id" json:"id"`
	Name        string         `db:"name" json:"name"`
	Program     string         `db:"program" json:"program"`
	StartDate   string         `db:"start_date" json:"start_date"`
	IntakeSize  int            `db:"intake_size" json:"intake_size"`
	CreatedBy   string         `db:"created_by" json:"created_by"`
	RulesConfig types.JSONText `db:"rules_config" json:"rules_config" swaggertype:"object"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
}

// BatchFilter scopes batch listings. An empty CreatedBy lists every batch.
type BatchFilter struct {
	CreatedBy string
}

// CreateBatchRequest is the batch creation payload. A null or absent
// rules_config selects the default configuration.
type CreateBatchRequest struct {
	Name        string         `json:"name" validate:"required,min=1,max=120"`
	Program     string         `json:"program" validate:"required,min=1,max=120"`
	StartDate   string         `json:"start_date" validate:"required,datetime=2006-01-02"`
	IntakeSize  int            `json:"intake_size" validate:"required,min=1"`
	RulesConfig types.JSONText `json:"rules_config,omitempty" swaggertype:"object"`
}
