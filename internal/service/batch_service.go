package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/admitguard-api/internal/models"
	"github.com/noah-isme/admitguard-api/internal/rules"
	"github.com/noah-isme/admitguard-api/pkg/config"
	appErrors "github.com/noah-isme/admitguard-api/pkg/errors"
)

type batchRepository interface {
	Create(ctx context.Context, batch *models.Batch) error
	FindByID(ctx context.Context, id string) (*models.Batch, error)
	List(ctx context.Context, filter models.BatchFilter) ([]models.Batch, error)
}

type batchCache interface {
	Get(ctx context.Context, key string, dest interface{}) bool
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration)
}

// BatchService owns batch creation and the visibility policy applied to
// listing, fetching and every nested candidate route.
type BatchService struct {
	repo       batchRepository
	cache      batchCache
	metrics    *MetricsService
	visibility string
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewBatchService constructs a BatchService. An empty visibility selects the
// shared policy.
func NewBatchService(repo batchRepository, cache batchCache, metrics *MetricsService, visibility string, validate *validator.Validate, logger *zap.Logger) *BatchService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if visibility == "" {
		visibility = config.VisibilityShared
	}
	return &BatchService{repo: repo, cache: cache, metrics: metrics, visibility: visibility, validator: validate, logger: logger}
}

// Create stores a new batch owned by the actor. An unset rules_config
// receives the default configuration; an explicit one is stored unchanged.
func (s *BatchService) Create(ctx context.Context, actor *models.JWTClaims, req models.CreateBatchRequest) (*models.Batch, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Program = strings.TrimSpace(req.Program)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid batch payload")
	}

	rulesConfig, err := rules.Resolve(req.RulesConfig)
	if err != nil {
		return nil, appErrors.Validation(err, "invalid rules_config: "+err.Error())
	}

	batch := &models.Batch{
		Name:        req.Name,
		Program:     req.Program,
		StartDate:   req.StartDate,
		IntakeSize:  req.IntakeSize,
		CreatedBy:   actor.UserID,
		RulesConfig: rulesConfig,
	}
	if err := s.repo.Create(ctx, batch); err != nil {
		return nil, appErrors.Internal(err, "failed to create batch")
	}

	s.metrics.RecordEvent(EventBatchCreated)
	s.cacheBatch(ctx, batch)
	return batch, nil
}

// List returns the batches visible to the actor, newest first.
func (s *BatchService) List(ctx context.Context, actor *models.JWTClaims) ([]models.Batch, error) {
	filter := models.BatchFilter{}
	if s.visibility == config.VisibilityPrivate {
		filter.CreatedBy = actor.UserID
	}
	batches, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list batches")
	}
	if batches == nil {
		batches = []models.Batch{}
	}
	return batches, nil
}

// Resolve returns the batch when it exists and is visible to the actor.
// Missing and invisible batches are reported identically.
func (s *BatchService) Resolve(ctx context.Context, actor *models.JWTClaims, id string) (*models.Batch, error) {
	notFound := appErrors.Clone(appErrors.ErrNotFound, "batch not found")
	if _, err := uuid.Parse(id); err != nil {
		return nil, notFound
	}

	var batch *models.Batch
	var cached models.Batch
	if s.cache != nil && s.cache.Get(ctx, batchCacheKey(id), &cached) {
		batch = &cached
	} else {
		found, err := s.repo.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, notFound
			}
			return nil, appErrors.Internal(err, "failed to load batch")
		}
		batch = found
		s.cacheBatch(ctx, batch)
	}

	if !s.visibleTo(batch, actor) {
		return nil, notFound
	}
	return batch, nil
}

func (s *BatchService) visibleTo(batch *models.Batch, actor *models.JWTClaims) bool {
	if s.visibility == config.VisibilityPrivate {
		return actor != nil && batch.CreatedBy == actor.UserID
	}
	return actor != nil
}

// Batches are immutable once created, so cached entries never go stale.
func (s *BatchService) cacheBatch(ctx context.Context, batch *models.Batch) {
	if s.cache == nil {
		return
	}
	s.cache.Set(ctx, batchCacheKey(batch.ID), batch, 0)
}

func batchCacheKey(id string) string {
	return "batch:" + id
}
