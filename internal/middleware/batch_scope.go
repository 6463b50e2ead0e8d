package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/admitguard-api/internal/models"
	appErrors "github.com/noah-isme/admitguard-api/pkg/errors"
	"github.com/noah-isme/admitguard-api/pkg/response"
)

// ContextBatchKey is the gin context key storing the resolved batch.
const ContextBatchKey = "currentBatch"

// BatchParam is the route parameter naming the batch.
const BatchParam = "batch_id"

// BatchResolver looks up a batch on behalf of an actor, applying the
// visibility policy.
type BatchResolver interface {
	Resolve(ctx context.Context, actor *models.JWTClaims, id string) (*models.Batch, error)
}

// BatchScope resolves :batch_id for the caller and stores the batch for
// nested handlers. Missing and invisible batches both abort with 404.
func BatchScope(batches BatchResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := CurrentUser(c)
		if claims == nil {
			response.Abort(c, appErrors.ErrUnauthorized)
			return
		}

		batch, err := batches.Resolve(c.Request.Context(), claims, c.Param(BatchParam))
		if err != nil {
			response.Abort(c, err)
			return
		}

		c.Set(ContextBatchKey, batch)
		c.Next()
	}
}

// CurrentBatch returns the batch attached by BatchScope, or nil.
func CurrentBatch(c *gin.Context) *models.Batch {
	value, exists := c.Get(ContextBatchKey)
	if !exists {
		return nil
	}
	batch, _ := value.(*models.Batch)
	return batch
}
