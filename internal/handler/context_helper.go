package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/admitguard-api/internal/middleware"
	"github.com/noah-isme/admitguard-api/internal/models"
	appErrors "github.com/noah-isme/admitguard-api/pkg/errors"
	"github.com/noah-isme/admitguard-api/pkg/response"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	return middleware.CurrentUser(c)
}

// requireClaims writes 401 and returns nil when the request is unauthenticated.
func requireClaims(c *gin.Context) *models.JWTClaims {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
	}
	return claims
}

// requireBatch writes 404 and returns nil when no batch was resolved.
func requireBatch(c *gin.Context) *models.Batch {
	batch := middleware.CurrentBatch(c)
	if batch == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "batch not found"))
	}
	return batch
}

// bindJSON decodes the request body, answering 422 on malformed input.
func bindJSON(c *gin.Context, dest interface{}, message string) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.Validation(err, message))
		return false
	}
	return true
}
