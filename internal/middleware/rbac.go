package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/admitguard-api/internal/models"
	appErrors "github.com/noah-isme/admitguard-api/pkg/errors"
	"github.com/noah-isme/admitguard-api/pkg/response"
)

// RequireRoles admits only callers whose token role is in the allowed set.
// It must run after JWT.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make(map[models.UserRole]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(c *gin.Context) {
		claims := CurrentUser(c)
		if claims == nil {
			response.Abort(c, appErrors.ErrUnauthorized)
			return
		}
		if _, ok := allowed[claims.Role]; !ok {
			response.Abort(c, appErrors.Clone(appErrors.ErrForbidden, "insufficient role"))
			return
		}
		c.Next()
	}
}
