package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/suvidhaworks/bizbooks_backend/utils"
)

// SessionMiddleware resolves the authenticated actor into tenant context.
// Identity itself is issued upstream; this only unpacks the claims and makes
// {business_id, role} available to every store call via the request context.
func SessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.Request.Header.Get("Authorization")

		if auth == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing authorization"})
			c.Abort()
			return
		}

		const bearer = "Bearer "
		if !strings.HasPrefix(auth, bearer) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}
		auth = auth[len(bearer):]

		validate, err := utils.JwtValidate(auth)
		if err != nil || !validate.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		claim, ok := validate.Claims.(*utils.JwtCustomClaim)
		if !ok || claim.BusinessId == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "no business in session"})
			c.Abort()
			return
		}

		ctx := c.Request.Context()
		ctx = utils.SetBusinessIdInContext(ctx, claim.BusinessId)
		ctx = utils.SetUserIdInContext(ctx, claim.UserId)
		ctx = utils.SetRoleInContext(ctx, claim.Role)
		if _, ok := utils.GetCorrelationIdFromContext(ctx); !ok {
			ctx = utils.SetCorrelationIdInContext(ctx, uuid.NewString())
		}
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
