// internal/middleware/auth.go
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/javajoker/move-permit-backend/internal/i18n"
	"github.com/javajoker/move-permit-backend/internal/models"
	"github.com/javajoker/move-permit-backend/internal/permits"
	"github.com/javajoker/move-permit-backend/internal/utils"
)

// AuthRequired trusts the identity asserted by a token from the platform's
// auth service and rejects anything it cannot read.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		lang := utils.GetLangFromContext(c)

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.UnauthorizedResponse(c, "")
			c.Abort()
			return
		}

		// Extract token from "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeyAuthInvalidToken))
			c.Abort()
			return
		}

		claims, err := utils.ValidateJWT(parts[1])
		if err != nil {
			utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeyAuthTokenExpired))
			c.Abort()
			return
		}

		if _, err := uuid.Parse(claims.UserID); err != nil || !models.ActorRole(claims.Role).IsValid() {
			utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeyAuthInvalidToken))
			c.Abort()
			return
		}

		// Set user info in context
		c.Set("user_id", claims.UserID)
		c.Set("user_role", claims.Role)
		c.Next()
	}
}

// RoleRequired admits only the listed roles. It must run after AuthRequired.
func RoleRequired(roles ...models.ActorRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, _ := utils.GetUserRoleFromContext(c)
		for _, allowed := range roles {
			if models.ActorRole(role) == allowed {
				c.Next()
				return
			}
		}

		utils.ForbiddenResponse(c, "")
		c.Abort()
	}
}

// CurrentActor returns the caller set by AuthRequired.
func CurrentActor(c *gin.Context) (permits.Actor, bool) {
	userID, ok := utils.GetUserIDFromContext(c)
	if !ok {
		return permits.Actor{}, false
	}
	id, err := uuid.Parse(userID)
	if err != nil {
		return permits.Actor{}, false
	}
	role, ok := utils.GetUserRoleFromContext(c)
	if !ok {
		return permits.Actor{}, false
	}
	return permits.Actor{ID: id, Role: models.ActorRole(role)}, true
}
