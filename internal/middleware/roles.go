package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/taskboard/taskboard-api/internal/authz"
	apierrors "github.com/taskboard/taskboard-api/internal/errors"
)

// RequireOperation gates a route on the role policy for an operation.
// Ownership-sensitive checks still happen in the services, which see
// the loaded resource; this middleware only rejects callers whose role
// can never reach the operation.
func RequireOperation(gate *authz.Gate, op authz.Operation) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, exists := GetCurrentUser(c)
		if !exists {
			apierrors.Unauthorized(c, "Authentication required")
			c.Abort()
			return
		}

		decision := gate.Authorize(authz.Input{
			Role:      user.Role,
			Operation: op,
			CallerID:  user.ID,
		})
		if !decision.Allowed {
			apierrors.ForbiddenWithRoles(c, decision.Reason, gate.AllowedRoles(op), user.Role)
			c.Abort()
			return
		}

		c.Next()
	}
}
