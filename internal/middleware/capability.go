package middleware

import (
	"net/http"

	"github.com/01moynul/fitstudio-golang/internal/auth"
	"github.com/gin-gonic/gin"
)

// RequireCapability must run after AuthMiddleware. It rejects callers whose
// role does not grant c. Ownership checks stay in the booking service.
func RequireCapability(c auth.Capability) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		actor, ok := ActorFrom(ctx)
		if !ok {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "User not found in context (AuthMiddleware must run first)"})
			return
		}
		if !actor.Can(c) {
			ctx.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Access denied: insufficient permissions"})
			return
		}
		ctx.Next()
	}
}
