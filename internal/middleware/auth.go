package middleware

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/01moynul/fitstudio-golang/internal/auth"
	"github.com/gin-gonic/gin"
)

const (
	actorKey  = "actor"
	userIDKey = "userID"
)

// AuthMiddleware creates a gin.HandlerFunc that acts as our "security guard".
// The token names the user; the role and active flag are always re-read
// from the users table so a deactivated account loses access at once.
func AuthMiddleware(db *sql.DB, tokens *auth.TokenManager, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. --- Get Authorization Header ---
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token format (must be Bearer)"})
			return
		}

		// 2. --- Validate Token ---
		claims, err := tokens.ValidateToken(parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		// 3. --- Load current role ---
		role, err := queryUserRole(c, db, claims.UserID)
		if err != nil {
			if errors.Is(err, errInactiveUser) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Account is not active"})
				return
			}
			log.Error("failed to load user role", slog.String("user_id", claims.UserID), slog.Any("error", err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Database error checking role"})
			return
		}

		// 4. --- Success ---
		c.Set(userIDKey, claims.UserID)
		c.Set(actorKey, auth.Actor{UserID: claims.UserID, Role: role})
		c.Next()
	}
}

var errInactiveUser = errors.New("user missing or inactive")

func queryUserRole(c *gin.Context, db *sql.DB, userID string) (auth.Role, error) {
	var role string
	var active bool
	err := db.QueryRowContext(c.Request.Context(),
		"SELECT role, is_active FROM users WHERE id = ?", userID).Scan(&role, &active)
	if errors.Is(err, sql.ErrNoRows) {
		return "", errInactiveUser
	}
	if err != nil {
		return "", err
	}
	if !active || !auth.Role(role).Valid() {
		return "", errInactiveUser
	}
	return auth.Role(role), nil
}

// ActorFrom returns the caller stored by AuthMiddleware.
func ActorFrom(c *gin.Context) (auth.Actor, bool) {
	v, ok := c.Get(actorKey)
	if !ok {
		return auth.Actor{}, false
	}
	actor, ok := v.(auth.Actor)
	return actor, ok
}
