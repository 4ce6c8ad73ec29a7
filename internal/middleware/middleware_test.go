package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/01moynul/fitstudio-golang/internal/auth"
	"github.com/01moynul/fitstudio-golang/internal/database/databasetest"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestAuthMiddleware(t *testing.T) {
	db := databasetest.New(t)
	f := databasetest.NewFixtures(t, db)
	tokens := auth.NewTokenManager("test-secret", time.Hour)

	trainerID := f.User("trainer", "")
	inactiveID := f.User("member", "")
	_, err := db.ExecContext(context.Background(), "UPDATE users SET is_active = ? WHERE id = ?", false, inactiveID)
	require.NoError(t, err)

	router := gin.New()
	router.Use(AuthMiddleware(db.DB, tokens, databasetest.DiscardLogger()))
	router.GET("/me", func(c *gin.Context) {
		actor, ok := ActorFrom(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"id": actor.UserID, "role": actor.Role})
	})

	// The token says member, but the users table wins.
	staleRole, err := tokens.GenerateToken(trainerID, auth.RoleMember)
	require.NoError(t, err)
	inactive, err := tokens.GenerateToken(inactiveID, auth.RoleMember)
	require.NoError(t, err)
	unknown, err := tokens.GenerateToken("nobody", auth.RoleAdmin)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"not bearer", "Token abc", http.StatusUnauthorized},
		{"bad token", "Bearer abc", http.StatusUnauthorized},
		{"inactive user", "Bearer " + inactive, http.StatusUnauthorized},
		{"unknown user", "Bearer " + unknown, http.StatusUnauthorized},
		{"valid", "Bearer " + staleRole, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, tt.status, w.Code)
		})
	}

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+staleRole)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.JSONEq(t, `{"id":"`+trainerID+`","role":"trainer"}`, w.Body.String())
}

func TestRequireCapability(t *testing.T) {
	withActor := func(actor *auth.Actor) *gin.Engine {
		router := gin.New()
		router.Use(func(c *gin.Context) {
			if actor != nil {
				c.Set(actorKey, *actor)
			}
			c.Next()
		})
		router.GET("/trainer", RequireCapability(auth.CapManageOwnClasses), func(c *gin.Context) {
			c.Status(http.StatusNoContent)
		})
		return router
	}

	tests := []struct {
		name   string
		actor  *auth.Actor
		status int
	}{
		{"no actor", nil, http.StatusUnauthorized},
		{"member", &auth.Actor{UserID: "m", Role: auth.RoleMember}, http.StatusForbidden},
		{"trainer", &auth.Actor{UserID: "t", Role: auth.RoleTrainer}, http.StatusNoContent},
		{"admin", &auth.Actor{UserID: "a", Role: auth.RoleAdmin}, http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			withActor(tt.actor).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/trainer", nil))
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestRateLimit(t *testing.T) {
	rdb, mock := redismock.NewClientMock()

	router := gin.New()
	router.Use(RateLimit(rdb, 2, databasetest.DiscardLogger()))
	router.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	do := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.RemoteAddr = "203.0.113.7:4321"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	key := "ratelimit:203.0.113.7"
	mock.ExpectIncr(key).SetVal(1)
	mock.ExpectExpire(key, time.Minute).SetVal(true)
	assert.Equal(t, http.StatusOK, do().Code)

	mock.ExpectIncr(key).SetVal(2)
	assert.Equal(t, http.StatusOK, do().Code)

	mock.ExpectIncr(key).SetVal(3)
	w := do()
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))

	mock.ExpectIncr(key).SetErr(errors.New("connection refused"))
	assert.Equal(t, http.StatusOK, do().Code, "redis outage fails open")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestLoggerPassesThrough(t *testing.T) {
	router := gin.New()
	router.Use(RequestLogger(databasetest.DiscardLogger()))
	router.GET("/classes/:id", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/classes/42", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nowhere", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
