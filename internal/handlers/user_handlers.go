package handlers

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/01moynul/fitstudio-golang/internal/auth"
	"github.com/01moynul/fitstudio-golang/internal/models"
	"github.com/gin-gonic/gin"
)

// --- User Login ---

// LoginInput defines the JSON data expected for a login.
type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login is the handler for the /v1/auth/login endpoint.
func (h *Handlers) Login(c *gin.Context) {
	// 1. --- Bind & Validate JSON ---
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// 2. --- Find User By Email ---
	var user models.User
	err := h.DB.QueryRowContext(c.Request.Context(),
		"SELECT id, email, password_hash, first_name, last_name, role, is_active FROM users WHERE email = ?",
		strings.ToLower(strings.TrimSpace(input.Email)),
	).Scan(&user.ID, &user.Email, &user.PasswordHash, &user.FirstName, &user.LastName, &user.Role, &user.IsActive)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}
		h.respondError(c, err)
		return
	}

	// 3. --- Check Password ---
	password := models.Password{Hash: user.PasswordHash}
	match, err := password.Matches(input.Password)
	if err != nil || !match {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}
	if !user.IsActive {
		c.JSON(http.StatusForbidden, gin.H{"error": "Your account has been deactivated. Please contact support."})
		return
	}

	// 4. --- Generate JWT (The "Passport") ---
	token, err := h.Tokens.GenerateToken(user.ID, auth.Role(user.Role))
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.Log.Info("user logged in", slog.String("user_id", user.ID), slog.String("role", user.Role))
	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"token":   token,
		"user":    user,
	})
}

// GetMyMemberships handles GET /v1/memberships.
func (h *Handlers) GetMyMemberships(c *gin.Context) {
	memberships, err := h.Bookings.UserMemberships(c.Request.Context(), mustActor(c).UserID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"memberships": memberships})
}
