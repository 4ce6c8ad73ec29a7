package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

//
// --- Notification Handlers ---
//

// GetMyNotifications is the handler for GET /v1/notifications.
// It returns the caller's latest notices, unread first.
func (h *Handlers) GetMyNotifications(c *gin.Context) {
	notifications, err := h.Bookings.UserNotifications(c.Request.Context(), mustActor(c).UserID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": notifications})
}

// MarkNotificationAsRead is the handler for PATCH /v1/notifications/:id/read.
func (h *Handlers) MarkNotificationAsRead(c *gin.Context) {
	if err := h.Bookings.MarkNotificationRead(c.Request.Context(), mustActor(c).UserID, c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Notification marked as read"})
}
