package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetMyWaitlist handles GET /v1/waitlist.
func (h *Handlers) GetMyWaitlist(c *gin.Context) {
	entries, err := h.Bookings.UserWaitlist(c.Request.Context(), mustActor(c).UserID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"waitlist": entries})
}

// RemoveFromWaitlist handles POST /v1/waitlist/:id/remove.
func (h *Handlers) RemoveFromWaitlist(c *gin.Context) {
	if err := h.Bookings.RemoveFromWaitlist(c.Request.Context(), mustActor(c), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Removed from waitlist successfully"})
}
