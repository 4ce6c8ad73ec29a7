package handlers

import (
	"net/http"

	"github.com/01moynul/fitstudio-golang/internal/booking"
	"github.com/gin-gonic/gin"
)

// classFilter reads the listing query parameters shared by the member and
// trainer views.
func classFilter(c *gin.Context) (booking.ClassFilter, bool) {
	from, ok := parseDateParam(c, "start_date", false)
	if !ok {
		return booking.ClassFilter{}, false
	}
	to, ok := parseDateParam(c, "end_date", true)
	if !ok {
		return booking.ClassFilter{}, false
	}
	return booking.ClassFilter{
		From:        from,
		To:          to,
		ClassTypeID: c.Query("class_type"),
		TrainerID:   c.Query("trainer_id"),
	}, true
}

// ListClasses handles GET /v1/classes.
func (h *Handlers) ListClasses(c *gin.Context) {
	actor := mustActor(c)
	f, ok := classFilter(c)
	if !ok {
		return
	}

	classes, err := h.Bookings.ListClasses(c.Request.Context(), actor.UserID, f)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"classes": classes})
}

// GetClass handles GET /v1/classes/:id.
func (h *Handlers) GetClass(c *gin.Context) {
	actor := mustActor(c)

	class, err := h.Bookings.GetClass(c.Request.Context(), actor.UserID, c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"class": class})
}
