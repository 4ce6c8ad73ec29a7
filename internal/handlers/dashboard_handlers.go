package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

//
// --- Trainer Dashboard Stats ---
//

// GetTrainerStats returns KPI data for the trainer dashboard.
// GET /v1/trainer/dashboard-stats (admins pass ?trainer_id)
func (h *Handlers) GetTrainerStats(c *gin.Context) {
	stats, err := h.Bookings.TrainerDashboard(c.Request.Context(), mustActor(c), c.Query("trainer_id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
