package handlers

import (
	"net/http"

	"github.com/01moynul/fitstudio-golang/internal/auth"
	"github.com/gin-gonic/gin"
)

//
// --- Trainer Client Handlers ---
//

// trainerParam reads ?trainer_id. Admins must name the trainer whose
// clients they want to see.
func trainerParam(c *gin.Context, actor auth.Actor) (string, bool) {
	trainerID := c.Query("trainer_id")
	if trainerID == "" && actor.Can(auth.CapManageAllClasses) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Trainer ID is required for admin users"})
		return "", false
	}
	return trainerID, true
}

// GetTrainerClients handles GET /v1/trainer/clients.
func (h *Handlers) GetTrainerClients(c *gin.Context) {
	actor := mustActor(c)
	trainerID, ok := trainerParam(c, actor)
	if !ok {
		return
	}

	clients, err := h.Bookings.TrainerClients(c.Request.Context(), actor, trainerID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"clients": clients})
}

// GetClientDetails handles GET /v1/trainer/clients/:client_id.
func (h *Handlers) GetClientDetails(c *gin.Context) {
	actor := mustActor(c)
	trainerID, ok := trainerParam(c, actor)
	if !ok {
		return
	}

	client, err := h.Bookings.ClientDetail(c.Request.Context(), actor, trainerID, c.Param("client_id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"client": client})
}
