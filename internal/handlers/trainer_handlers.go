package handlers

import (
	"net/http"
	"time"

	"github.com/01moynul/fitstudio-golang/internal/auth"
	"github.com/01moynul/fitstudio-golang/internal/booking"
	"github.com/gin-gonic/gin"
)

// --- Inputs ---

type CancelClassInput struct {
	Reason string `json:"reason"`
}

type CreateClassInput struct {
	ClassTypeID string    `json:"class_type_id" binding:"required"`
	TrainerID   string    `json:"trainer_id"`
	StartTime   time.Time `json:"start_time" binding:"required"`
	EndTime     time.Time `json:"end_time" binding:"required"`
	Capacity    *int      `json:"capacity" binding:"omitempty,gte=0"`
	Location    *string   `json:"location"`
	Description *string   `json:"description"`
}

type UpdateClassInput struct {
	StartTime   *time.Time `json:"start_time"`
	EndTime     *time.Time `json:"end_time"`
	Capacity    *int       `json:"capacity" binding:"omitempty,gte=0"`
	Location    *string    `json:"location"`
	Description *string    `json:"description"`
}

// CancelClass handles POST /v1/trainer/classes/:id/cancel and runs the
// cancellation cascade.
func (h *Handlers) CancelClass(c *gin.Context) {
	var input CancelClassInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cancellation reason is required"})
		return
	}

	res, err := h.Bookings.CancelClass(c.Request.Context(), mustActor(c), c.Param("id"), input.Reason)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":            "Class cancelled successfully",
		"class_id":           res.ClassID,
		"cancelled_bookings": res.CancelledBookings,
		"credits_refunded":   res.CreditsRefunded,
	})
}

// GetSchedule handles GET /v1/trainer/schedule. Admins pick the trainer
// with ?trainer_id.
func (h *Handlers) GetSchedule(c *gin.Context) {
	actor := mustActor(c)
	f, ok := classFilter(c)
	if !ok {
		return
	}
	if f.TrainerID == "" && actor.Can(auth.CapManageAllClasses) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Trainer ID is required for admin users"})
		return
	}

	classes, err := h.Bookings.TrainerSchedule(c.Request.Context(), actor, f.TrainerID, f)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"classes": classes})
}

// CreateClass handles POST /v1/trainer/classes.
func (h *Handlers) CreateClass(c *gin.Context) {
	var input CreateClassInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	class, err := h.Bookings.CreateClass(c.Request.Context(), mustActor(c), booking.ClassInput{
		ClassTypeID: input.ClassTypeID,
		TrainerID:   input.TrainerID,
		StartTime:   input.StartTime,
		EndTime:     input.EndTime,
		Capacity:    input.Capacity,
		Location:    input.Location,
		Description: input.Description,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "Class created successfully",
		"class":   class,
	})
}

// UpdateClass handles PUT /v1/trainer/classes/:id.
func (h *Handlers) UpdateClass(c *gin.Context) {
	var input UpdateClassInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if input == (UpdateClassInput{}) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No data provided"})
		return
	}

	class, err := h.Bookings.UpdateClass(c.Request.Context(), mustActor(c), c.Param("id"), booking.ClassUpdate{
		StartTime:   input.StartTime,
		EndTime:     input.EndTime,
		Capacity:    input.Capacity,
		Location:    input.Location,
		Description: input.Description,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Class updated successfully",
		"class":   class,
	})
}

// GetAttendees handles GET /v1/trainer/classes/:id/attendees.
func (h *Handlers) GetAttendees(c *gin.Context) {
	attendees, err := h.Bookings.Attendees(c.Request.Context(), mustActor(c), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"attendees": attendees})
}

// CheckIn handles POST /v1/trainer/classes/:id/check-in/:booking_id.
func (h *Handlers) CheckIn(c *gin.Context) {
	b, err := h.Bookings.CheckIn(c.Request.Context(), mustActor(c), c.Param("id"), c.Param("booking_id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Member checked in", "booking": b})
}

// MarkNoShow handles POST /v1/trainer/classes/:id/no-show/:booking_id.
func (h *Handlers) MarkNoShow(c *gin.Context) {
	b, err := h.Bookings.MarkNoShow(c.Request.Context(), mustActor(c), c.Param("id"), c.Param("booking_id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Booking marked as no-show", "booking": b})
}
