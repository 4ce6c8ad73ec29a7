package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/01moynul/fitstudio-golang/internal/booking"
	"github.com/01moynul/fitstudio-golang/internal/models"
	"github.com/gin-gonic/gin"
)

type CreateBookingInput struct {
	ClassID string `json:"class_id" binding:"required"`
}

// CreateBooking handles POST /v1/bookings. A full class puts the caller
// on the waitlist; both outcomes answer 201.
func (h *Handlers) CreateBooking(c *gin.Context) {
	var input CreateBookingInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Class ID is required"})
		return
	}

	res, err := h.Bookings.CreateBooking(c.Request.Context(), mustActor(c), input.ClassID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	if res.Waitlisted() {
		c.JSON(http.StatusCreated, gin.H{
			"message":           "Added to waitlist",
			"waitlist_entry_id": res.Waitlist.ID,
			"waitlist_position": res.Waitlist.Position,
		})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message":    "Booking created successfully",
		"booking_id": res.Booking.ID,
	})
}

type CancelBookingInput struct {
	Reason string `json:"reason"`
}

// CancelBooking handles POST /v1/bookings/:id/cancel. The body is optional,
// and an empty one reads as io.EOF whether or not its length was declared.
func (h *Handlers) CancelBooking(c *gin.Context) {
	var input CancelBookingInput
	if err := c.ShouldBindJSON(&input); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	b, err := h.Bookings.CancelBooking(c.Request.Context(), mustActor(c), c.Param("id"), input.Reason)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Booking cancelled successfully",
		"booking": b,
	})
}

// GetBooking handles GET /v1/bookings/:id.
func (h *Handlers) GetBooking(c *gin.Context) {
	b, err := h.Bookings.GetBooking(c.Request.Context(), mustActor(c), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking": b})
}

var bookingStatuses = map[string]bool{
	models.BookingStatusBooked:    true,
	models.BookingStatusCancelled: true,
	models.BookingStatusAttended:  true,
	models.BookingStatusNoShow:    true,
}

// GetMyBookings handles GET /v1/bookings.
func (h *Handlers) GetMyBookings(c *gin.Context) {
	status := c.Query("status")
	if status != "" && !bookingStatuses[status] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
		return
	}
	from, ok := parseDateParam(c, "start_date", false)
	if !ok {
		return
	}
	to, ok := parseDateParam(c, "end_date", true)
	if !ok {
		return
	}

	bookings, err := h.Bookings.UserBookings(c.Request.Context(), mustActor(c).UserID, booking.BookingFilter{
		Status: status,
		From:   from,
		To:     to,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": bookings})
}
