package handlers

import (
	"database/sql"
	"log/slog"

	"github.com/01moynul/fitstudio-golang/internal/auth"
	"github.com/01moynul/fitstudio-golang/internal/booking"
)

// Handlers struct holds all dependencies for our handlers.
type Handlers struct {
	DB       *sql.DB          // Used directly only for login and health checks
	Bookings *booking.Service // Booking workflow; every state change goes through it
	Tokens   *auth.TokenManager
	Log      *slog.Logger
}
