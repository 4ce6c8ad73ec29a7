package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/01moynul/fitstudio-golang/internal/auth"
	"github.com/01moynul/fitstudio-golang/internal/booking"
	"github.com/01moynul/fitstudio-golang/internal/middleware"
	"github.com/gin-gonic/gin"
)

// respondError maps workflow errors to HTTP statuses. Anything that is not
// a workflow error is logged and hidden behind a generic 500.
func (h *Handlers) respondError(c *gin.Context, err error) {
	var bErr *booking.Error
	if !errors.As(err, &bErr) {
		h.Log.Error("request failed",
			slog.String("method", c.Request.Method),
			slog.String("path", c.FullPath()),
			slog.Any("error", err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, booking.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, booking.ErrInvalidState), errors.Is(err, booking.ErrUnprocessable):
		status = http.StatusBadRequest
	case errors.Is(err, booking.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, booking.ErrConflict):
		status = http.StatusConflict
	}
	c.JSON(status, gin.H{"error": bErr.Msg})
}

// mustActor returns the caller set by AuthMiddleware. Routes using it are
// always mounted behind that middleware.
func mustActor(c *gin.Context) auth.Actor {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		panic("handlers: route mounted without AuthMiddleware")
	}
	return actor
}

// localDateTimeLayouts are timestamps without a zone. They are read as UTC.
var localDateTimeLayouts = []string{"2006-01-02T15:04:05", time.DateTime}

// parseDateParam reads an optional RFC 3339 timestamp, zone-less
// timestamp or YYYY-MM-DD date from the query string. With endOfDay set, a
// bare date means the end of that day, so it can be used as an exclusive
// upper bound.
func parseDateParam(c *gin.Context, name string, endOfDay bool) (*time.Time, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, true
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		t = t.UTC()
		return &t, true
	}
	for _, layout := range localDateTimeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, true
		}
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name + " format"})
		return nil, false
	}
	if endOfDay {
		t = t.Add(24 * time.Hour)
	}
	return &t, true
}
