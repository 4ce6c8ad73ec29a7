package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/01moynul/fitstudio-golang/internal/auth"
	"github.com/01moynul/fitstudio-golang/internal/models"
)

// ClientSummary is one row of a trainer's client roster.
type ClientSummary struct {
	UserID       string     `json:"user_id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	Phone        *string    `json:"phone"`
	BookingCount int        `json:"booking_count"`
	LastAttended *time.Time `json:"last_attended"`
	NextClass    *time.Time `json:"next_class"`
}

type ClientBooking struct {
	BookingID   string     `json:"booking_id"`
	ClassID     string     `json:"class_id"`
	ClassType   string     `json:"class_type"`
	StartTime   time.Time  `json:"start_time"`
	EndTime     time.Time  `json:"end_time"`
	Status      string     `json:"status"`
	CheckInTime *time.Time `json:"check_in_time"`
}

type ClientStatistics struct {
	TotalBookings  int     `json:"total_bookings"`
	Attended       int     `json:"attended"`
	NoShows        int     `json:"no_shows"`
	Cancelled      int     `json:"cancelled"`
	AttendanceRate float64 `json:"attendance_rate"`
}

// ClientDetail is a client seen from one trainer's classes.
type ClientDetail struct {
	models.User

	BookingHistory []ClientBooking     `json:"booking_history"`
	Statistics     ClientStatistics    `json:"statistics"`
	Memberships    []models.Membership `json:"memberships"`
}

// TrainerClients lists everyone who has booked one of the trainer's
// classes, with their booking count, last attended class and next
// upcoming class.
func (s *Service) TrainerClients(ctx context.Context, actor auth.Actor, trainerID string) ([]ClientSummary, error) {
	if trainerID == "" {
		trainerID = actor.UserID
	}
	if !actor.CanManageClass(trainerID) {
		return nil, forbidden("You do not have permission to view these clients")
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT u.id, u.first_name, u.last_name, u.email, u.phone, b.status, c.start_time
		FROM bookings b
		JOIN classes c ON c.id = b.class_id
		JOIN users u ON u.id = b.user_id
		WHERE c.trainer_id = ?
		ORDER BY u.last_name, u.first_name, u.id, c.start_time`,
		trainerID)
	if err != nil {
		return nil, fmt.Errorf("list trainer clients: %w", err)
	}
	defer rows.Close()

	now := s.clock()
	clients := []ClientSummary{}
	for rows.Next() {
		var (
			u      models.User
			status string
			start  time.Time
		)
		if err := rows.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.Phone, &status, &start); err != nil {
			return nil, fmt.Errorf("scan client booking: %w", err)
		}

		// Rows arrive grouped by user.
		if len(clients) == 0 || clients[len(clients)-1].UserID != u.ID {
			clients = append(clients, ClientSummary{
				UserID: u.ID,
				Name:   u.FullName(),
				Email:  u.Email,
				Phone:  u.Phone,
			})
		}
		cs := &clients[len(clients)-1]
		cs.BookingCount++

		switch {
		case status == models.BookingStatusAttended:
			if cs.LastAttended == nil || start.After(*cs.LastAttended) {
				cs.LastAttended = &start
			}
		case status == models.BookingStatusBooked && start.After(now):
			if cs.NextClass == nil || start.Before(*cs.NextClass) {
				cs.NextClass = &start
			}
		}
	}
	return clients, rows.Err()
}

// ClientDetail returns a client's history with the trainer, attendance
// statistics and memberships. Users who never booked with the trainer are
// reported as not found.
func (s *Service) ClientDetail(ctx context.Context, actor auth.Actor, trainerID, clientID string) (ClientDetail, error) {
	if trainerID == "" {
		trainerID = actor.UserID
	}
	if !actor.CanManageClass(trainerID) {
		return ClientDetail{}, forbidden("You do not have permission to view this client")
	}

	var d ClientDetail
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, first_name, last_name, phone, role, is_active, created_at
		FROM users WHERE id = ?`, clientID,
	).Scan(&d.ID, &d.Email, &d.FirstName, &d.LastName, &d.Phone, &d.Role, &d.IsActive, &d.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ClientDetail{}, notFound("Client not found")
	}
	if err != nil {
		return ClientDetail{}, fmt.Errorf("load client: %w", err)
	}

	history, err := s.clientHistory(ctx, trainerID, clientID)
	if err != nil {
		return ClientDetail{}, err
	}
	if len(history) == 0 {
		return ClientDetail{}, notFound("Client not found")
	}
	d.BookingHistory = history
	d.Statistics = clientStatistics(history)

	d.Memberships, err = s.UserMemberships(ctx, clientID)
	if err != nil {
		return ClientDetail{}, err
	}
	return d, nil
}

func (s *Service) clientHistory(ctx context.Context, trainerID, clientID string) ([]ClientBooking, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT b.id, c.id, ct.name, c.start_time, c.end_time, b.status, b.check_in_time
		FROM bookings b
		JOIN classes c ON c.id = b.class_id
		JOIN class_types ct ON ct.id = c.class_type_id
		WHERE b.user_id = ? AND c.trainer_id = ?
		ORDER BY c.start_time DESC, b.id`,
		clientID, trainerID)
	if err != nil {
		return nil, fmt.Errorf("list client bookings: %w", err)
	}
	defer rows.Close()

	history := []ClientBooking{}
	for rows.Next() {
		var cb ClientBooking
		if err := rows.Scan(&cb.BookingID, &cb.ClassID, &cb.ClassType, &cb.StartTime, &cb.EndTime,
			&cb.Status, &cb.CheckInTime); err != nil {
			return nil, fmt.Errorf("scan client booking: %w", err)
		}
		history = append(history, cb)
	}
	return history, rows.Err()
}

func clientStatistics(history []ClientBooking) ClientStatistics {
	st := ClientStatistics{TotalBookings: len(history)}
	for _, cb := range history {
		switch cb.Status {
		case models.BookingStatusAttended:
			st.Attended++
		case models.BookingStatusNoShow:
			st.NoShows++
		case models.BookingStatusCancelled:
			st.Cancelled++
		}
	}
	if st.TotalBookings > 0 {
		rate := float64(st.Attended) / float64(st.TotalBookings) * 100
		st.AttendanceRate = math.Round(rate*100) / 100
	}
	return st
}
