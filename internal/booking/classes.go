package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/01moynul/fitstudio-golang/internal/auth"
	"github.com/01moynul/fitstudio-golang/internal/models"
)

// ClassFilter narrows class listings. A nil From means "from now on";
// To is exclusive.
type ClassFilter struct {
	From             *time.Time
	To               *time.Time
	ClassTypeID      string
	TrainerID        string
	IncludeCancelled bool
}

const listingSelect = `
	SELECT c.id, c.class_type_id, c.trainer_id, c.start_time, c.end_time, c.capacity, c.location,
		c.description, c.is_cancelled, c.cancellation_reason, c.created_at, c.updated_at,
		ct.name, ct.credits_required, u.first_name, u.last_name,
		(SELECT COUNT(*) FROM bookings b WHERE b.class_id = c.id AND b.status IN ('booked', 'attended')),
		(SELECT COUNT(*) FROM waitlist_entries w WHERE w.class_id = c.id AND w.status = 'waiting'),
		(SELECT b.status FROM bookings b WHERE b.class_id = c.id AND b.user_id = ?),
		(SELECT w.position FROM waitlist_entries w WHERE w.class_id = c.id AND w.user_id = ? AND w.status = 'waiting')
	FROM classes c
	JOIN class_types ct ON ct.id = c.class_type_id
	JOIN users u ON u.id = c.trainer_id`

func scanListing(row rowScanner) (models.ClassListing, error) {
	var l models.ClassListing
	var first, last string
	err := row.Scan(&l.ID, &l.ClassTypeID, &l.TrainerID, &l.StartTime, &l.EndTime, &l.Capacity, &l.Location,
		&l.Description, &l.IsCancelled, &l.CancellationReason, &l.CreatedAt, &l.UpdatedAt,
		&l.ClassTypeName, &l.CreditsRequired, &first, &last,
		&l.BookingCount, &l.WaitlistCount, &l.UserBookingStatus, &l.UserWaitlistPosition)
	if err != nil {
		return l, err
	}
	l.TrainerName = models.User{FirstName: first, LastName: last}.FullName()
	l.AvailableSpots = max(l.Capacity-l.BookingCount, 0)
	return l, nil
}

// ListClasses returns sessions in start order, annotated for the viewer.
func (s *Service) ListClasses(ctx context.Context, viewerID string, f ClassFilter) ([]models.ClassListing, error) {
	from := s.clock()
	if f.From != nil {
		from = f.From.UTC()
	}

	var sb strings.Builder
	sb.WriteString(listingSelect)
	sb.WriteString(" WHERE c.start_time >= ?")
	args := []any{viewerID, viewerID, from}

	if !f.IncludeCancelled {
		sb.WriteString(" AND c.is_cancelled = ?")
		args = append(args, false)
	}
	if f.To != nil {
		sb.WriteString(" AND c.start_time < ?")
		args = append(args, f.To.UTC())
	}
	if f.ClassTypeID != "" {
		sb.WriteString(" AND c.class_type_id = ?")
		args = append(args, f.ClassTypeID)
	}
	if f.TrainerID != "" {
		sb.WriteString(" AND c.trainer_id = ?")
		args = append(args, f.TrainerID)
	}
	sb.WriteString(" ORDER BY c.start_time, c.id")

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}
	defer rows.Close()

	classes := []models.ClassListing{}
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("scan class: %w", err)
		}
		classes = append(classes, l)
	}
	return classes, rows.Err()
}

// GetClass returns one session, cancelled or not, annotated for the viewer.
func (s *Service) GetClass(ctx context.Context, viewerID, classID string) (models.ClassListing, error) {
	l, err := scanListing(s.db.QueryRowContext(ctx, listingSelect+" WHERE c.id = ?", viewerID, viewerID, classID))
	if errors.Is(err, sql.ErrNoRows) {
		return l, notFound("Class not found")
	}
	if err != nil {
		return l, fmt.Errorf("load class %s: %w", classID, err)
	}
	return l, nil
}

// TrainerSchedule lists a trainer's sessions including cancelled ones.
// Trainers see their own schedule; admins may ask for anyone's.
func (s *Service) TrainerSchedule(ctx context.Context, actor auth.Actor, trainerID string, f ClassFilter) ([]models.ClassListing, error) {
	if trainerID == "" {
		trainerID = actor.UserID
	}
	if !actor.CanManageClass(trainerID) {
		return nil, forbidden("You do not have permission to view this schedule")
	}

	f.TrainerID = trainerID
	f.IncludeCancelled = true
	return s.ListClasses(ctx, actor.UserID, f)
}

// ClassInput describes a new session. Capacity defaults to the class
// type's default capacity.
type ClassInput struct {
	ClassTypeID string
	TrainerID   string
	StartTime   time.Time
	EndTime     time.Time
	Capacity    *int
	Location    *string
	Description *string
}

// ClassUpdate reschedules or resizes a session. Nil fields are unchanged.
type ClassUpdate struct {
	StartTime   *time.Time
	EndTime     *time.Time
	Capacity    *int
	Location    *string
	Description *string
}

// lockTrainer locks the trainer's user row, which serializes scheduling
// checks for that trainer.
func (s *Service) lockTrainer(ctx context.Context, tx *sql.Tx, trainerID string) error {
	var role string
	var active bool
	err := tx.QueryRowContext(ctx,
		s.db.ForUpdate("SELECT role, is_active FROM users WHERE id = ?"), trainerID).Scan(&role, &active)
	if errors.Is(err, sql.ErrNoRows) {
		return notFound("Trainer not found")
	}
	if err != nil {
		return fmt.Errorf("load trainer %s: %w", trainerID, err)
	}
	if !active || !auth.Role(role).Can(auth.CapManageOwnClasses) {
		return notFound("Trainer not found")
	}
	return nil
}

// checkScheduleConflict rejects a slot overlapping another live session
// of the same trainer.
func checkScheduleConflict(ctx context.Context, tx *sql.Tx, trainerID string, start, end time.Time, excludeID string) error {
	var overlapping int
	err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM classes
		WHERE trainer_id = ? AND is_cancelled = ? AND id <> ? AND start_time < ? AND end_time > ?`,
		trainerID, false, excludeID, end, start).Scan(&overlapping)
	if err != nil {
		return fmt.Errorf("check schedule conflict: %w", err)
	}
	if overlapping > 0 {
		return conflict("Trainer already has a class scheduled during this time")
	}
	return nil
}

func validateSlot(start, end, now time.Time) error {
	if !end.After(start) {
		return unprocessable("end_time must be after start_time")
	}
	if start.Before(now) {
		return invalidState("Cannot schedule a class in the past")
	}
	return nil
}

// CreateClass schedules a new session.
func (s *Service) CreateClass(ctx context.Context, actor auth.Actor, in ClassInput) (models.ClassSession, error) {
	if !actor.Can(auth.CapManageOwnClasses) {
		return models.ClassSession{}, forbidden("You do not have permission to schedule classes")
	}

	trainerID := in.TrainerID
	if trainerID == "" {
		if actor.Can(auth.CapManageAllClasses) {
			return models.ClassSession{}, unprocessable("trainer_id is required")
		}
		trainerID = actor.UserID
	}
	if !actor.CanManageClass(trainerID) {
		return models.ClassSession{}, forbidden("You can only schedule your own classes")
	}

	now := s.clock()
	start, end := in.StartTime.UTC(), in.EndTime.UTC()
	if err := validateSlot(start, end, now); err != nil {
		return models.ClassSession{}, err
	}
	if in.Capacity != nil && *in.Capacity < 0 {
		return models.ClassSession{}, unprocessable("capacity must not be negative")
	}

	class := models.ClassSession{
		ID:          newID(),
		ClassTypeID: in.ClassTypeID,
		TrainerID:   trainerID,
		StartTime:   start,
		EndTime:     end,
		Location:    in.Location,
		Description: in.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		var defaultCapacity int
		var active bool
		err := tx.QueryRowContext(ctx,
			"SELECT default_capacity, is_active FROM class_types WHERE id = ?", in.ClassTypeID,
		).Scan(&defaultCapacity, &active)
		if errors.Is(err, sql.ErrNoRows) {
			return notFound("Class type not found")
		}
		if err != nil {
			return fmt.Errorf("load class type: %w", err)
		}
		if !active {
			return invalidState("Class type is not active")
		}

		class.Capacity = defaultCapacity
		if in.Capacity != nil {
			class.Capacity = *in.Capacity
		}

		if err := s.lockTrainer(ctx, tx, trainerID); err != nil {
			return err
		}
		if err := checkScheduleConflict(ctx, tx, trainerID, start, end, ""); err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO classes (id, class_type_id, trainer_id, start_time, end_time, capacity, location,
				description, is_cancelled, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			class.ID, class.ClassTypeID, class.TrainerID, class.StartTime, class.EndTime, class.Capacity,
			class.Location, class.Description, false, class.CreatedAt, class.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert class: %w", err)
		}
		return nil
	})
	if err != nil {
		return models.ClassSession{}, err
	}

	s.log.Info("class scheduled",
		slog.String("class_id", class.ID),
		slog.String("trainer_id", trainerID),
		slog.Time("start_time", start),
	)
	return class, nil
}

// UpdateClass reschedules or resizes a session that has not started yet.
// Added capacity is offered to the waitlist.
func (s *Service) UpdateClass(ctx context.Context, actor auth.Actor, classID string, in ClassUpdate) (models.ClassSession, error) {
	now := s.clock()
	var class models.ClassSession
	var added int

	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		var err error
		class, err = s.getClass(ctx, tx, classID, true)
		if err != nil {
			return err
		}
		if !actor.CanManageClass(class.TrainerID) {
			return forbidden("You do not have permission to update this class")
		}
		if class.IsCancelled {
			return invalidState("Cannot update a cancelled class")
		}
		if !now.Before(class.StartTime) {
			return invalidState("Cannot update a class that has already started")
		}

		start, end := class.StartTime, class.EndTime
		if in.StartTime != nil {
			start = in.StartTime.UTC()
		}
		if in.EndTime != nil {
			end = in.EndTime.UTC()
		}
		if in.StartTime != nil || in.EndTime != nil {
			if err := validateSlot(start, end, now); err != nil {
				return err
			}
			if err := s.lockTrainer(ctx, tx, class.TrainerID); err != nil {
				return err
			}
			if err := checkScheduleConflict(ctx, tx, class.TrainerID, start, end, class.ID); err != nil {
				return err
			}
		}

		capacity := class.Capacity
		if in.Capacity != nil {
			if *in.Capacity < 0 {
				return unprocessable("capacity must not be negative")
			}
			booked, err := ActiveBookingCount(ctx, tx, class.ID)
			if err != nil {
				return err
			}
			if *in.Capacity < booked {
				return invalidState("Capacity cannot be lower than the %d current bookings", booked)
			}
			capacity = *in.Capacity
		}
		added = capacity - class.Capacity

		class.StartTime, class.EndTime, class.Capacity = start, end, capacity
		if in.Location != nil {
			class.Location = in.Location
		}
		if in.Description != nil {
			class.Description = in.Description
		}
		class.UpdatedAt = now

		_, err = tx.ExecContext(ctx,
			`UPDATE classes SET start_time = ?, end_time = ?, capacity = ?, location = ?, description = ?, updated_at = ?
			WHERE id = ?`,
			class.StartTime, class.EndTime, class.Capacity, class.Location, class.Description, class.UpdatedAt, class.ID)
		if err != nil {
			return fmt.Errorf("update class: %w", err)
		}
		return nil
	})
	if err != nil {
		return models.ClassSession{}, err
	}

	for i := 0; i < added; i++ {
		entry, err := s.PromoteNext(ctx, class.ID)
		if err != nil {
			s.log.Error("failed to promote waitlist after capacity change",
				slog.String("class_id", class.ID),
				slog.Any("error", err),
			)
			break
		}
		if entry == nil {
			break
		}
	}
	return class, nil
}
