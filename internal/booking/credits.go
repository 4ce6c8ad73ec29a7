package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/01moynul/fitstudio-golang/internal/database"
	"github.com/01moynul/fitstudio-golang/internal/models"
)

const membershipColumns = "id, user_id, membership_type_id, start_date, end_date, status, remaining_credits"

func scanMembership(row rowScanner) (models.Membership, error) {
	var m models.Membership
	err := row.Scan(&m.ID, &m.UserID, &m.MembershipTypeID, &m.StartDate, &m.EndDate, &m.Status, &m.RemainingCredits)
	return m, err
}

// activeMembership returns the membership debits and refunds go to: the
// active, unexpired membership ending soonest. It returns nil when the
// user has none.
func (s *Service) activeMembership(ctx context.Context, q database.Querier, userID string, now time.Time, lock bool) (*models.Membership, error) {
	query := `SELECT ` + membershipColumns + ` FROM memberships
		WHERE user_id = ? AND status = ? AND end_date >= ?
		ORDER BY end_date, id
		LIMIT 1`
	if lock {
		query = s.db.ForUpdate(query)
	}

	m, err := scanMembership(q.QueryRowContext(ctx, query, userID, models.MembershipStatusActive, now))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load active membership for %s: %w", userID, err)
	}
	return &m, nil
}

// debitCredits takes amount credits from a finite membership. The guard in
// the WHERE clause keeps the balance from going negative.
func debitCredits(ctx context.Context, q database.Querier, m *models.Membership, amount int) error {
	if m.Unlimited() || amount == 0 {
		return nil
	}

	res, err := q.ExecContext(ctx,
		"UPDATE memberships SET remaining_credits = remaining_credits - ? WHERE id = ? AND remaining_credits >= ?",
		amount, m.ID, amount)
	if err != nil {
		return fmt.Errorf("debit membership %s: %w", m.ID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("debit membership %s: %w", m.ID, err)
	}
	if n != 1 {
		return forbidden("Insufficient credits")
	}

	left := *m.RemainingCredits - amount
	m.RemainingCredits = &left
	return nil
}

// refundCredits returns amount credits to the user's current active
// membership. The refund is dropped when that membership is unlimited or
// when the user has no active membership. It reports the credits returned.
func (s *Service) refundCredits(ctx context.Context, q database.Querier, userID string, amount int, now time.Time) (int, error) {
	if amount == 0 {
		return 0, nil
	}

	m, err := s.activeMembership(ctx, q, userID, now, true)
	if err != nil {
		return 0, err
	}
	if m == nil || m.Unlimited() {
		return 0, nil
	}

	if _, err := q.ExecContext(ctx,
		"UPDATE memberships SET remaining_credits = remaining_credits + ? WHERE id = ?",
		amount, m.ID); err != nil {
		return 0, fmt.Errorf("refund membership %s: %w", m.ID, err)
	}
	return amount, nil
}

// creditsRequired is the per-booking price of a class, taken from its type.
func creditsRequired(ctx context.Context, q database.Querier, classTypeID string) (int, error) {
	var credits int
	err := q.QueryRowContext(ctx, "SELECT credits_required FROM class_types WHERE id = ?", classTypeID).Scan(&credits)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, notFound("Class type not found")
	}
	if err != nil {
		return 0, fmt.Errorf("load credits for class type %s: %w", classTypeID, err)
	}
	return credits, nil
}

// UserMemberships lists every membership of a user, newest first.
func (s *Service) UserMemberships(ctx context.Context, userID string) ([]models.Membership, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+membershipColumns+" FROM memberships WHERE user_id = ? ORDER BY end_date DESC, id", userID)
	if err != nil {
		return nil, fmt.Errorf("list memberships: %w", err)
	}
	defer rows.Close()

	memberships := []models.Membership{}
	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			return nil, fmt.Errorf("scan membership: %w", err)
		}
		memberships = append(memberships, m)
	}
	return memberships, rows.Err()
}
