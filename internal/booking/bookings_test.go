package booking

import (
	"testing"
	"time"

	"github.com/01moynul/fitstudio-golang/internal/auth"
	"github.com/01moynul/fitstudio-golang/internal/events"
	"github.com/01moynul/fitstudio-golang/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateBookingDebitsUntilCreditsRunOut(t *testing.T) {
	env := newTestEnv(t)
	member, membershipID := env.member(ptr(2))

	first := env.book(member, env.class(10))
	require.NotNil(t, first.Booking)
	assert.Equal(t, models.BookingStatusBooked, first.Booking.Status)
	assert.Equal(t, 1, first.Booking.CreditsUsed)
	assert.Equal(t, 1, *env.f.Credits(membershipID))

	env.book(member, env.class(10))
	assert.Equal(t, 0, *env.f.Credits(membershipID))

	_, err := env.svc.CreateBooking(env.ctx, member, env.class(10))
	assert.ErrorIs(t, err, ErrForbidden)
	assert.Equal(t, 0, *env.f.Credits(membershipID))
}

func TestCreateBookingUsesClassTypeCredits(t *testing.T) {
	env := newTestEnv(t)
	member, membershipID := env.member(ptr(5))
	premium := env.f.ClassType(3, 10)
	classID := env.f.Class(premium, env.trainer.UserID, time.Now().Add(24*time.Hour), 10)

	res := env.book(member, classID)
	assert.Equal(t, 3, res.Booking.CreditsUsed)
	assert.Equal(t, 2, *env.f.Credits(membershipID))
}

func TestCreateBookingWithUnlimitedMembership(t *testing.T) {
	env := newTestEnv(t)
	member, membershipID := env.member(nil)

	res := env.book(member, env.class(10))
	require.NotNil(t, res.Booking)
	assert.Nil(t, env.f.Credits(membershipID))
}

func TestCreateBookingRejections(t *testing.T) {
	env := newTestEnv(t)
	member, _ := env.member(ptr(10))

	t.Run("unknown class", func(t *testing.T) {
		_, err := env.svc.CreateBooking(env.ctx, member, "missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("class already started", func(t *testing.T) {
		past := env.f.Class(env.classType, env.trainer.UserID, time.Now().Add(-time.Hour), 10)
		_, err := env.svc.CreateBooking(env.ctx, member, past)
		assert.ErrorIs(t, err, ErrInvalidState)
	})

	t.Run("cancelled class", func(t *testing.T) {
		classID := env.class(10)
		_, err := env.svc.CancelClass(env.ctx, env.trainer, classID, "Trainer sick")
		require.NoError(t, err)

		_, err = env.svc.CreateBooking(env.ctx, member, classID)
		assert.ErrorIs(t, err, ErrInvalidState)
	})

	t.Run("duplicate booking", func(t *testing.T) {
		classID := env.class(10)
		env.book(member, classID)

		_, err := env.svc.CreateBooking(env.ctx, member, classID)
		assert.ErrorIs(t, err, ErrConflict)
	})

	t.Run("rebooking after cancellation", func(t *testing.T) {
		classID := env.class(10)
		res := env.book(member, classID)
		_, err := env.svc.CancelBooking(env.ctx, member, res.Booking.ID, "")
		require.NoError(t, err)

		_, err = env.svc.CreateBooking(env.ctx, member, classID)
		assert.ErrorIs(t, err, ErrConflict)
	})

	t.Run("no membership", func(t *testing.T) {
		nobody := auth.Actor{UserID: env.f.User("member", ""), Role: auth.RoleMember}
		_, err := env.svc.CreateBooking(env.ctx, nobody, env.class(10))
		assert.ErrorIs(t, err, ErrForbidden)
	})
}

func TestFullClassWaitlistsAndCancellationPromotes(t *testing.T) {
	env := newTestEnv(t)
	a, aMembership := env.member(ptr(5))
	b, _ := env.member(ptr(5))
	c, _ := env.member(ptr(5))
	classID := env.class(1)

	booked := env.book(a, classID)
	require.NotNil(t, booked.Booking)
	assert.Equal(t, 4, *env.f.Credits(aMembership))

	waitB := env.book(b, classID)
	require.True(t, waitB.Waitlisted())
	assert.Equal(t, 1, waitB.Waitlist.Position)

	waitC := env.book(c, classID)
	require.True(t, waitC.Waitlisted())
	assert.Equal(t, 2, waitC.Waitlist.Position)

	_, err := env.svc.CreateBooking(env.ctx, b, classID)
	assert.ErrorIs(t, err, ErrConflict, "already waiting")

	cancelled, err := env.svc.CancelBooking(env.ctx, a, booked.Booking.ID, "Can't make it")
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CancellationReason)
	assert.Equal(t, "Can't make it", *cancelled.CancellationReason)
	assert.Equal(t, 5, *env.f.Credits(aMembership))

	promoted := env.entry(waitB.Waitlist.ID)
	assert.Equal(t, models.WaitlistStatusNotified, promoted.Status)
	assert.NotNil(t, promoted.NotificationTime)

	assert.Equal(t, map[string]int{c.UserID: 1}, env.waitingPositions(classID))

	notified := env.notifier.promoted()
	require.Len(t, notified, 1)
	assert.Equal(t, b.UserID, notified[0].UserID)

	assert.Equal(t, []events.Type{
		events.BookingCreated,
		events.WaitlistJoined,
		events.WaitlistJoined,
		events.BookingCancelled,
		events.WaitlistPromoted,
	}, env.publisher.types())
}

func TestPromotedMemberBookingConvertsEntry(t *testing.T) {
	env := newTestEnv(t)
	a, _ := env.member(ptr(5))
	b, _ := env.member(ptr(5))
	c, _ := env.member(ptr(5))
	classID := env.class(1)

	booked := env.book(a, classID)
	waitB := env.book(b, classID)
	env.book(c, classID)

	_, err := env.svc.CancelBooking(env.ctx, a, booked.Booking.ID, "")
	require.NoError(t, err)

	res := env.book(b, classID)
	require.NotNil(t, res.Booking)
	assert.Equal(t, models.WaitlistStatusConverted, env.entry(waitB.Waitlist.ID).Status)
	assert.Equal(t, map[string]int{c.UserID: 1}, env.waitingPositions(classID))
}

func TestWaitingMemberBookingFreedSpotConvertsEntry(t *testing.T) {
	env := newTestEnv(t)
	a, _ := env.member(ptr(5))
	b, _ := env.member(ptr(5))
	c, _ := env.member(ptr(5))
	classID := env.class(1)

	booked := env.book(a, classID)
	env.book(b, classID)
	waitC := env.book(c, classID)

	_, err := env.svc.CancelBooking(env.ctx, a, booked.Booking.ID, "")
	require.NoError(t, err)

	// B was notified but C grabs the spot first.
	res := env.book(c, classID)
	require.NotNil(t, res.Booking)
	assert.Equal(t, models.WaitlistStatusConverted, env.entry(waitC.Waitlist.ID).Status)
	assert.Empty(t, env.waitingPositions(classID))
}

func TestCancelBookingRules(t *testing.T) {
	env := newTestEnv(t)
	owner, _ := env.member(ptr(5))
	other, _ := env.member(ptr(5))

	t.Run("unknown booking", func(t *testing.T) {
		_, err := env.svc.CancelBooking(env.ctx, owner, "missing", "")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("another member", func(t *testing.T) {
		res := env.book(owner, env.class(5))
		_, err := env.svc.CancelBooking(env.ctx, other, res.Booking.ID, "")
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("trainer may cancel any booking", func(t *testing.T) {
		res := env.book(owner, env.class(5))
		_, err := env.svc.CancelBooking(env.ctx, env.trainer, res.Booking.ID, "")
		require.NoError(t, err)
		assert.Equal(t, models.BookingStatusCancelled, env.booking(res.Booking.ID).Status)
	})

	t.Run("already cancelled", func(t *testing.T) {
		res := env.book(owner, env.class(5))
		_, err := env.svc.CancelBooking(env.ctx, owner, res.Booking.ID, "")
		require.NoError(t, err)

		_, err = env.svc.CancelBooking(env.ctx, owner, res.Booking.ID, "")
		assert.ErrorIs(t, err, ErrInvalidState)
	})

	t.Run("class already started", func(t *testing.T) {
		classID := env.f.Class(env.classType, env.trainer.UserID, time.Now().Add(time.Hour), 5)
		res := env.book(owner, classID)

		_, err := env.at(2*time.Hour).CancelBooking(env.ctx, owner, res.Booking.ID, "")
		assert.ErrorIs(t, err, ErrInvalidState)
		assert.Equal(t, models.BookingStatusBooked, env.booking(res.Booking.ID).Status)
	})
}

func TestBookThenCancelRestoresCredits(t *testing.T) {
	env := newTestEnv(t)
	member, membershipID := env.member(ptr(3))

	res := env.book(member, env.class(5))
	assert.Equal(t, 2, *env.f.Credits(membershipID))

	_, err := env.svc.CancelBooking(env.ctx, member, res.Booking.ID, "")
	require.NoError(t, err)
	assert.Equal(t, 3, *env.f.Credits(membershipID))
}

func TestRefundGoesToCurrentMembership(t *testing.T) {
	env := newTestEnv(t)
	member, first := env.member(ptr(1))

	res := env.book(member, env.class(5))
	assert.Equal(t, 0, *env.f.Credits(first))

	// The debited membership lapses before the cancellation; a new one
	// picks up the refund.
	_, err := env.db.ExecContext(env.ctx, "UPDATE memberships SET status = 'expired' WHERE id = ?", first)
	require.NoError(t, err)
	second := env.f.Membership(member.UserID, ptr(4))

	_, err = env.svc.CancelBooking(env.ctx, member, res.Booking.ID, "")
	require.NoError(t, err)
	assert.Equal(t, 0, *env.f.Credits(first))
	assert.Equal(t, 5, *env.f.Credits(second))
}

func TestRefundDroppedWithoutActiveMembership(t *testing.T) {
	env := newTestEnv(t)
	member, membershipID := env.member(ptr(2))

	res := env.book(member, env.class(5))
	_, err := env.db.ExecContext(env.ctx, "UPDATE memberships SET status = 'paused' WHERE id = ?", membershipID)
	require.NoError(t, err)

	_, err = env.svc.CancelBooking(env.ctx, member, res.Booking.ID, "")
	require.NoError(t, err)
	assert.Equal(t, 1, *env.f.Credits(membershipID))
}

func TestUserBookingsFilters(t *testing.T) {
	env := newTestEnv(t)
	member, _ := env.member(ptr(10))

	soon := env.f.Class(env.classType, env.trainer.UserID, time.Now().Add(2*time.Hour), 5)
	later := env.f.Class(env.classType, env.trainer.UserID, time.Now().Add(72*time.Hour), 5)
	env.book(member, soon)
	res := env.book(member, later)
	_, err := env.svc.CancelBooking(env.ctx, member, res.Booking.ID, "")
	require.NoError(t, err)

	all, err := env.svc.UserBookings(env.ctx, member.UserID, BookingFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, later, all[0].ClassID, "latest class first")
	assert.Equal(t, "Spin", all[0].ClassName)
	assert.Equal(t, "Test trainer", all[0].TrainerName)

	cancelled, err := env.svc.UserBookings(env.ctx, member.UserID, BookingFilter{Status: models.BookingStatusCancelled})
	require.NoError(t, err)
	require.Len(t, cancelled, 1)
	assert.Equal(t, later, cancelled[0].ClassID)

	to := time.Now().Add(24 * time.Hour)
	early, err := env.svc.UserBookings(env.ctx, member.UserID, BookingFilter{To: &to})
	require.NoError(t, err)
	require.Len(t, early, 1)
	assert.Equal(t, soon, early[0].ClassID)
}
