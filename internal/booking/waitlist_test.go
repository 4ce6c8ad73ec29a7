package booking

import (
	"testing"
	"time"

	"github.com/01moynul/fitstudio-golang/internal/auth"
	"github.com/01moynul/fitstudio-golang/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fullClass returns a class of capacity one that is already booked.
func fullClass(env *testEnv) string {
	env.t.Helper()
	classID := env.class(1)
	holder, _ := env.member(ptr(5))
	env.book(holder, classID)
	return classID
}

func TestRemoveFromWaitlistKeepsPositionsContiguous(t *testing.T) {
	env := newTestEnv(t)
	classID := fullClass(env)

	a, _ := env.member(ptr(5))
	b, _ := env.member(ptr(5))
	c, _ := env.member(ptr(5))
	env.book(a, classID)
	waitB := env.book(b, classID)
	env.book(c, classID)

	require.NoError(t, env.svc.RemoveFromWaitlist(env.ctx, b, waitB.Waitlist.ID))

	assert.Equal(t, models.WaitlistStatusRemoved, env.entry(waitB.Waitlist.ID).Status)
	assert.Equal(t, map[string]int{a.UserID: 1, c.UserID: 2}, env.waitingPositions(classID))
}

func TestRemoveFromWaitlistRules(t *testing.T) {
	env := newTestEnv(t)
	classID := fullClass(env)

	a, _ := env.member(ptr(5))
	other, _ := env.member(ptr(5))
	wait := env.book(a, classID)

	err := env.svc.RemoveFromWaitlist(env.ctx, a, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	err = env.svc.RemoveFromWaitlist(env.ctx, other, wait.Waitlist.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	require.NoError(t, env.svc.RemoveFromWaitlist(env.ctx, env.trainer, wait.Waitlist.ID))

	err = env.svc.RemoveFromWaitlist(env.ctx, a, wait.Waitlist.ID)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestRejoinAfterRemovalGoesToTail(t *testing.T) {
	env := newTestEnv(t)
	classID := fullClass(env)

	a, _ := env.member(ptr(5))
	b, _ := env.member(ptr(5))
	waitA := env.book(a, classID)
	env.book(b, classID)

	require.NoError(t, env.svc.RemoveFromWaitlist(env.ctx, a, waitA.Waitlist.ID))

	again := env.book(a, classID)
	require.True(t, again.Waitlisted())
	assert.Equal(t, waitA.Waitlist.ID, again.Waitlist.ID, "row is reused")
	assert.Equal(t, 2, again.Waitlist.Position)
	assert.Equal(t, map[string]int{b.UserID: 1, a.UserID: 2}, env.waitingPositions(classID))
}

func TestNotifiedMemberRequeuedWhenSpotTaken(t *testing.T) {
	env := newTestEnv(t)
	holder, _ := env.member(ptr(5))
	classID := env.class(1)
	booked := env.book(holder, classID)

	b, _ := env.member(ptr(5))
	waitB := env.book(b, classID)
	_, err := env.svc.CancelBooking(env.ctx, holder, booked.Booking.ID, "")
	require.NoError(t, err)
	require.Equal(t, models.WaitlistStatusNotified, env.entry(waitB.Waitlist.ID).Status)

	c, _ := env.member(ptr(5))
	taken := env.book(c, classID)
	require.False(t, taken.Waitlisted())

	again := env.book(b, classID)
	require.True(t, again.Waitlisted())
	assert.Equal(t, waitB.Waitlist.ID, again.Waitlist.ID, "row is reused")
	assert.Equal(t, 1, again.Waitlist.Position)
	assert.Equal(t, models.WaitlistStatusWaiting, env.entry(waitB.Waitlist.ID).Status)
}

func TestPromoteNextIsNoopWithoutCapacityOrWaiters(t *testing.T) {
	env := newTestEnv(t)

	empty := env.class(3)
	entry, err := env.svc.PromoteNext(env.ctx, empty)
	require.NoError(t, err)
	assert.Nil(t, entry, "nobody waiting")

	full := fullClass(env)
	waiter, _ := env.member(ptr(5))
	wait := env.book(waiter, full)

	entry, err = env.svc.PromoteNext(env.ctx, full)
	require.NoError(t, err)
	assert.Nil(t, entry, "no free spot")
	assert.Equal(t, models.WaitlistStatusWaiting, env.entry(wait.Waitlist.ID).Status)

	_, err = env.svc.PromoteNext(env.ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReorderWaitlistRepairsGaps(t *testing.T) {
	env := newTestEnv(t)
	classID := fullClass(env)

	var waiters []auth.Actor
	for i := 0; i < 3; i++ {
		m, _ := env.member(ptr(5))
		env.book(m, classID)
		waiters = append(waiters, m)
	}

	_, err := env.db.ExecContext(env.ctx,
		"UPDATE waitlist_entries SET position = position * 10 WHERE class_id = ?", classID)
	require.NoError(t, err)

	require.NoError(t, env.svc.ReorderWaitlist(env.ctx, classID))
	want := map[string]int{waiters[0].UserID: 1, waiters[1].UserID: 2, waiters[2].UserID: 3}
	assert.Equal(t, want, env.waitingPositions(classID))

	require.NoError(t, env.svc.ReorderWaitlist(env.ctx, classID))
	assert.Equal(t, want, env.waitingPositions(classID))
}

func TestUserWaitlistShowsWaitingAndNotified(t *testing.T) {
	env := newTestEnv(t)
	holder, _ := env.member(ptr(5))
	classID := env.class(1)
	booked := env.book(holder, classID)

	a, _ := env.member(ptr(5))
	env.book(a, classID)

	list, err := env.svc.UserWaitlist(env.ctx, a.UserID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, models.WaitlistStatusWaiting, list[0].Status)
	assert.Equal(t, "Spin", list[0].ClassName)

	_, err = env.svc.CancelBooking(env.ctx, holder, booked.Booking.ID, "")
	require.NoError(t, err)

	list, err = env.svc.UserWaitlist(env.ctx, a.UserID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, models.WaitlistStatusNotified, list[0].Status)
}

func TestUserWaitlistHidesCancelledClasses(t *testing.T) {
	env := newTestEnv(t)
	classID := fullClass(env)
	a, _ := env.member(ptr(5))
	env.book(a, classID)

	_, err := env.svc.CancelClass(env.ctx, env.trainer, classID, "Studio flooded")
	require.NoError(t, err)

	list, err := env.svc.UserWaitlist(env.ctx, a.UserID)
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Equal(t, map[string]int{a.UserID: 1}, env.waitingPositions(classID), "entry itself is untouched")
}

func TestExpireNotifiedPassesTurnToNextMember(t *testing.T) {
	env := newTestEnv(t)
	holder, _ := env.member(ptr(5))
	classID := env.class(1)
	booked := env.book(holder, classID)

	a, _ := env.member(ptr(5))
	b, _ := env.member(ptr(5))
	waitA := env.book(a, classID)
	waitB := env.book(b, classID)

	_, err := env.svc.CancelBooking(env.ctx, holder, booked.Booking.ID, "")
	require.NoError(t, err)
	require.Equal(t, models.WaitlistStatusNotified, env.entry(waitA.Waitlist.ID).Status)

	n, err := env.svc.ExpireNotified(env.ctx, 0)
	require.NoError(t, err)
	assert.Zero(t, n, "zero ttl disables expiry")

	n, err = env.svc.ExpireNotified(env.ctx, time.Hour)
	require.NoError(t, err)
	assert.Zero(t, n, "notification still fresh")

	n, err = env.at(2*time.Hour).ExpireNotified(env.ctx, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	assert.Equal(t, models.WaitlistStatusRemoved, env.entry(waitA.Waitlist.ID).Status)
	assert.Equal(t, models.WaitlistStatusNotified, env.entry(waitB.Waitlist.ID).Status)
	assert.Empty(t, env.waitingPositions(classID))
}
