package booking

import (
	"sort"
	"sync"
	"testing"

	"github.com/01moynul/fitstudio-golang/internal/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConcurrentBookingsNeverOverbook(t *testing.T) {
	env := newTestEnv(t)
	classID := env.class(5)

	const members = 20
	actors := make([]auth.Actor, members)
	for i := range actors {
		actors[i], _ = env.member(ptr(3))
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		booked  int
		waiting []int
		errs    []error
	)
	for _, actor := range actors {
		wg.Add(1)
		go func(actor auth.Actor) {
			defer wg.Done()
			res, err := env.svc.CreateBooking(env.ctx, actor, classID)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				errs = append(errs, err)
			case res.Waitlisted():
				waiting = append(waiting, res.Waitlist.Position)
			default:
				booked++
			}
		}(actor)
	}
	wg.Wait()

	require.Empty(t, errs)
	assert.Equal(t, 5, booked)
	require.Len(t, waiting, members-5)

	sort.Ints(waiting)
	for i, pos := range waiting {
		assert.Equal(t, i+1, pos)
	}

	count, err := ActiveBookingCount(env.ctx, env.db, classID)
	require.NoError(t, err)
	assert.Equal(t, 5, count)
}

func TestConcurrentCancellationsPromoteInOrder(t *testing.T) {
	env := newTestEnv(t)
	classID := env.class(3)

	var holders []BookingResult
	var holderActors []auth.Actor
	for i := 0; i < 3; i++ {
		m, _ := env.member(ptr(3))
		holders = append(holders, env.book(m, classID))
		holderActors = append(holderActors, m)
	}
	var waiters []auth.Actor
	for i := 0; i < 4; i++ {
		m, _ := env.member(ptr(3))
		require.True(t, env.book(m, classID).Waitlisted())
		waiters = append(waiters, m)
	}

	var wg sync.WaitGroup
	for i := range holders {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := env.svc.CancelBooking(env.ctx, holderActors[i], holders[i].Booking.ID, "")
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	promoted := map[string]bool{}
	for _, e := range env.notifier.promoted() {
		promoted[e.UserID] = true
	}
	assert.Equal(t, map[string]bool{
		waiters[0].UserID: true,
		waiters[1].UserID: true,
		waiters[2].UserID: true,
	}, promoted)
	assert.Equal(t, map[string]int{waiters[3].UserID: 1}, env.waitingPositions(classID))
}
