package booking

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/01moynul/fitstudio-golang/internal/auth"
	"github.com/01moynul/fitstudio-golang/internal/database"
	"github.com/01moynul/fitstudio-golang/internal/database/databasetest"
	"github.com/01moynul/fitstudio-golang/internal/events"
	"github.com/01moynul/fitstudio-golang/internal/models"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	mu      sync.Mutex
	entries []models.WaitlistEntry
}

func (n *recordingNotifier) WaitlistPromoted(_ context.Context, entry models.WaitlistEntry) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.entries = append(n.entries, entry)
	return nil
}

func (n *recordingNotifier) promoted() []models.WaitlistEntry {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]models.WaitlistEntry(nil), n.entries...)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) types() []events.Type {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []events.Type
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type testEnv struct {
	t         *testing.T
	ctx       context.Context
	db        *database.DB
	f         *databasetest.Fixtures
	svc       *Service
	notifier  *recordingNotifier
	publisher *recordingPublisher

	trainer   auth.Actor
	admin     auth.Actor
	classType string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := databasetest.New(t)
	f := databasetest.NewFixtures(t, db)
	env := &testEnv{
		t:         t,
		ctx:       context.Background(),
		db:        db,
		f:         f,
		notifier:  &recordingNotifier{},
		publisher: &recordingPublisher{},
	}
	env.svc = NewService(db, databasetest.DiscardLogger(),
		WithNotifier(env.notifier),
		WithPublisher(env.publisher),
	)

	env.trainer = auth.Actor{UserID: f.User("trainer", ""), Role: auth.RoleTrainer}
	env.admin = auth.Actor{UserID: f.User("admin", ""), Role: auth.RoleAdmin}
	env.classType = f.ClassType(1, 20)
	return env
}

// at returns a service over the same store whose clock is shifted by d.
func (e *testEnv) at(d time.Duration) *Service {
	return NewService(e.db, databasetest.DiscardLogger(),
		WithNotifier(e.notifier),
		WithPublisher(e.publisher),
		WithClock(func() time.Time { return time.Now().Add(d) }),
	)
}

// member creates a member holding a membership with the given credits
// (nil for unlimited) and returns the actor and membership id.
func (e *testEnv) member(credits *int) (auth.Actor, string) {
	e.t.Helper()
	id := e.f.User("member", "")
	return auth.Actor{UserID: id, Role: auth.RoleMember}, e.f.Membership(id, credits)
}

func (e *testEnv) class(capacity int) string {
	e.t.Helper()
	return e.f.Class(e.classType, e.trainer.UserID, time.Now().Add(24*time.Hour), capacity)
}

func (e *testEnv) book(actor auth.Actor, classID string) BookingResult {
	e.t.Helper()
	res, err := e.svc.CreateBooking(e.ctx, actor, classID)
	require.NoError(e.t, err)
	return res
}

func (e *testEnv) booking(id string) models.Booking {
	e.t.Helper()
	b, err := e.svc.getBooking(e.ctx, e.db, id, false)
	require.NoError(e.t, err)
	return b
}

func (e *testEnv) entry(id string) models.WaitlistEntry {
	e.t.Helper()
	w, err := e.svc.getWaitlistEntry(e.ctx, e.db, id, false)
	require.NoError(e.t, err)
	return w
}

func (e *testEnv) waitingPositions(classID string) map[string]int {
	e.t.Helper()
	entries, err := e.svc.ClassWaitlist(e.ctx, classID)
	require.NoError(e.t, err)
	out := make(map[string]int, len(entries))
	for _, w := range entries {
		out[w.UserID] = w.Position
	}
	return out
}

var ptr = databasetest.Ptr[int]
