package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaiBeiCha/smart-planner-bot/internal/models"
)

type fakeReminderStore struct {
	mu       sync.Mutex
	nextID   int64
	rows     map[int64]*models.Reminder
	dueErr   error
	finished int
}

func newFakeReminderStore() *fakeReminderStore {
	return &fakeReminderStore{rows: make(map[int64]*models.Reminder)}
}

func (f *fakeReminderStore) add(r *models.Reminder) *models.Reminder {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	r.ID = f.nextID
	f.rows[r.ID] = r
	return r
}

func (f *fakeReminderStore) get(id int64) *models.Reminder {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rows[id]
}

func (f *fakeReminderStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows)
}

func (f *fakeReminderStore) GetDue(ctx context.Context, now time.Time) ([]*models.Reminder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.dueErr != nil {
		return nil, f.dueErr
	}
	var due []*models.Reminder
	for _, r := range f.rows {
		if !r.IsSent && !r.RemindAt.After(now) {
			due = append(due, r)
		}
	}
	return due, nil
}

func (f *fakeReminderStore) GetByID(ctx context.Context, id int64) (*models.Reminder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rows[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return r, nil
}

func (f *fakeReminderStore) FinishOccurrence(ctx context.Context, fired, next *models.Reminder) error {
	f.mu.Lock()
	f.finished++
	f.rows[fired.ID].IsSent = true
	f.mu.Unlock()
	if next != nil {
		f.add(next)
	}
	return nil
}

func (f *fakeReminderStore) Delete(ctx context.Context, id int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[id]; !ok {
		return false, nil
	}
	delete(f.rows, id)
	return true, nil
}

type fakeUserStore struct {
	users map[int64]*models.User
}

func (f *fakeUserStore) GetByTelegramID(ctx context.Context, id int64) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return u, nil
}

type fakeNotifier struct {
	mu    sync.Mutex
	sent  []string
	chats []int64
	err   error
	ch    chan string
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{ch: make(chan string, 16)}
}

func (f *fakeNotifier) Send(ctx context.Context, chatID int64, text string) error {
	f.mu.Lock()
	f.sent = append(f.sent, text)
	f.chats = append(f.chats, chatID)
	f.mu.Unlock()
	f.ch <- text
	return f.err
}

func testUser(id int64) *models.User {
	return &models.User{TelegramID: id, Username: "tester", Name: "Tester", Timezone: "UTC"}
}

func newTestScheduler(store *fakeReminderStore, userID int64) (*Scheduler, *fakeNotifier) {
	users := &fakeUserStore{users: map[int64]*models.User{userID: testUser(userID)}}
	s := New(store, users, nil)
	n := newFakeNotifier()
	s.SetNotifier(n)
	return s, n
}

func waitSend(t *testing.T, n *fakeNotifier) string {
	t.Helper()
	select {
	case text := <-n.ch:
		return text
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for notification")
		return ""
	}
}

func TestStartRequiresNotifier(t *testing.T) {
	s := New(newFakeReminderStore(), &fakeUserStore{}, nil)
	err := s.Start()
	require.ErrorIs(t, err, ErrNoNotifier)
}

func TestStartTwiceIsNoop(t *testing.T) {
	s, _ := newTestScheduler(newFakeReminderStore(), 1)
	require.NoError(t, s.Start())
	require.NoError(t, s.Start())
	s.Stop()
	s.Stop()
}

func TestDispatchDeliversAndMarksSent(t *testing.T) {
	store := newFakeReminderStore()
	r := store.add(&models.Reminder{
		UserID:   10,
		Title:    "Позвонить маме",
		RemindAt: time.Now().UTC().Add(-time.Minute),
		Timezone: "UTC",
	})

	s, n := newTestScheduler(store, 10)
	s.checkDue(context.Background())
	s.dispatches.Wait()

	text := waitSend(t, n)
	assert.Contains(t, text, "Позвонить маме")
	assert.Equal(t, int64(10), n.chats[0])
	assert.True(t, store.get(r.ID).IsSent)
	assert.Equal(t, 1, store.count(), "one-off reminder must not get a successor")
}

func TestFutureReminderNotDispatched(t *testing.T) {
	store := newFakeReminderStore()
	store.add(&models.Reminder{
		UserID:   10,
		Title:    "later",
		RemindAt: time.Now().UTC().Add(time.Hour),
	})

	s, n := newTestScheduler(store, 10)
	s.checkDue(context.Background())
	s.dispatches.Wait()

	assert.Empty(t, n.sent)
}

func TestDeliveryFailureStillMarksSent(t *testing.T) {
	store := newFakeReminderStore()
	r := store.add(&models.Reminder{
		UserID:           10,
		Title:            "Тренировка",
		RemindAt:         time.Now().UTC().Add(-time.Minute),
		Timezone:         "UTC",
		IsRecurring:      true,
		RecurringPattern: models.PatternDaily,
	})

	s, n := newTestScheduler(store, 10)
	n.err = errors.New("telegram unavailable")

	s.checkDue(context.Background())
	s.dispatches.Wait()
	waitSend(t, n)

	assert.True(t, store.get(r.ID).IsSent, "failed delivery must still consume the occurrence")
	assert.Equal(t, 2, store.count(), "successor must be created even when delivery failed")
}

func TestRecurringGetsOneSuccessor(t *testing.T) {
	store := newFakeReminderStore()
	due := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	r := store.add(&models.Reminder{
		UserID:           10,
		Title:            "Принять витамины",
		Description:      "после завтрака",
		RemindAt:         due,
		Timezone:         "Europe/Minsk",
		IsRecurring:      true,
		RecurringPattern: models.PatternDaily,
	})

	s, n := newTestScheduler(store, 10)
	s.checkDue(context.Background())
	s.dispatches.Wait()
	waitSend(t, n)

	require.Equal(t, 2, store.count())
	next := store.get(r.ID + 1)
	require.NotNil(t, next)
	assert.Equal(t, due.Add(24*time.Hour), next.RemindAt)
	assert.Equal(t, r.Title, next.Title)
	assert.Equal(t, r.Description, next.Description)
	assert.Equal(t, r.Timezone, next.Timezone)
	assert.True(t, next.IsRecurring)
	assert.False(t, next.IsSent)
}

func TestSuccessorOffsetIgnoresProcessingLag(t *testing.T) {
	store := newFakeReminderStore()
	// Due a long time ago: the chain must continue from the scheduled
	// time, not from when we got around to it.
	due := time.Now().UTC().Add(-3 * time.Hour)
	r := store.add(&models.Reminder{
		UserID:           10,
		Title:            "weekly sync",
		RemindAt:         due,
		IsRecurring:      true,
		RecurringPattern: models.PatternWeekly,
	})

	s, n := newTestScheduler(store, 10)
	s.checkDue(context.Background())
	s.dispatches.Wait()
	waitSend(t, n)

	next := store.get(r.ID + 1)
	require.NotNil(t, next)
	assert.Equal(t, due.Add(7*24*time.Hour), next.RemindAt)
}

func TestBatchTickDispatchesEachReminderOnce(t *testing.T) {
	store := newFakeReminderStore()
	due := time.Now().UTC().Add(-time.Minute)

	// One solo reminder plus a group fan-out: three rows sharing a
	// title, one per member.
	store.add(&models.Reminder{UserID: 1, Title: "Оплатить счет", RemindAt: due})
	for _, userID := range []int64{2, 3, 4} {
		store.add(&models.Reminder{UserID: userID, Title: "Собрание команды", RemindAt: due})
	}

	users := &fakeUserStore{users: map[int64]*models.User{
		1: testUser(1), 2: testUser(2), 3: testUser(3), 4: testUser(4),
	}}
	s := New(store, users, nil)
	n := newFakeNotifier()
	s.SetNotifier(n)

	s.checkDue(context.Background())
	s.dispatches.Wait()
	for i := 0; i < 4; i++ {
		waitSend(t, n)
	}

	n.mu.Lock()
	perChat := make(map[int64]int)
	for _, chatID := range n.chats {
		perChat[chatID]++
	}
	n.mu.Unlock()

	require.Len(t, perChat, 4)
	for _, userID := range []int64{1, 2, 3, 4} {
		assert.Equal(t, 1, perChat[userID], "user %d must be notified exactly once", userID)
	}

	assert.Equal(t, 4, store.finished, "every occurrence must be finished")
	for id := int64(1); id <= 4; id++ {
		assert.True(t, store.get(id).IsSent)
	}

	// A follow-up tick finds nothing left to deliver.
	s.checkDue(context.Background())
	s.dispatches.Wait()
	n.mu.Lock()
	total := len(n.sent)
	n.mu.Unlock()
	assert.Equal(t, 4, total)
}

func TestCancelledWhileInFlightIsNoop(t *testing.T) {
	store := newFakeReminderStore()
	r := store.add(&models.Reminder{
		UserID:   10,
		Title:    "gone",
		RemindAt: time.Now().UTC().Add(-time.Minute),
	})

	s, n := newTestScheduler(store, 10)

	// Simulate a cancel landing between selection and dispatch.
	_, err := store.Delete(context.Background(), r.ID)
	require.NoError(t, err)

	s.dispatches.Add(1)
	s.dispatch(r.ID, r.UserID)

	assert.Empty(t, n.sent)
	assert.Zero(t, store.finished)
}

func TestAlreadySentIsTerminal(t *testing.T) {
	store := newFakeReminderStore()
	r := store.add(&models.Reminder{
		UserID:           10,
		Title:            "done",
		RemindAt:         time.Now().UTC().Add(-time.Minute),
		IsSent:           true,
		IsRecurring:      true,
		RecurringPattern: models.PatternDaily,
	})

	s, _ := newTestScheduler(store, 10)
	require.NoError(t, s.settle(context.Background(), r.ID))

	assert.Zero(t, store.finished, "a sent occurrence must never be re-finished")
	assert.Equal(t, 1, store.count())
}

func TestStoreErrorSkipsTick(t *testing.T) {
	store := newFakeReminderStore()
	store.add(&models.Reminder{
		UserID:   10,
		Title:    "unreachable",
		RemindAt: time.Now().UTC().Add(-time.Minute),
	})
	store.dueErr = errors.New("connection refused")

	s, n := newTestScheduler(store, 10)
	s.checkDue(context.Background())
	s.dispatches.Wait()

	assert.Empty(t, n.sent)

	// The next tick after recovery picks the reminder up.
	store.mu.Lock()
	store.dueErr = nil
	store.mu.Unlock()

	s.checkDue(context.Background())
	s.dispatches.Wait()
	waitSend(t, n)
}

func TestMissingUserConsumesOccurrence(t *testing.T) {
	store := newFakeReminderStore()
	r := store.add(&models.Reminder{
		UserID:   99,
		Title:    "orphan",
		RemindAt: time.Now().UTC().Add(-time.Minute),
	})

	s, n := newTestScheduler(store, 10) // user 99 is unknown
	s.checkDue(context.Background())
	s.dispatches.Wait()

	assert.Empty(t, n.sent)
	assert.True(t, store.get(r.ID).IsSent)
}

func TestCancel(t *testing.T) {
	store := newFakeReminderStore()
	r := store.add(&models.Reminder{UserID: 10, Title: "x", RemindAt: time.Now().UTC().Add(time.Hour)})

	s, _ := newTestScheduler(store, 10)

	assert.True(t, s.Cancel(context.Background(), r.ID))
	assert.False(t, s.Cancel(context.Background(), r.ID), "second cancel must report not found")
	assert.False(t, s.Cancel(context.Background(), 12345))
}

func TestPollLoopFiresOnInterval(t *testing.T) {
	store := newFakeReminderStore()
	s, n := newTestScheduler(store, 10)

	mock := clock.NewMock()
	s.clock = mock
	s.interval = time.Minute

	require.NoError(t, s.Start())
	defer s.Stop()

	// Let the run goroutine pass its initial check and arm the ticker.
	time.Sleep(50 * time.Millisecond)

	store.add(&models.Reminder{
		UserID:   10,
		Title:    "tick",
		RemindAt: mock.Now().UTC(),
	})

	mock.Add(time.Minute)
	text := waitSend(t, n)
	assert.Contains(t, text, "tick")
}
