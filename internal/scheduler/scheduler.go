package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/sirupsen/logrus"

	"github.com/BaiBeiCha/smart-planner-bot/internal/config"
	"github.com/BaiBeiCha/smart-planner-bot/internal/models"
)

// ErrNoNotifier is returned by Start when no delivery target has been
// configured. This is the only scheduler failure that surfaces to the
// caller; everything past Start is logged and contained.
var ErrNoNotifier = errors.New("scheduler: notifier must be set before start")

// Notifier delivers reminder text to a recipient chat.
type Notifier interface {
	Send(ctx context.Context, chatID int64, text string) error
}

// ReminderStore is the slice of the reminder repository the scheduler
// needs.
type ReminderStore interface {
	GetDue(ctx context.Context, now time.Time) ([]*models.Reminder, error)
	GetByID(ctx context.Context, reminderID int64) (*models.Reminder, error)
	FinishOccurrence(ctx context.Context, fired, next *models.Reminder) error
	Delete(ctx context.Context, reminderID int64) (bool, error)
}

type UserStore interface {
	GetByTelegramID(ctx context.Context, telegramID int64) (*models.User, error)
}

// WeatherProvider enriches reminder messages. Optional: a nil provider
// simply disables enrichment, and any provider error only drops the
// enrichment, never the reminder itself.
type WeatherProvider interface {
	CurrentWeather(ctx context.Context, city string) (*models.WeatherRecord, error)
	Recommendation(ctx context.Context, city string) (string, error)
}

// Scheduler polls for due reminders and dispatches each one on its own
// goroutine. A single instance owns the reminders table; there is no
// cross-instance coordination.
type Scheduler struct {
	reminders ReminderStore
	users     UserStore
	weather   WeatherProvider
	clock     clock.Clock
	interval  time.Duration

	mu       sync.Mutex
	notifier Notifier
	cancel   context.CancelFunc

	// in-flight dispatches, tracked for draining in tests only; Stop
	// does not wait on them
	dispatches sync.WaitGroup
}

func New(reminders ReminderStore, users UserStore, weather WeatherProvider) *Scheduler {
	return &Scheduler{
		reminders: reminders,
		users:     users,
		weather:   weather,
		clock:     clock.New(),
		interval:  config.ReminderCheckInterval,
	}
}

// SetNotifier configures the delivery target. Must be called before
// Start.
func (s *Scheduler) SetNotifier(n Notifier) {
	s.mu.Lock()
	s.notifier = n
	s.mu.Unlock()
}

// Start launches the poll loop. Calling Start on a running scheduler
// is a no-op.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		return nil
	}
	if s.notifier == nil {
		return ErrNoNotifier
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	go s.run(ctx)

	logrus.Info("Reminder scheduler started")
	return nil
}

// Stop halts future ticks. In-flight dispatches are not cancelled;
// they finish (or fail) on their own.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel == nil {
		return
	}
	s.cancel()
	s.cancel = nil

	logrus.Info("Reminder scheduler stopped")
}

func (s *Scheduler) run(ctx context.Context) {
	ticker := s.clock.Ticker(s.interval)
	defer ticker.Stop()

	s.checkDue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.checkDue(ctx)
		}
	}
}

// checkDue is one poll tick: select everything due at this instant and
// hand each row to its own dispatch goroutine. The tick never waits on
// a dispatch, so one slow delivery cannot delay detection of the rest.
func (s *Scheduler) checkDue(ctx context.Context) {
	now := s.clock.Now().UTC()

	due, err := s.reminders.GetDue(ctx, now)
	if err != nil {
		logrus.WithError(err).Error("Failed to query due reminders")
		return
	}

	if len(due) > 0 {
		logrus.Infof("Processing %d due reminders at %s", len(due), now.Format(time.RFC3339))
	}

	for _, reminder := range due {
		s.dispatches.Add(1)
		go s.dispatch(reminder.ID, reminder.UserID)
	}
}

// dispatch handles a single due reminder: best-effort delivery first,
// then the authoritative state update. Nothing raised here may reach
// the poll loop.
func (s *Scheduler) dispatch(reminderID, userID int64) {
	defer s.dispatches.Done()
	defer func() {
		if r := recover(); r != nil {
			logrus.Errorf("Panic in dispatch of reminder %d: %v", reminderID, r)
		}
	}()

	// Detached from the poll loop's context on purpose: Stop only
	// halts future ticks, an in-flight dispatch runs to completion.
	ctx := context.Background()

	if err := s.deliver(ctx, reminderID, userID); err != nil {
		logrus.WithError(err).Errorf("Failed to deliver reminder %d", reminderID)
	}

	if err := s.settle(ctx, reminderID); err != nil {
		logrus.WithError(err).Errorf("Failed to update reminder %d", reminderID)
	}
}

// deliver composes and sends the reminder message. A reminder or user
// that vanished between selection and here is a normal no-op.
func (s *Scheduler) deliver(ctx context.Context, reminderID, userID int64) error {
	reminder, err := s.reminders.GetByID(ctx, reminderID)
	if errors.Is(err, models.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	user, err := s.users.GetByTelegramID(ctx, userID)
	if errors.Is(err, models.ErrNotFound) {
		logrus.Errorf("User %d not found for reminder %d", userID, reminderID)
		return nil
	}
	if err != nil {
		return err
	}

	text := s.composeMessage(ctx, reminder, user)

	s.mu.Lock()
	notifier := s.notifier
	s.mu.Unlock()

	return notifier.Send(ctx, user.TelegramID, text)
}

// settle is the authoritative step: regardless of delivery outcome the
// fired occurrence is marked sent, and a recurring one gets exactly
// one successor row, atomically. Marking sent even after a failed
// delivery is deliberate: duplicate nagging is worse than an
// occasional dropped notification.
func (s *Scheduler) settle(ctx context.Context, reminderID int64) error {
	reminder, err := s.reminders.GetByID(ctx, reminderID)
	if errors.Is(err, models.ErrNotFound) {
		// Cancelled while in flight.
		return nil
	}
	if err != nil {
		return err
	}
	if reminder.IsSent {
		return nil
	}

	next := nextOccurrence(reminder)
	if err := s.reminders.FinishOccurrence(ctx, reminder, next); err != nil {
		return err
	}
	if next != nil {
		logrus.Infof("Rescheduled reminder %d to %s", reminder.ID, next.RemindAt.Format(time.RFC3339))
	}
	return nil
}

// Cancel removes a pending reminder. It reports false when no row with
// that id exists (already fired, already cancelled, never existed);
// both outcomes are normal. Safe to call while a dispatch for the same
// id is in flight: the dispatcher re-fetches by id and treats a
// vanished row as a no-op.
func (s *Scheduler) Cancel(ctx context.Context, reminderID int64) bool {
	deleted, err := s.reminders.Delete(ctx, reminderID)
	if err != nil {
		logrus.WithError(err).Errorf("Failed to cancel reminder %d", reminderID)
		return false
	}
	if deleted {
		logrus.Infof("Deleted reminder %d", reminderID)
	}
	return deleted
}
