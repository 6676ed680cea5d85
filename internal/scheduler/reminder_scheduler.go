package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	mqcontracts "aicoach/contracts/mq"
	"aicoach/internal/model"
	"aicoach/internal/repository"
	"aicoach/pkg/metrics"
	"aicoach/pkg/outbox"
	"aicoach/pkg/trace"
	"aicoach/pkg/util"
)

// ReminderScheduler scans active habits, computes which are due, suppresses
// duplicates, and enqueues reminder rows plus their reminder.due events.
type ReminderScheduler struct {
	db           *pgxpool.Pool
	habitRepo    *repository.HabitRepository
	reminderRepo *repository.ReminderRepository
	prefRepo     *repository.PreferenceRepository
	outboxRepo   *outbox.Repository
	deduper      *util.Deduper
	logger       *zap.Logger
	now          func() time.Time
}

func NewReminderScheduler(
	db *pgxpool.Pool,
	habitRepo *repository.HabitRepository,
	reminderRepo *repository.ReminderRepository,
	prefRepo *repository.PreferenceRepository,
	deduper *util.Deduper,
	logger *zap.Logger,
) *ReminderScheduler {
	return &ReminderScheduler{
		db:           db,
		habitRepo:    habitRepo,
		reminderRepo: reminderRepo,
		prefRepo:     prefRepo,
		outboxRepo:   outbox.NewRepository(db),
		deduper:      deduper,
		logger:       logger,
		now:          time.Now,
	}
}

// WithClock injects a clock, for tests.
func (s *ReminderScheduler) WithClock(now func() time.Time) *ReminderScheduler {
	s.now = now
	return s
}

// Scan runs one scheduling pass over all active habits.
func (s *ReminderScheduler) Scan(ctx context.Context) error {
	now := s.now()
	s.logger.Info("Scanning habits for due reminders",
		zap.String("scan_time", now.Format(time.RFC3339)),
	)

	habits, err := s.habitRepo.ListAllActive(ctx)
	if err != nil {
		s.logger.Error("Failed to list active habits", zap.Error(err))
		return err
	}

	// Timezone lookups are cached per scan; many habits share a user.
	locations := make(map[int]*time.Location)

	scheduled := 0
	for _, habit := range habits {
		loc, ok := locations[habit.UserID]
		if !ok {
			loc = s.userLocation(ctx, habit.UserID)
			locations[habit.UserID] = loc
		}

		localNow := now.In(loc)
		if !IsDue(habit.RecurrencePattern, habit.SendTime, localNow) {
			continue
		}

		dueDate := localNow.Format("2006-01-02")
		if !s.acquireOnce(ctx, habit.ID, dueDate) {
			metrics.IncrementReminderScheduled("duplicate")
			continue
		}

		// Second layer: the DB probe catches duplicates across Redis restarts.
		exists, err := s.reminderRepo.ExistsForHabitOnDate(ctx, habit.ID, dueDate)
		if err != nil {
			s.logger.Error("Duplicate probe failed",
				zap.Int("habit_id", habit.ID),
				zap.Error(err),
			)
			// Free the once-lock or the habit stays silent until the TTL runs out.
			s.releaseOnce(ctx, habit.ID, dueDate)
			continue
		}
		if exists {
			s.logger.Debug("Reminder already scheduled",
				zap.Int("habit_id", habit.ID),
				zap.String("due_date", dueDate),
			)
			metrics.IncrementReminderScheduled("duplicate")
			continue
		}

		if err := s.enqueue(ctx, habit, localNow); err != nil {
			s.logger.Error("Failed to enqueue reminder",
				zap.Int("habit_id", habit.ID),
				zap.Error(err),
			)
			s.releaseOnce(ctx, habit.ID, dueDate)
			metrics.IncrementReminderScheduled("skipped")
			continue
		}

		scheduled++
		metrics.IncrementReminderScheduled("scheduled")
	}

	s.logger.Info("Reminder scan completed",
		zap.Int("total_habits", len(habits)),
		zap.Int("scheduled", scheduled),
	)
	return nil
}

func (s *ReminderScheduler) userLocation(ctx context.Context, userID int) *time.Location {
	prefs, err := s.prefRepo.Get(ctx, userID)
	if err != nil || prefs.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(prefs.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (s *ReminderScheduler) acquireOnce(ctx context.Context, habitID int, dueDate string) bool {
	return s.deduper.AcquireOnce(ctx, "reminder", fmt.Sprintf("%d:%s", habitID, dueDate))
}

func (s *ReminderScheduler) releaseOnce(ctx context.Context, habitID int, dueDate string) {
	s.deduper.Release(ctx, "reminder", fmt.Sprintf("%d:%s", habitID, dueDate))
}

// enqueue inserts the reminder row and its reminder.due outbox event in one
// transaction.
func (s *ReminderScheduler) enqueue(ctx context.Context, habit model.Habit, localNow time.Time) error {
	traceID := trace.GenerateTraceID()
	ctx = trace.WithContext(ctx, traceID)

	dueDate := time.Date(localNow.Year(), localNow.Month(), localNow.Day(), 0, 0, 0, 0, localNow.Location())

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	reminder := &model.Reminder{
		HabitID: habit.ID,
		UserID:  habit.UserID,
		Title:   habit.Title,
		DueDate: dueDate,
		Status:  model.ReminderStatusPending,
	}

	reminderID, err := s.reminderRepo.InsertTx(ctx, tx, reminder)
	if err != nil {
		return err
	}

	payload := mqcontracts.ReminderDuePayload{
		ReminderID: reminderID,
		HabitID:    habit.ID,
		UserID:     habit.UserID,
		Title:      habit.Title,
		DueDate:    localNow.Format("2006-01-02"),
		TraceID:    traceID,
	}
	remID64 := int64(reminderID)
	if err := outbox.InsertEventInTx(ctx, tx, s.outboxRepo, "reminder", &remID64, "reminder.due", payload); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.Info("Reminder scheduled",
		zap.Int("reminder_id", reminderID),
		zap.Int("habit_id", habit.ID),
		zap.Int("user_id", habit.UserID),
		zap.String("due_date", payload.DueDate),
	)
	return nil
}
