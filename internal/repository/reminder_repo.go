package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"aicoach/internal/model"
)

type ReminderRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewReminderRepository(db *pgxpool.Pool, logger *zap.Logger) *ReminderRepository {
	return &ReminderRepository{
		db:     db,
		logger: logger,
	}
}

// InsertTx inserts a reminder inside an existing transaction, so the outbox
// event lands atomically with the row.
func (r *ReminderRepository) InsertTx(ctx context.Context, tx pgx.Tx, rem *model.Reminder) (int, error) {
	query := `
        INSERT INTO reminders (habit_id, user_id, title, due_date, status)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id
    `
	var id int
	err := tx.QueryRow(ctx, query,
		rem.HabitID,
		rem.UserID,
		rem.Title,
		rem.DueDate,
		rem.Status,
	).Scan(&id)
	if err != nil {
		r.logger.Error("Failed to insert reminder",
			zap.Int("habit_id", rem.HabitID),
			zap.Error(err),
		)
		return 0, err
	}
	return id, nil
}

// ExistsForHabitOnDate probes for an already-scheduled reminder.
// Reminders are unique per (habit_id, due_date::date).
func (r *ReminderRepository) ExistsForHabitOnDate(ctx context.Context, habitID int, dueDate string) (bool, error) {
	query := `
        SELECT EXISTS (
            SELECT 1 FROM reminders
            WHERE habit_id = $1 AND due_date::date = $2::date
        )
    `
	var exists bool
	err := r.db.QueryRow(ctx, query, habitID, dueDate).Scan(&exists)
	if err != nil {
		r.logger.Error("Failed to probe reminder existence",
			zap.Int("habit_id", habitID),
			zap.String("due_date", dueDate),
			zap.Error(err),
		)
		return false, err
	}
	return exists, nil
}

func (r *ReminderRepository) GetByID(ctx context.Context, id int) (*model.Reminder, error) {
	query := `
        SELECT id, habit_id, user_id, title, due_date, status, COALESCE(channel, ''), created_at, updated_at
        FROM reminders
        WHERE id = $1
    `
	var rem model.Reminder
	err := r.db.QueryRow(ctx, query, id).Scan(
		&rem.ID,
		&rem.HabitID,
		&rem.UserID,
		&rem.Title,
		&rem.DueDate,
		&rem.Status,
		&rem.Channel,
		&rem.CreatedAt,
		&rem.UpdatedAt,
	)
	if err != nil {
		return nil, scanErr(err)
	}
	return &rem, nil
}

func (r *ReminderRepository) ListByUser(ctx context.Context, userID, limit int) ([]model.Reminder, error) {
	query := `
        SELECT id, habit_id, user_id, title, due_date, status, COALESCE(channel, ''), created_at, updated_at
        FROM reminders
        WHERE user_id = $1
        ORDER BY due_date DESC
        LIMIT $2
    `

	rows, err := r.db.Query(ctx, query, userID, limit)
	if err != nil {
		r.logger.Error("Failed to list reminders", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var reminders []model.Reminder
	for rows.Next() {
		var rem model.Reminder
		if err := rows.Scan(
			&rem.ID,
			&rem.HabitID,
			&rem.UserID,
			&rem.Title,
			&rem.DueDate,
			&rem.Status,
			&rem.Channel,
			&rem.CreatedAt,
			&rem.UpdatedAt,
		); err != nil {
			r.logger.Error("Failed to scan reminder", zap.Error(err))
			return nil, err
		}
		reminders = append(reminders, rem)
	}

	return reminders, rows.Err()
}

// MarkSent records the delivery channel and flips the status to sent.
func (r *ReminderRepository) MarkSent(ctx context.Context, id int, channel string) error {
	query := `
        UPDATE reminders
        SET status = $1, channel = $2, updated_at = NOW()
        WHERE id = $3
    `
	_, err := r.db.Exec(ctx, query, model.ReminderStatusSent, channel, id)
	if err != nil {
		r.logger.Error("Failed to mark reminder sent", zap.Int("id", id), zap.Error(err))
	}
	return err
}

func (r *ReminderRepository) MarkFailed(ctx context.Context, id int) error {
	query := `
        UPDATE reminders
        SET status = $1, updated_at = NOW()
        WHERE id = $2
    `
	_, err := r.db.Exec(ctx, query, model.ReminderStatusFailed, id)
	if err != nil {
		r.logger.Error("Failed to mark reminder failed", zap.Int("id", id), zap.Error(err))
	}
	return err
}
