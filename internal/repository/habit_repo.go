package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"aicoach/internal/model"
)

type HabitRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewHabitRepository(db *pgxpool.Pool, logger *zap.Logger) *HabitRepository {
	return &HabitRepository{
		db:     db,
		logger: logger,
	}
}

func (r *HabitRepository) Insert(ctx context.Context, h *model.Habit) (int, error) {
	r.logger.Debug("Inserting habit",
		zap.Int("user_id", h.UserID),
		zap.String("title", h.Title),
		zap.String("recurrence_pattern", h.RecurrencePattern),
	)

	query := `
        INSERT INTO habits (user_id, title, recurrence_pattern, send_time, is_active)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id
    `
	var id int
	err := r.db.QueryRow(ctx, query,
		h.UserID,
		h.Title,
		h.RecurrencePattern,
		h.SendTime,
		h.IsActive,
	).Scan(&id)

	if err != nil {
		r.logger.Error("Failed to insert habit", zap.Error(err))
		return 0, err
	}

	r.logger.Info("Habit inserted successfully",
		zap.Int("id", id),
		zap.Int("user_id", h.UserID),
	)
	return id, nil
}

func (r *HabitRepository) GetByID(ctx context.Context, id int) (*model.Habit, error) {
	query := `
        SELECT id, user_id, title, recurrence_pattern, send_time, is_active, created_at, updated_at
        FROM habits
        WHERE id = $1
    `
	var h model.Habit
	err := r.db.QueryRow(ctx, query, id).Scan(
		&h.ID,
		&h.UserID,
		&h.Title,
		&h.RecurrencePattern,
		&h.SendTime,
		&h.IsActive,
		&h.CreatedAt,
		&h.UpdatedAt,
	)
	if err != nil {
		return nil, scanErr(err)
	}
	return &h, nil
}

func (r *HabitRepository) ListByUser(ctx context.Context, userID int) ([]model.Habit, error) {
	r.logger.Debug("Listing habits for user", zap.Int("user_id", userID))

	query := `
        SELECT id, user_id, title, recurrence_pattern, send_time, is_active, created_at, updated_at
        FROM habits
        WHERE user_id = $1
        ORDER BY created_at DESC
    `

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		r.logger.Error("Failed to list habits", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var habits []model.Habit
	for rows.Next() {
		var h model.Habit
		if err := rows.Scan(
			&h.ID,
			&h.UserID,
			&h.Title,
			&h.RecurrencePattern,
			&h.SendTime,
			&h.IsActive,
			&h.CreatedAt,
			&h.UpdatedAt,
		); err != nil {
			r.logger.Error("Failed to scan habit", zap.Error(err))
			return nil, err
		}
		habits = append(habits, h)
	}

	return habits, rows.Err()
}

func (r *HabitRepository) ListAllActive(ctx context.Context) ([]model.Habit, error) {
	r.logger.Debug("Listing all active habits")

	query := `
        SELECT id, user_id, title, recurrence_pattern, send_time, is_active, created_at, updated_at
        FROM habits
        WHERE is_active = TRUE
        ORDER BY created_at DESC
    `

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		r.logger.Error("Failed to list all active habits", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var habits []model.Habit
	for rows.Next() {
		var h model.Habit
		if err := rows.Scan(
			&h.ID,
			&h.UserID,
			&h.Title,
			&h.RecurrencePattern,
			&h.SendTime,
			&h.IsActive,
			&h.CreatedAt,
			&h.UpdatedAt,
		); err != nil {
			r.logger.Error("Failed to scan habit", zap.Error(err))
			return nil, err
		}
		habits = append(habits, h)
	}

	r.logger.Debug("Listed all active habits", zap.Int("count", len(habits)))
	return habits, rows.Err()
}

func (r *HabitRepository) Update(ctx context.Context, h *model.Habit) error {
	query := `
        UPDATE habits
        SET title = $1, recurrence_pattern = $2, send_time = $3, is_active = $4, updated_at = NOW()
        WHERE id = $5 AND user_id = $6
    `
	tag, err := r.db.Exec(ctx, query,
		h.Title,
		h.RecurrencePattern,
		h.SendTime,
		h.IsActive,
		h.ID,
		h.UserID,
	)
	if err != nil {
		r.logger.Error("Failed to update habit", zap.Int("id", h.ID), zap.Error(err))
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Deactivate soft-deletes a habit for a user.
func (r *HabitRepository) Deactivate(ctx context.Context, id, userID int) error {
	query := `
        UPDATE habits
        SET is_active = FALSE, updated_at = NOW()
        WHERE id = $1 AND user_id = $2
    `
	tag, err := r.db.Exec(ctx, query, id, userID)
	if err != nil {
		r.logger.Error("Failed to deactivate habit", zap.Int("id", id), zap.Error(err))
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	r.logger.Info("Habit deactivated", zap.Int("id", id), zap.Int("user_id", userID))
	return nil
}
