package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"aicoach/internal/model"
)

type PendingActionRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewPendingActionRepository(db *pgxpool.Pool, logger *zap.Logger) *PendingActionRepository {
	return &PendingActionRepository{
		db:     db,
		logger: logger,
	}
}

func (r *PendingActionRepository) Insert(ctx context.Context, a *model.PendingAction) (int, error) {
	query := `
        INSERT INTO pending_actions (user_id, action_type, payload, status, error_code, last_error, attempts, max_attempts, next_attempt_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        RETURNING id
    `
	var id int
	err := r.db.QueryRow(ctx, query,
		a.UserID,
		a.ActionType,
		a.Payload,
		a.Status,
		a.ErrorCode,
		a.LastError,
		a.Attempts,
		a.MaxAttempts,
		a.NextAttemptAt,
	).Scan(&id)
	if err != nil {
		r.logger.Error("Failed to insert pending action",
			zap.Int("user_id", a.UserID),
			zap.String("action_type", a.ActionType),
			zap.Error(err),
		)
		return 0, err
	}
	return id, nil
}

// InsertTx inserts an action inside an existing transaction so the outbox
// event lands with it or not at all.
func (r *PendingActionRepository) InsertTx(ctx context.Context, tx pgx.Tx, a *model.PendingAction) (int, error) {
	query := `
        INSERT INTO pending_actions (user_id, action_type, payload, status, error_code, last_error, attempts, max_attempts, next_attempt_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        RETURNING id
    `
	var id int
	err := tx.QueryRow(ctx, query,
		a.UserID,
		a.ActionType,
		a.Payload,
		a.Status,
		a.ErrorCode,
		a.LastError,
		a.Attempts,
		a.MaxAttempts,
		a.NextAttemptAt,
	).Scan(&id)
	if err != nil {
		r.logger.Error("Failed to insert pending action in tx",
			zap.Int("user_id", a.UserID),
			zap.String("action_type", a.ActionType),
			zap.Error(err),
		)
		return 0, err
	}
	return id, nil
}

func (r *PendingActionRepository) GetByID(ctx context.Context, id int) (*model.PendingAction, error) {
	query := `
        SELECT id, user_id, action_type, payload, status, COALESCE(error_code, ''), COALESCE(last_error, ''),
               attempts, max_attempts, next_attempt_at, created_at, updated_at
        FROM pending_actions
        WHERE id = $1
    `
	var a model.PendingAction
	err := r.db.QueryRow(ctx, query, id).Scan(
		&a.ID,
		&a.UserID,
		&a.ActionType,
		&a.Payload,
		&a.Status,
		&a.ErrorCode,
		&a.LastError,
		&a.Attempts,
		&a.MaxAttempts,
		&a.NextAttemptAt,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, scanErr(err)
	}
	return &a, nil
}

// ListDue returns actions whose next attempt window has opened. Exhausted
// rows are included so the caller can park them.
func (r *PendingActionRepository) ListDue(ctx context.Context, now time.Time, limit int) ([]model.PendingAction, error) {
	query := `
        SELECT id, user_id, action_type, payload, status, COALESCE(error_code, ''), COALESCE(last_error, ''),
               attempts, max_attempts, next_attempt_at, created_at, updated_at
        FROM pending_actions
        WHERE status IN ($1, $2)
          AND (next_attempt_at IS NULL OR next_attempt_at <= $3)
        ORDER BY next_attempt_at ASC NULLS FIRST
        LIMIT $4
    `

	rows, err := r.db.Query(ctx, query,
		model.PendingActionStatusQueued,
		model.PendingActionStatusRetrying,
		now,
		limit,
	)
	if err != nil {
		r.logger.Error("Failed to list due pending actions", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var actions []model.PendingAction
	for rows.Next() {
		var a model.PendingAction
		if err := rows.Scan(
			&a.ID,
			&a.UserID,
			&a.ActionType,
			&a.Payload,
			&a.Status,
			&a.ErrorCode,
			&a.LastError,
			&a.Attempts,
			&a.MaxAttempts,
			&a.NextAttemptAt,
			&a.CreatedAt,
			&a.UpdatedAt,
		); err != nil {
			r.logger.Error("Failed to scan pending action", zap.Error(err))
			return nil, err
		}
		actions = append(actions, a)
	}

	return actions, rows.Err()
}

func (r *PendingActionRepository) ListByStatus(ctx context.Context, status string, limit int) ([]model.PendingAction, error) {
	query := `
        SELECT id, user_id, action_type, payload, status, COALESCE(error_code, ''), COALESCE(last_error, ''),
               attempts, max_attempts, next_attempt_at, created_at, updated_at
        FROM pending_actions
        WHERE status = $1
        ORDER BY updated_at DESC
        LIMIT $2
    `

	rows, err := r.db.Query(ctx, query, status, limit)
	if err != nil {
		r.logger.Error("Failed to list pending actions", zap.String("status", status), zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var actions []model.PendingAction
	for rows.Next() {
		var a model.PendingAction
		if err := rows.Scan(
			&a.ID,
			&a.UserID,
			&a.ActionType,
			&a.Payload,
			&a.Status,
			&a.ErrorCode,
			&a.LastError,
			&a.Attempts,
			&a.MaxAttempts,
			&a.NextAttemptAt,
			&a.CreatedAt,
			&a.UpdatedAt,
		); err != nil {
			r.logger.Error("Failed to scan pending action", zap.Error(err))
			return nil, err
		}
		actions = append(actions, a)
	}

	return actions, rows.Err()
}

// ScheduleRetry bumps the attempt count and sets the next attempt time.
// ScheduleRetry records the failure and opens the next retry window. Attempts
// are counted at dispatch time, not here.
func (r *PendingActionRepository) ScheduleRetry(ctx context.Context, id int, errorCode, lastError string, nextAttemptAt time.Time) error {
	query := `
        UPDATE pending_actions
        SET status = $1, error_code = $2, last_error = $3,
            next_attempt_at = $4, updated_at = NOW()
        WHERE id = $5
    `
	_, err := r.db.Exec(ctx, query,
		model.PendingActionStatusRetrying,
		errorCode,
		lastError,
		nextAttemptAt,
		id,
	)
	if err != nil {
		r.logger.Error("Failed to schedule retry", zap.Int("id", id), zap.Error(err))
	}
	return err
}

// MarkDispatched bumps the attempt count and moves the retry window forward.
// Called once per outreach dispatch so attempts counts actual dispatches.
func (r *PendingActionRepository) MarkDispatched(ctx context.Context, id int, nextAttemptAt time.Time) error {
	query := `
        UPDATE pending_actions
        SET status = $1, attempts = attempts + 1, next_attempt_at = $2, updated_at = NOW()
        WHERE id = $3
    `
	_, err := r.db.Exec(ctx, query, model.PendingActionStatusRetrying, nextAttemptAt, id)
	if err != nil {
		r.logger.Error("Failed to mark pending action dispatched", zap.Int("id", id), zap.Error(err))
	}
	return err
}

// MarkFailed parks an action after a non-retryable error or exhausted attempts.
func (r *PendingActionRepository) MarkFailed(ctx context.Context, id int, errorCode, lastError string) error {
	query := `
        UPDATE pending_actions
        SET status = $1, error_code = $2, last_error = $3,
            next_attempt_at = NULL, updated_at = NOW()
        WHERE id = $4
    `
	_, err := r.db.Exec(ctx, query,
		model.PendingActionStatusFailed,
		errorCode,
		lastError,
		id,
	)
	if err != nil {
		r.logger.Error("Failed to mark pending action failed", zap.Int("id", id), zap.Error(err))
	}
	return err
}

func (r *PendingActionRepository) MarkCompleted(ctx context.Context, id int) error {
	query := `
        UPDATE pending_actions
        SET status = $1, error_code = NULL, last_error = NULL, next_attempt_at = NULL, updated_at = NOW()
        WHERE id = $2
    `
	_, err := r.db.Exec(ctx, query, model.PendingActionStatusCompleted, id)
	if err != nil {
		r.logger.Error("Failed to mark pending action completed", zap.Int("id", id), zap.Error(err))
	}
	return err
}

// ParkAllActiveForUser halts every queued or retrying action for a user.
// Used when a critical error pauses the agent; parked actions stay failed
// until an admin requeues them.
func (r *PendingActionRepository) ParkAllActiveForUser(ctx context.Context, userID int, errorCode, lastError string) (int64, error) {
	query := `
        UPDATE pending_actions
        SET status = $1, error_code = $2, last_error = $3, next_attempt_at = NULL, updated_at = NOW()
        WHERE user_id = $4 AND status IN ($5, $6)
    `
	tag, err := r.db.Exec(ctx, query,
		model.PendingActionStatusFailed,
		errorCode,
		lastError,
		userID,
		model.PendingActionStatusQueued,
		model.PendingActionStatusRetrying,
	)
	if err != nil {
		r.logger.Error("Failed to park pending actions", zap.Int("user_id", userID), zap.Error(err))
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// ResetForRetry requeues a parked action from the admin surface.
func (r *PendingActionRepository) ResetForRetry(ctx context.Context, id int) error {
	query := `
        UPDATE pending_actions
        SET status = $1, attempts = 0, next_attempt_at = NULL, updated_at = NOW()
        WHERE id = $2 AND status = $3
    `
	tag, err := r.db.Exec(ctx, query,
		model.PendingActionStatusQueued,
		id,
		model.PendingActionStatusFailed,
	)
	if err != nil {
		r.logger.Error("Failed to reset pending action", zap.Int("id", id), zap.Error(err))
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
