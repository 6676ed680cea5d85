package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"aicoach/internal/model"
)

type NotificationRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewNotificationRepository(db *pgxpool.Pool, logger *zap.Logger) *NotificationRepository {
	return &NotificationRepository{
		db:     db,
		logger: logger,
	}
}

func (r *NotificationRepository) Insert(ctx context.Context, n *model.Notification) (int, error) {
	query := `
        INSERT INTO notifications (user_id, type, urgency, channel, content, status, deferred_until)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id
    `
	var id int
	err := r.db.QueryRow(ctx, query,
		n.UserID,
		n.Type,
		n.Urgency,
		n.Channel,
		n.Content,
		n.Status,
		n.DeferredUntil,
	).Scan(&id)
	if err != nil {
		r.logger.Error("Failed to insert notification",
			zap.Int("user_id", n.UserID),
			zap.String("type", n.Type),
			zap.Error(err),
		)
		return 0, err
	}
	return id, nil
}

// InsertTx inserts inside an existing transaction.
func (r *NotificationRepository) InsertTx(ctx context.Context, tx pgx.Tx, n *model.Notification) (int, error) {
	query := `
        INSERT INTO notifications (user_id, type, urgency, channel, content, status, deferred_until)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id
    `
	var id int
	err := tx.QueryRow(ctx, query,
		n.UserID,
		n.Type,
		n.Urgency,
		n.Channel,
		n.Content,
		n.Status,
		n.DeferredUntil,
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r *NotificationRepository) GetByID(ctx context.Context, id int) (*model.Notification, error) {
	query := `
        SELECT id, user_id, type, urgency, channel, content, status, deferred_until, created_at, updated_at
        FROM notifications
        WHERE id = $1
    `
	var n model.Notification
	err := r.db.QueryRow(ctx, query, id).Scan(
		&n.ID,
		&n.UserID,
		&n.Type,
		&n.Urgency,
		&n.Channel,
		&n.Content,
		&n.Status,
		&n.DeferredUntil,
		&n.CreatedAt,
		&n.UpdatedAt,
	)
	if err != nil {
		return nil, scanErr(err)
	}
	return &n, nil
}

func (r *NotificationRepository) UpdateStatus(ctx context.Context, id int, status, channel string) error {
	query := `
        UPDATE notifications
        SET status = $1, channel = $2, updated_at = NOW()
        WHERE id = $3
    `
	_, err := r.db.Exec(ctx, query, status, channel, id)
	if err != nil {
		r.logger.Error("Failed to update notification status",
			zap.Int("id", id),
			zap.String("status", status),
			zap.Error(err),
		)
	}
	return err
}

// ListDeferredReady returns deferred notifications whose window has passed.
func (r *NotificationRepository) ListDeferredReady(ctx context.Context, now time.Time, limit int) ([]model.Notification, error) {
	query := `
        SELECT id, user_id, type, urgency, channel, content, status, deferred_until, created_at, updated_at
        FROM notifications
        WHERE status = $1 AND deferred_until <= $2
        ORDER BY deferred_until ASC
        LIMIT $3
    `

	rows, err := r.db.Query(ctx, query, model.NotificationStatusDeferred, now, limit)
	if err != nil {
		r.logger.Error("Failed to list deferred notifications", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var out []model.Notification
	for rows.Next() {
		var n model.Notification
		if err := rows.Scan(
			&n.ID,
			&n.UserID,
			&n.Type,
			&n.Urgency,
			&n.Channel,
			&n.Content,
			&n.Status,
			&n.DeferredUntil,
			&n.CreatedAt,
			&n.UpdatedAt,
		); err != nil {
			r.logger.Error("Failed to scan notification", zap.Error(err))
			return nil, err
		}
		out = append(out, n)
	}

	return out, rows.Err()
}
