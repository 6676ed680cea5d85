package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"aicoach/internal/model"
)

type PreferenceRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewPreferenceRepository(db *pgxpool.Pool, logger *zap.Logger) *PreferenceRepository {
	return &PreferenceRepository{
		db:     db,
		logger: logger,
	}
}

// defaultPreferences apply for users who never saved preferences.
func defaultPreferences(userID int) model.Preferences {
	return model.Preferences{
		UserID:          userID,
		ReminderChannel: "",
		UpdateChannel:   "",
		Timezone:        "UTC",
		SMSEnabled:      true,
		VoiceEnabled:    false,
		EmailEnabled:    true,
		PushEnabled:     true,
	}
}

func (r *PreferenceRepository) Get(ctx context.Context, userID int) (model.Preferences, error) {
	query := `
        SELECT user_id, COALESCE(reminder_channel, ''), COALESCE(update_channel, ''),
               COALESCE(quiet_hours_start, ''), COALESCE(quiet_hours_end, ''), COALESCE(timezone, 'UTC'),
               sms_enabled, voice_enabled, email_enabled, push_enabled, updated_at
        FROM user_preferences
        WHERE user_id = $1
    `
	var p model.Preferences
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&p.UserID,
		&p.ReminderChannel,
		&p.UpdateChannel,
		&p.QuietHoursStart,
		&p.QuietHoursEnd,
		&p.Timezone,
		&p.SMSEnabled,
		&p.VoiceEnabled,
		&p.EmailEnabled,
		&p.PushEnabled,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return defaultPreferences(userID), nil
		}
		r.logger.Error("Failed to get preferences", zap.Int("user_id", userID), zap.Error(err))
		return model.Preferences{}, err
	}
	return p, nil
}

func (r *PreferenceRepository) Upsert(ctx context.Context, p *model.Preferences) error {
	query := `
        INSERT INTO user_preferences
            (user_id, reminder_channel, update_channel, quiet_hours_start, quiet_hours_end, timezone,
             sms_enabled, voice_enabled, email_enabled, push_enabled, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW())
        ON CONFLICT (user_id) DO UPDATE SET
            reminder_channel = EXCLUDED.reminder_channel,
            update_channel = EXCLUDED.update_channel,
            quiet_hours_start = EXCLUDED.quiet_hours_start,
            quiet_hours_end = EXCLUDED.quiet_hours_end,
            timezone = EXCLUDED.timezone,
            sms_enabled = EXCLUDED.sms_enabled,
            voice_enabled = EXCLUDED.voice_enabled,
            email_enabled = EXCLUDED.email_enabled,
            push_enabled = EXCLUDED.push_enabled,
            updated_at = NOW()
    `
	_, err := r.db.Exec(ctx, query,
		p.UserID,
		p.ReminderChannel,
		p.UpdateChannel,
		p.QuietHoursStart,
		p.QuietHoursEnd,
		p.Timezone,
		p.SMSEnabled,
		p.VoiceEnabled,
		p.EmailEnabled,
		p.PushEnabled,
	)
	if err != nil {
		r.logger.Error("Failed to upsert preferences", zap.Int("user_id", p.UserID), zap.Error(err))
	}
	return err
}

// GetContactInfo returns the delivery endpoints for a user. Missing rows
// yield an empty ContactInfo rather than an error.
func (r *PreferenceRepository) GetContactInfo(ctx context.Context, userID int) (model.ContactInfo, error) {
	query := `
        SELECT user_id, COALESCE(phone, ''), COALESCE(email, ''), COALESCE(push_token, '')
        FROM user_contacts
        WHERE user_id = $1
    `
	var c model.ContactInfo
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&c.UserID,
		&c.Phone,
		&c.Email,
		&c.PushToken,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ContactInfo{UserID: userID}, nil
		}
		r.logger.Error("Failed to get contact info", zap.Int("user_id", userID), zap.Error(err))
		return model.ContactInfo{}, err
	}
	return c, nil
}

func (r *PreferenceRepository) UpsertContactInfo(ctx context.Context, c *model.ContactInfo) error {
	query := `
        INSERT INTO user_contacts (user_id, phone, email, push_token)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (user_id) DO UPDATE SET
            phone = EXCLUDED.phone,
            email = EXCLUDED.email,
            push_token = EXCLUDED.push_token
    `
	_, err := r.db.Exec(ctx, query, c.UserID, c.Phone, c.Email, c.PushToken)
	if err != nil {
		r.logger.Error("Failed to upsert contact info", zap.Int("user_id", c.UserID), zap.Error(err))
	}
	return err
}
