package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"aicoach/internal/model"
)

// DeliveryClient sends a message to one contact endpoint. Vendor SDKs
// (FCM, Twilio, SMTP) live behind this interface.
type DeliveryClient interface {
	Send(ctx context.Context, contact model.ContactInfo, message string) error
}

type StubPushClient struct {
	Logger *zap.Logger
}

func (c *StubPushClient) Send(ctx context.Context, contact model.ContactInfo, message string) error {
	// TODO: Implement push notification (FCM, APNS, etc.)
	c.Logger.Info("Sending push notification",
		zap.Int("user_id", contact.UserID),
		zap.String("message", message),
	)
	time.Sleep(100 * time.Millisecond)
	return nil
}

type StubSMSClient struct {
	Logger *zap.Logger
}

func (c *StubSMSClient) Send(ctx context.Context, contact model.ContactInfo, message string) error {
	// TODO: Implement SMS sending (Twilio, etc.)
	c.Logger.Info("Sending SMS notification",
		zap.Int("user_id", contact.UserID),
		zap.String("phone", contact.Phone),
		zap.String("message", message),
	)
	time.Sleep(100 * time.Millisecond)
	return nil
}

type StubVoiceClient struct {
	Logger *zap.Logger
}

func (c *StubVoiceClient) Send(ctx context.Context, contact model.ContactInfo, message string) error {
	// TODO: Implement voice call (Twilio + TTS)
	c.Logger.Info("Placing voice call",
		zap.Int("user_id", contact.UserID),
		zap.String("phone", contact.Phone),
	)
	time.Sleep(100 * time.Millisecond)
	return nil
}

type StubEmailClient struct {
	Logger *zap.Logger
}

func (c *StubEmailClient) Send(ctx context.Context, contact model.ContactInfo, message string) error {
	// TODO: Implement email sending (SMTP, SendGrid, etc.)
	c.Logger.Info("Sending email notification",
		zap.Int("user_id", contact.UserID),
		zap.String("email", contact.Email),
		zap.String("message", message),
	)
	time.Sleep(100 * time.Millisecond)
	return nil
}
