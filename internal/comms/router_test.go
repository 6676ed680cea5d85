package comms

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aicoach/internal/model"
)

func fullContact() model.ContactInfo {
	return model.ContactInfo{
		Phone:     "+15551234567",
		Email:     "user@example.com",
		PushToken: "tok-123",
	}
}

func allChannelsEnabled() model.Preferences {
	return model.Preferences{
		SMSEnabled:   true,
		VoiceEnabled: true,
		EmailEnabled: true,
		PushEnabled:  true,
	}
}

func middayRouter() *Router {
	return NewRouterWithClock(func() time.Time {
		return time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	})
}

func TestRoutePreferredChannel(t *testing.T) {
	r := middayRouter()

	t.Run("reminder uses the user's reminder channel", func(t *testing.T) {
		prefs := allChannelsEnabled()
		prefs.ReminderChannel = ChannelSMS

		d := r.Route(Request{Type: TypeReminder, Urgency: UrgencyNormal, Prefs: prefs, Contact: fullContact()})
		require.True(t, d.Deliverable)
		assert.Equal(t, ChannelSMS, d.Channel)
	})

	t.Run("agent update uses the update channel", func(t *testing.T) {
		prefs := allChannelsEnabled()
		prefs.UpdateChannel = ChannelEmail

		d := r.Route(Request{Type: TypeAgentUpdate, Urgency: UrgencyNormal, Prefs: prefs, Contact: fullContact()})
		require.True(t, d.Deliverable)
		assert.Equal(t, ChannelEmail, d.Channel)
	})

	t.Run("digest prefers email", func(t *testing.T) {
		d := r.Route(Request{Type: TypeDigest, Urgency: UrgencyLow, Prefs: allChannelsEnabled(), Contact: fullContact()})
		require.True(t, d.Deliverable)
		assert.Equal(t, ChannelEmail, d.Channel)
	})

	t.Run("no preference defaults to push", func(t *testing.T) {
		d := r.Route(Request{Type: TypeReminder, Urgency: UrgencyNormal, Prefs: allChannelsEnabled(), Contact: fullContact()})
		require.True(t, d.Deliverable)
		assert.Equal(t, ChannelPush, d.Channel)
	})
}

func TestRouteUrgent(t *testing.T) {
	r := middayRouter()

	t.Run("urgent picks voice when a phone is on file", func(t *testing.T) {
		d := r.Route(Request{Type: TypeAgentError, Urgency: UrgencyUrgent, Prefs: allChannelsEnabled(), Contact: fullContact()})
		require.True(t, d.Deliverable)
		assert.Equal(t, ChannelVoice, d.Channel)
	})

	t.Run("urgent falls to sms when voice is disabled", func(t *testing.T) {
		prefs := allChannelsEnabled()
		prefs.VoiceEnabled = false

		d := r.Route(Request{Type: TypeAgentError, Urgency: UrgencyUrgent, Prefs: prefs, Contact: fullContact()})
		require.True(t, d.Deliverable)
		assert.Equal(t, ChannelSMS, d.Channel)
	})

	t.Run("urgent without a phone uses push", func(t *testing.T) {
		contact := fullContact()
		contact.Phone = ""

		d := r.Route(Request{Type: TypeAgentError, Urgency: UrgencyUrgent, Prefs: allChannelsEnabled(), Contact: contact})
		require.True(t, d.Deliverable)
		assert.Equal(t, ChannelPush, d.Channel)
	})
}

func TestRouteFallback(t *testing.T) {
	r := middayRouter()

	t.Run("preferred channel without an endpoint falls through the chain", func(t *testing.T) {
		prefs := allChannelsEnabled()
		prefs.ReminderChannel = ChannelVoice
		contact := fullContact()
		contact.Phone = "" // kills voice and sms

		d := r.Route(Request{Type: TypeReminder, Urgency: UrgencyNormal, Prefs: prefs, Contact: contact})
		require.True(t, d.Deliverable)
		assert.Equal(t, ChannelPush, d.Channel)
	})

	t.Run("fallback chain only lists deliverable channels", func(t *testing.T) {
		prefs := allChannelsEnabled()
		prefs.ReminderChannel = ChannelVoice
		prefs.EmailEnabled = false

		d := r.Route(Request{Type: TypeReminder, Urgency: UrgencyNormal, Prefs: prefs, Contact: fullContact()})
		require.True(t, d.Deliverable)
		assert.Equal(t, ChannelVoice, d.Channel)
		assert.Equal(t, []string{ChannelSMS, ChannelPush}, d.FallbackChain)
	})

	t.Run("nothing deliverable", func(t *testing.T) {
		d := r.Route(Request{Type: TypeReminder, Urgency: UrgencyNormal, Prefs: model.Preferences{}, Contact: model.ContactInfo{}})
		assert.False(t, d.Deliverable)
		assert.Empty(t, d.Channel)
	})
}

func TestRouteQuietHours(t *testing.T) {
	// 23:00 UTC, inside a 22:00-07:00 window.
	r := NewRouterWithClock(func() time.Time {
		return time.Date(2026, 3, 10, 23, 0, 0, 0, time.UTC)
	})

	prefs := allChannelsEnabled()
	prefs.QuietHoursStart = "22:00"
	prefs.QuietHoursEnd = "07:00"

	t.Run("normal urgency is deferred to window end", func(t *testing.T) {
		d := r.Route(Request{Type: TypeReminder, Urgency: UrgencyNormal, Prefs: prefs, Contact: fullContact()})
		require.True(t, d.Deliverable)
		assert.True(t, d.Deferred)
		assert.Equal(t, time.Date(2026, 3, 11, 7, 0, 0, 0, time.UTC), d.DeferUntil)
	})

	t.Run("urgent bypasses quiet hours", func(t *testing.T) {
		d := r.Route(Request{Type: TypeAgentError, Urgency: UrgencyUrgent, Prefs: prefs, Contact: fullContact()})
		require.True(t, d.Deliverable)
		assert.False(t, d.Deferred)
	})

	t.Run("outside the window nothing is deferred", func(t *testing.T) {
		d := middayRouter().Route(Request{Type: TypeReminder, Urgency: UrgencyNormal, Prefs: prefs, Contact: fullContact()})
		require.True(t, d.Deliverable)
		assert.False(t, d.Deferred)
	})
}
