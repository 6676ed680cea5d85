package comms

import (
	"time"

	"aicoach/internal/model"
)

// Delivery channels.
const (
	ChannelPush  = "PUSH"
	ChannelSMS   = "SMS"
	ChannelVoice = "VOICE"
	ChannelEmail = "EMAIL"
)

// Message types.
const (
	TypeReminder    = "reminder"
	TypeAgentUpdate = "agent_update"
	TypeAgentError  = "agent_error"
	TypeOutreach    = "outreach"
	TypeDigest      = "digest"
)

// Urgency levels.
const (
	UrgencyLow    = "LOW"
	UrgencyNormal = "NORMAL"
	UrgencyUrgent = "URGENT"
)

// Request describes a message that needs a delivery channel.
type Request struct {
	Type    string
	Urgency string
	Prefs   model.Preferences
	Contact model.ContactInfo
}

// Decision is the routing verdict for a Request.
type Decision struct {
	Channel       string
	Deliverable   bool
	Deferred      bool
	DeferUntil    time.Time
	Reason        string
	FallbackChain []string
}

// fallbackChain is tried in order when a channel is not deliverable.
// PUSH falls back to EMAIL as the terminal attempt.
var fallbackChain = map[string][]string{
	ChannelVoice: {ChannelSMS, ChannelPush, ChannelEmail},
	ChannelSMS:   {ChannelPush, ChannelEmail},
	ChannelEmail: {ChannelPush},
	ChannelPush:  {ChannelEmail},
}

// Router selects a delivery channel from message type, urgency and user
// preferences, deferring non-urgent sends inside quiet hours.
type Router struct {
	now func() time.Time
}

func NewRouter() *Router {
	return &Router{now: time.Now}
}

// NewRouterWithClock injects a clock, for tests.
func NewRouterWithClock(now func() time.Time) *Router {
	return &Router{now: now}
}

// Route picks the delivery channel for req.
func (r *Router) Route(req Request) Decision {
	now := r.now()

	preferred := r.preferredChannel(req)
	channel, ok := r.firstDeliverable(preferred, req)
	if !ok {
		return Decision{
			Deliverable: false,
			Reason:      "no deliverable channel for user",
		}
	}

	decision := Decision{
		Channel:       channel,
		Deliverable:   true,
		FallbackChain: r.deliverableFallbacks(channel, req),
	}

	// Quiet hours defer everything except URGENT; nothing is dropped.
	if req.Urgency != UrgencyUrgent {
		window := QuietHours{
			Start:    req.Prefs.QuietHoursStart,
			End:      req.Prefs.QuietHoursEnd,
			Timezone: req.Prefs.Timezone,
		}
		if window.Contains(now) {
			decision.Deferred = true
			decision.DeferUntil = window.NextWindowEnd(now)
			decision.Reason = "quiet hours"
		}
	}

	return decision
}

// preferredChannel applies the policy ordering: urgency first, then the
// user's per-type preference, then push.
func (r *Router) preferredChannel(req Request) string {
	if req.Urgency == UrgencyUrgent {
		if req.Contact.Phone != "" && req.Prefs.VoiceEnabled {
			return ChannelVoice
		}
		if req.Contact.Phone != "" && req.Prefs.SMSEnabled {
			return ChannelSMS
		}
		return ChannelPush
	}

	switch req.Type {
	case TypeReminder:
		if req.Prefs.ReminderChannel != "" {
			return req.Prefs.ReminderChannel
		}
	case TypeAgentUpdate, TypeAgentError:
		if req.Prefs.UpdateChannel != "" {
			return req.Prefs.UpdateChannel
		}
	case TypeDigest:
		// Digests read better as email when one is on file.
		if req.Contact.Email != "" && req.Prefs.EmailEnabled {
			return ChannelEmail
		}
	}

	return ChannelPush
}

// firstDeliverable walks preferred then its fallback chain and returns the
// first channel the user can actually receive.
func (r *Router) firstDeliverable(preferred string, req Request) (string, bool) {
	if r.deliverable(preferred, req) {
		return preferred, true
	}
	for _, ch := range fallbackChain[preferred] {
		if r.deliverable(ch, req) {
			return ch, true
		}
	}
	return "", false
}

func (r *Router) deliverableFallbacks(channel string, req Request) []string {
	var out []string
	for _, ch := range fallbackChain[channel] {
		if r.deliverable(ch, req) {
			out = append(out, ch)
		}
	}
	return out
}

func (r *Router) deliverable(channel string, req Request) bool {
	switch channel {
	case ChannelPush:
		return req.Prefs.PushEnabled && req.Contact.PushToken != ""
	case ChannelSMS:
		return req.Prefs.SMSEnabled && req.Contact.Phone != ""
	case ChannelVoice:
		return req.Prefs.VoiceEnabled && req.Contact.Phone != ""
	case ChannelEmail:
		return req.Prefs.EmailEnabled && req.Contact.Email != ""
	default:
		return false
	}
}
