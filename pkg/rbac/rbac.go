package rbac

// Permission constants.
const (
	PermissionCreateHabit      = "habit:create"
	PermissionUpdateHabit      = "habit:update"
	PermissionDeleteHabit      = "habit:delete"
	PermissionReadReminder     = "reminder:read"
	PermissionUpdatePreference = "preference:update"
	PermissionReportAgentError = "agent:report_error"

	// Admin-only operations.
	PermissionManagePendingActions = "admin:pending_actions"
	PermissionReplayOutbox         = "admin:outbox_replay"
)

// Role constants.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

var rolePermissions = map[string][]string{
	RoleUser: {
		PermissionCreateHabit,
		PermissionUpdateHabit,
		PermissionDeleteHabit,
		PermissionReadReminder,
		PermissionUpdatePreference,
		PermissionReportAgentError,
	},
	RoleAdmin: {
		PermissionCreateHabit,
		PermissionUpdateHabit,
		PermissionDeleteHabit,
		PermissionReadReminder,
		PermissionUpdatePreference,
		PermissionReportAgentError,
		PermissionManagePendingActions,
		PermissionReplayOutbox,
	},
}

// RoleResolver returns the role for a user. Wired to the user repository at
// startup; defaults to RoleUser when unset.
var RoleResolver func(userID int) string

// GetUserRole returns the role for a user.
func GetUserRole(userID int) string {
	if RoleResolver != nil {
		if role := RoleResolver(userID); role != "" {
			return role
		}
	}
	return RoleUser
}

// HasPermission checks whether a user holds the given permission.
func HasPermission(userID int, permission string) bool {
	role := GetUserRole(userID)
	permissions, ok := rolePermissions[role]
	if !ok {
		return false
	}

	for _, p := range permissions {
		if p == permission {
			return true
		}
	}
	return false
}

// CheckPermission returns an error when the user lacks the permission.
func CheckPermission(userID int, permission string) error {
	if !HasPermission(userID, permission) {
		return &PermissionDeniedError{
			UserID:     userID,
			Permission: permission,
		}
	}
	return nil
}

// PermissionDeniedError indicates insufficient permissions.
type PermissionDeniedError struct {
	UserID     int
	Permission string
}

func (e *PermissionDeniedError) Error() string {
	return "insufficient permissions"
}

// ValidateUserIDInPayload checks that a payload user_id matches the token.
func ValidateUserIDInPayload(tokenUserID int, payloadUserID int) error {
	if payloadUserID != tokenUserID {
		return &UserIDMismatchError{
			TokenUserID:   tokenUserID,
			PayloadUserID: payloadUserID,
		}
	}
	return nil
}

// UserIDMismatchError indicates a user_id mismatch between payload and token.
type UserIDMismatchError struct {
	TokenUserID   int
	PayloadUserID int
}

func (e *UserIDMismatchError) Error() string {
	return "user_id in payload does not match token"
}
