package rbac

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func withRoles(t *testing.T, roles map[int]string) {
	t.Helper()
	old := RoleResolver
	RoleResolver = func(userID int) string { return roles[userID] }
	t.Cleanup(func() { RoleResolver = old })
}

func TestGetUserRole(t *testing.T) {
	withRoles(t, map[int]string{1: RoleAdmin})

	assert.Equal(t, RoleAdmin, GetUserRole(1))
	// Unknown users default to the user role.
	assert.Equal(t, RoleUser, GetUserRole(99))
}

func TestHasPermission(t *testing.T) {
	withRoles(t, map[int]string{1: RoleAdmin, 2: RoleUser})

	assert.True(t, HasPermission(1, PermissionManagePendingActions))
	assert.True(t, HasPermission(1, PermissionCreateHabit))

	assert.True(t, HasPermission(2, PermissionCreateHabit))
	assert.True(t, HasPermission(2, PermissionReportAgentError))
	assert.False(t, HasPermission(2, PermissionManagePendingActions))
	assert.False(t, HasPermission(2, PermissionReplayOutbox))
}

func TestCheckPermission(t *testing.T) {
	withRoles(t, map[int]string{2: RoleUser})

	assert.NoError(t, CheckPermission(2, PermissionReadReminder))

	err := CheckPermission(2, PermissionReplayOutbox)
	assert.Error(t, err)
	var denied *PermissionDeniedError
	assert.ErrorAs(t, err, &denied)
	assert.Equal(t, 2, denied.UserID)
}

func TestValidateUserIDInPayload(t *testing.T) {
	assert.NoError(t, ValidateUserIDInPayload(7, 7))

	err := ValidateUserIDInPayload(7, 8)
	assert.Error(t, err)
	var mismatch *UserIDMismatchError
	assert.ErrorAs(t, err, &mismatch)
	assert.Equal(t, 7, mismatch.TokenUserID)
	assert.Equal(t, 8, mismatch.PayloadUserID)
}

// A regular user posting someone else's user_id must fail both the payload
// check and the admin bypass; an admin passes the bypass.
func TestSpoofedUserIDIsRejectedForRegularUsers(t *testing.T) {
	withRoles(t, map[int]string{1: RoleAdmin, 2: RoleUser})

	assert.Error(t, ValidateUserIDInPayload(2, 3))
	assert.False(t, HasPermission(2, PermissionManagePendingActions))

	assert.Error(t, ValidateUserIDInPayload(1, 3))
	assert.True(t, HasPermission(1, PermissionManagePendingActions))
}
