package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskboard/taskboard-api/internal/models"
)

func userURL(id uint64) string {
	return "/api/users/" + strconv.FormatUint(id, 10)
}

func TestAdminCreatesUser(t *testing.T) {
	env := setupTestEnv(t)
	admin := env.createUser(t, "admin", "admin@example.com", "password123", models.RoleAdmin)
	token := env.loginToken(t, "admin@example.com", "password123")

	w := env.request(t, http.MethodPost, "/api/users", map[string]any{
		"username": "bob",
		"email":    "bob@example.com",
		"password": "password123",
		"role":     "member",
	}, token)
	require.Equal(t, http.StatusCreated, w.Code)

	var body struct {
		Message string `json:"message"`
		User    struct {
			ID       uint64 `json:"id"`
			Username string `json:"username"`
			Role     string `json:"role"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "bob", body.User.Username)
	assert.Equal(t, "member", body.User.Role)

	// New account can log in straight away
	env.loginToken(t, "bob@example.com", "password123")

	// Creation is audited with the admin as actor
	entries := env.activityEntries(t)
	var found *models.ActivityLog
	for i := range entries {
		if entries[i].TargetType == models.TargetUser && entries[i].ActorID == admin.ID && entries[i].Action != "User logged in" {
			found = &entries[i]
		}
	}
	require.NotNil(t, found)
	assert.Equal(t, `Created user "bob" with role "member"`, found.Action)
	require.NotNil(t, found.TargetID)
	assert.Equal(t, body.User.ID, *found.TargetID)

	// The new user shows up in the listing
	w = env.request(t, http.MethodGet, "/api/users", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	var users []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &users))
	assert.Len(t, users, 2)
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	env := setupTestEnv(t)
	env.createUser(t, "admin", "admin@example.com", "password123", models.RoleAdmin)
	env.createUser(t, "bob", "bob@example.com", "password123", models.RoleMember)
	token := env.loginToken(t, "admin@example.com", "password123")

	w := env.request(t, http.MethodPost, "/api/users", map[string]any{
		"username": "bob2",
		"email":    "bob@example.com",
		"password": "password123",
	}, token)
	require.Equal(t, http.StatusConflict, w.Code)
}

func TestCreateUserInvalidRole(t *testing.T) {
	env := setupTestEnv(t)
	env.createUser(t, "admin", "admin@example.com", "password123", models.RoleAdmin)
	token := env.loginToken(t, "admin@example.com", "password123")

	w := env.request(t, http.MethodPost, "/api/users", map[string]any{
		"username": "bob",
		"email":    "bob@example.com",
		"password": "password123",
		"role":     "overlord",
	}, token)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestManagerCannotCreateUser(t *testing.T) {
	env := setupTestEnv(t)
	env.createUser(t, "manager", "manager@example.com", "password123", models.RoleManager)
	token := env.loginToken(t, "manager@example.com", "password123")

	w := env.request(t, http.MethodPost, "/api/users", map[string]any{
		"username": "bob",
		"email":    "bob@example.com",
		"password": "password123",
	}, token)
	require.Equal(t, http.StatusForbidden, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	details, ok := body["details"].(map[string]any)
	require.True(t, ok)
	assert.ElementsMatch(t, []any{"admin"}, details["required_role"])
	assert.Equal(t, "manager", details["user_role"])
}

func TestManagerCanListUsers(t *testing.T) {
	env := setupTestEnv(t)
	env.createUser(t, "manager", "manager@example.com", "password123", models.RoleManager)
	env.createUser(t, "bob", "bob@example.com", "password123", models.RoleMember)
	token := env.loginToken(t, "manager@example.com", "password123")

	w := env.request(t, http.MethodGet, "/api/users", nil, token)
	require.Equal(t, http.StatusOK, w.Code)

	var users []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &users))
	assert.Len(t, users, 2)

	// Password material never leaks into the listing
	for _, u := range users {
		_, hasHash := u["password_hash"]
		assert.False(t, hasHash)
	}
}

func TestMemberCannotListUsers(t *testing.T) {
	env := setupTestEnv(t)
	env.createUser(t, "bob", "bob@example.com", "password123", models.RoleMember)
	token := env.loginToken(t, "bob@example.com", "password123")

	w := env.request(t, http.MethodGet, "/api/users", nil, token)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestUpdateUserRole(t *testing.T) {
	env := setupTestEnv(t)
	env.createUser(t, "admin", "admin@example.com", "password123", models.RoleAdmin)
	bob := env.createUser(t, "bob", "bob@example.com", "password123", models.RoleMember)
	token := env.loginToken(t, "admin@example.com", "password123")

	w := env.request(t, http.MethodPut, userURL(bob.ID)+"/role", map[string]any{
		"role": "manager",
	}, token)
	require.Equal(t, http.StatusOK, w.Code)

	var stored models.User
	require.NoError(t, env.db.First(&stored, bob.ID).Error)
	assert.Equal(t, models.RoleManager, stored.Role)

	entries := env.activityEntries(t)
	last := entries[len(entries)-1]
	assert.Equal(t, `Updated user "bob" role from "member" to "manager"`, last.Action)

	var details map[string]any
	require.NoError(t, json.Unmarshal(last.Details, &details))
	assert.Equal(t, "member", details["oldRole"])
	assert.Equal(t, "manager", details["newRole"])
}

func TestUpdateUserRoleInvalid(t *testing.T) {
	env := setupTestEnv(t)
	env.createUser(t, "admin", "admin@example.com", "password123", models.RoleAdmin)
	bob := env.createUser(t, "bob", "bob@example.com", "password123", models.RoleMember)
	token := env.loginToken(t, "admin@example.com", "password123")

	w := env.request(t, http.MethodPut, userURL(bob.ID)+"/role", map[string]any{
		"role": "overlord",
	}, token)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteUser(t *testing.T) {
	env := setupTestEnv(t)
	env.createUser(t, "admin", "admin@example.com", "password123", models.RoleAdmin)
	bob := env.createUser(t, "bob", "bob@example.com", "password123", models.RoleMember)
	token := env.loginToken(t, "admin@example.com", "password123")

	w := env.request(t, http.MethodDelete, userURL(bob.ID), nil, token)
	require.Equal(t, http.StatusOK, w.Code)

	// Soft deleted: a default query no longer finds the user
	var count int64
	require.NoError(t, env.db.Model(&models.User{}).Where("id = ?", bob.ID).Count(&count).Error)
	assert.Zero(t, count)

	entries := env.activityEntries(t)
	last := entries[len(entries)-1]
	assert.Equal(t, `Deleted user "bob" (bob@example.com)`, last.Action)
}

// Admin is the only role allowed to delete users, and still may not
// delete itself.
func TestAdminCannotDeleteSelf(t *testing.T) {
	env := setupTestEnv(t)
	admin := env.createUser(t, "admin", "admin@example.com", "password123", models.RoleAdmin)
	token := env.loginToken(t, "admin@example.com", "password123")

	w := env.request(t, http.MethodDelete, userURL(admin.ID), nil, token)
	require.Equal(t, http.StatusForbidden, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Cannot delete your own account", body["message"])

	var count int64
	require.NoError(t, env.db.Model(&models.User{}).Where("id = ?", admin.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestDeleteUnknownUser(t *testing.T) {
	env := setupTestEnv(t)
	env.createUser(t, "admin", "admin@example.com", "password123", models.RoleAdmin)
	token := env.loginToken(t, "admin@example.com", "password123")

	w := env.request(t, http.MethodDelete, userURL(9999), nil, token)
	require.Equal(t, http.StatusNotFound, w.Code)
}
