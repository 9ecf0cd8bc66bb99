package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskboard/taskboard-api/internal/models"
)

func seedLedger(t *testing.T, env *testEnv, actor *models.User, n int) {
	t.Helper()

	for i := 0; i < n; i++ {
		targetType := models.TargetTask
		if i%2 == 0 {
			targetType = models.TargetUser
		}
		targetID := uint64(i + 1)
		entry := models.ActivityLog{
			ActorID:       actor.ID,
			ActorUsername: actor.Username,
			ActorRole:     actor.Role,
			Action:        fmt.Sprintf("Created task %q", fmt.Sprintf("task-%d", i)),
			TargetType:    targetType,
			TargetID:      &targetID,
		}
		require.NoError(t, env.db.Create(&entry).Error)
	}
}

type activityListBody struct {
	Logs []struct {
		ID            uint64 `json:"id"`
		ActorUsername string `json:"actor_username"`
		Action        string `json:"action"`
		TargetType    string `json:"target_type"`
	} `json:"logs"`
	Total   int64 `json:"total"`
	HasMore bool  `json:"hasMore"`
}

func TestListActivityPagination(t *testing.T) {
	env := setupTestEnv(t)
	admin := env.createUser(t, "admin", "admin@example.com", "password123", models.RoleAdmin)
	token := env.loginToken(t, "admin@example.com", "password123")

	// One login entry already exists; clear it so the counts are exact
	require.NoError(t, env.db.Where("1 = 1").Delete(&models.ActivityLog{}).Error)
	seedLedger(t, env, admin, 55)

	// First page
	w := env.request(t, http.MethodGet, "/api/activity?limit=20&skip=0", nil, token)
	require.Equal(t, http.StatusOK, w.Code)

	var body activityListBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Len(t, body.Logs, 20)
	assert.Equal(t, int64(55), body.Total)
	assert.True(t, body.HasMore)

	// Newest first
	require.Greater(t, len(body.Logs), 1)
	assert.Greater(t, body.Logs[0].ID, body.Logs[1].ID)

	// Last page is short and final
	w = env.request(t, http.MethodGet, "/api/activity?limit=20&skip=40", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Len(t, body.Logs, 15)
	assert.Equal(t, int64(55), body.Total)
	assert.False(t, body.HasMore)

	// Past the end
	w = env.request(t, http.MethodGet, "/api/activity?limit=20&skip=60", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Empty(t, body.Logs)
	assert.False(t, body.HasMore)
}

func TestListActivityTargetTypeFilter(t *testing.T) {
	env := setupTestEnv(t)
	admin := env.createUser(t, "admin", "admin@example.com", "password123", models.RoleAdmin)
	token := env.loginToken(t, "admin@example.com", "password123")

	require.NoError(t, env.db.Where("1 = 1").Delete(&models.ActivityLog{}).Error)
	seedLedger(t, env, admin, 10)

	w := env.request(t, http.MethodGet, "/api/activity?targetType=task", nil, token)
	require.Equal(t, http.StatusOK, w.Code)

	var body activityListBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, int64(5), body.Total)
	for _, entry := range body.Logs {
		assert.Equal(t, "task", entry.TargetType)
	}

	w = env.request(t, http.MethodGet, "/api/activity?targetType=bogus", nil, token)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListActivityActorFilter(t *testing.T) {
	env := setupTestEnv(t)
	admin := env.createUser(t, "admin", "admin@example.com", "password123", models.RoleAdmin)
	manager := env.createUser(t, "manager", "manager@example.com", "password123", models.RoleManager)
	token := env.loginToken(t, "admin@example.com", "password123")

	require.NoError(t, env.db.Where("1 = 1").Delete(&models.ActivityLog{}).Error)
	seedLedger(t, env, admin, 3)
	seedLedger(t, env, manager, 4)

	w := env.request(t, http.MethodGet, fmt.Sprintf("/api/activity?actorId=%d", manager.ID), nil, token)
	require.Equal(t, http.StatusOK, w.Code)

	var body activityListBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, int64(4), body.Total)
	for _, entry := range body.Logs {
		assert.Equal(t, "manager", entry.ActorUsername)
	}
}

func TestMemberCannotReadActivity(t *testing.T) {
	env := setupTestEnv(t)
	env.createUser(t, "bob", "bob@example.com", "password123", models.RoleMember)
	token := env.loginToken(t, "bob@example.com", "password123")

	w := env.request(t, http.MethodGet, "/api/activity", nil, token)
	require.Equal(t, http.StatusForbidden, w.Code)

	w = env.request(t, http.MethodGet, "/api/activity/recent", nil, token)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestRecentActivityProjection(t *testing.T) {
	env := setupTestEnv(t)
	admin := env.createUser(t, "admin", "admin@example.com", "password123", models.RoleAdmin)
	token := env.loginToken(t, "admin@example.com", "password123")

	require.NoError(t, env.db.Where("1 = 1").Delete(&models.ActivityLog{}).Error)
	seedLedger(t, env, admin, 15)

	w := env.request(t, http.MethodGet, "/api/activity/recent", nil, token)
	require.Equal(t, http.StatusOK, w.Code)

	var items []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &items))
	require.Len(t, items, 10)

	// Reduced projection: actor and action only, no ids
	first := items[0]
	assert.Equal(t, "admin", first["actor_username"])
	assert.Equal(t, "admin", first["actor_role"])
	assert.NotEmpty(t, first["action"])
	_, hasID := first["id"]
	assert.False(t, hasID)
	_, hasTargetID := first["target_id"]
	assert.False(t, hasTargetID)

	w = env.request(t, http.MethodGet, "/api/activity/recent?limit=3", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &items))
	assert.Len(t, items, 3)
}
