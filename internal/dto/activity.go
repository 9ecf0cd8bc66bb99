package dto

import (
	"encoding/json"
	"time"

	"github.com/taskboard/taskboard-api/internal/models"
)

// ActivityLogDTO represents one full ledger entry in API responses
type ActivityLogDTO struct {
	ID            uint64            `json:"id"`
	ActorID       uint64            `json:"actor_id"`
	ActorUsername string            `json:"actor_username"`
	ActorRole     models.Role       `json:"actor_role"`
	Action        string            `json:"action"`
	TargetType    models.TargetType `json:"target_type"`
	TargetID      *uint64           `json:"target_id"`
	Details       json.RawMessage   `json:"details,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
}

// RecentActivityDTO is the reduced projection used by the dashboard feed
type RecentActivityDTO struct {
	Action        string          `json:"action"`
	ActorUsername string          `json:"actor_username"`
	ActorRole     models.Role     `json:"actor_role"`
	Details       json.RawMessage `json:"details,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// ActivityListResponse is one page of ledger entries
type ActivityListResponse struct {
	Logs    []ActivityLogDTO `json:"logs"`
	Total   int64            `json:"total"`
	HasMore bool             `json:"hasMore"`
}

// ToActivityLogDTO converts an ActivityLog model to ActivityLogDTO
func ToActivityLogDTO(entry models.ActivityLog) ActivityLogDTO {
	return ActivityLogDTO{
		ID:            entry.ID,
		ActorID:       entry.ActorID,
		ActorUsername: entry.ActorUsername,
		ActorRole:     entry.ActorRole,
		Action:        entry.Action,
		TargetType:    entry.TargetType,
		TargetID:      entry.TargetID,
		Details:       json.RawMessage(entry.Details),
		CreatedAt:     entry.CreatedAt,
	}
}

// ToActivityListResponse converts a page of entries
func ToActivityListResponse(logs []models.ActivityLog, total int64, hasMore bool) ActivityListResponse {
	items := make([]ActivityLogDTO, len(logs))
	for i, entry := range logs {
		items[i] = ToActivityLogDTO(entry)
	}
	return ActivityListResponse{
		Logs:    items,
		Total:   total,
		HasMore: hasMore,
	}
}

// ToRecentActivityDTOs projects entries for the dashboard feed
func ToRecentActivityDTOs(logs []models.ActivityLog) []RecentActivityDTO {
	items := make([]RecentActivityDTO, len(logs))
	for i, entry := range logs {
		items[i] = RecentActivityDTO{
			Action:        entry.Action,
			ActorUsername: entry.ActorUsername,
			ActorRole:     entry.ActorRole,
			Details:       json.RawMessage(entry.Details),
			CreatedAt:     entry.CreatedAt,
		}
	}
	return items
}
