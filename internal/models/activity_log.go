package models

import (
	"time"

	"gorm.io/datatypes"
)

type TargetType string

const (
	TargetUser    TargetType = "user"
	TargetTask    TargetType = "task"
	TargetComment TargetType = "comment"
	TargetSystem  TargetType = "system"
)

// ActivityLog is one immutable entry in the system-wide audit ledger.
// Actor username and role are denormalized snapshots of the user at
// the time the action happened, not live joins.
type ActivityLog struct {
	ID            uint64         `gorm:"primarykey" json:"id"`
	ActorID       uint64         `gorm:"not null;index" json:"actor_id"`
	ActorUsername string         `gorm:"type:varchar(50);not null" json:"actor_username"`
	ActorRole     Role           `gorm:"type:varchar(20);not null" json:"actor_role"`
	Action        string         `gorm:"type:text;not null" json:"action"`
	TargetType    TargetType     `gorm:"type:varchar(20);not null;index" json:"target_type"`
	TargetID      *uint64        `json:"target_id"`
	Details       datatypes.JSON `json:"details"`
	CreatedAt     time.Time      `gorm:"index" json:"created_at"`
}
