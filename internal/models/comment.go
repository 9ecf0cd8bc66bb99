package models

import "time"

// Comment is an append-only note on a task. Comments are never
// updated or deleted; the username is a snapshot taken at write time.
type Comment struct {
	ID        uint64    `gorm:"primarykey" json:"id"`
	TaskID    uint64    `gorm:"not null;index" json:"task_id"`
	UserID    uint64    `gorm:"not null" json:"user_id"`
	Username  string    `gorm:"type:varchar(50);not null" json:"username"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	CreatedAt time.Time `json:"timestamp"`
}
