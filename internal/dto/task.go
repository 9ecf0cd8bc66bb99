package dto

import (
	"time"

	"github.com/taskboard/taskboard-api/internal/models"
)

// CommentDTO represents a task comment in API responses
type CommentDTO struct {
	ID        uint64    `json:"id"`
	UserID    uint64    `json:"user_id"`
	Username  string    `json:"username"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// TaskDTO represents a task in API responses
type TaskDTO struct {
	ID           uint64            `json:"id"`
	Title        string            `json:"title"`
	Description  string            `json:"description"`
	Status       models.TaskStatus `json:"status"`
	DueDate      *time.Time        `json:"due_date"`
	CreatorID    uint64            `json:"creator_id"`
	AssignedBy   *UserDTO          `json:"assigned_by,omitempty"`
	AssignedTo   *UserDTO          `json:"assigned_to,omitempty"`
	AssignedToID *uint64           `json:"assigned_to_id"`
	Comments     []CommentDTO      `json:"comments,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// ToCommentDTO converts a Comment model to CommentDTO
func ToCommentDTO(comment models.Comment) CommentDTO {
	return CommentDTO{
		ID:        comment.ID,
		UserID:    comment.UserID,
		Username:  comment.Username,
		Text:      comment.Text,
		Timestamp: comment.CreatedAt,
	}
}

// ToTaskDTO converts a Task model to TaskDTO
func ToTaskDTO(task models.Task) TaskDTO {
	dto := TaskDTO{
		ID:           task.ID,
		Title:        task.Title,
		Description:  task.Description,
		Status:       task.Status,
		DueDate:      task.DueDate,
		CreatorID:    task.CreatorID,
		AssignedToID: task.AssignedToID,
		CreatedAt:    task.CreatedAt,
		UpdatedAt:    task.UpdatedAt,
	}

	// Include relations if preloaded
	if task.AssignedBy.ID != 0 {
		assignedBy := ToUserDTO(task.AssignedBy)
		dto.AssignedBy = &assignedBy
	}
	if task.AssignedTo != nil && task.AssignedTo.ID != 0 {
		assignedTo := ToUserDTO(*task.AssignedTo)
		dto.AssignedTo = &assignedTo
	}

	if len(task.Comments) > 0 {
		dto.Comments = make([]CommentDTO, len(task.Comments))
		for i, comment := range task.Comments {
			dto.Comments[i] = ToCommentDTO(comment)
		}
	}

	return dto
}

// ToTaskDTOs converts a slice of tasks
func ToTaskDTOs(tasks []models.Task) []TaskDTO {
	items := make([]TaskDTO, len(tasks))
	for i, task := range tasks {
		items[i] = ToTaskDTO(task)
	}
	return items
}
