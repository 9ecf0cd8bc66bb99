package repository

import (
	"github.com/taskboard/taskboard-api/internal/models"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(user *models.User) error

	// FindByID finds a user by ID
	FindByID(id uint64) (*models.User, error)

	// FindByEmail finds a user by email
	FindByEmail(email string) (*models.User, error)

	// FindByUsername finds a user by username
	FindByUsername(username string) (*models.User, error)

	// FindByResetToken finds a user by their active reset token
	FindByResetToken(token string) (*models.User, error)

	// List returns all users, newest first
	List() ([]models.User, error)

	// Update persists changes to a user
	Update(user *models.User) error

	// Delete soft deletes a user
	Delete(id uint64) error
}

// TaskFilter holds filtering options for listing tasks
type TaskFilter struct {
	AssignedToID *uint64
}

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// Create creates a new task
	Create(task *models.Task) error

	// FindByID finds a task by ID with optional preloading
	FindByID(id uint64, preload ...string) (*models.Task, error)

	// List retrieves tasks, newest first
	List(filter TaskFilter) ([]models.Task, error)

	// Update persists changes to a task
	Update(task *models.Task) error

	// Delete soft deletes a task and its comments
	Delete(id uint64) error

	// AddComment appends a comment to a task
	AddComment(comment *models.Comment) error
}

// ActivityFilter holds filtering and paging options for the ledger
type ActivityFilter struct {
	TargetType *models.TargetType
	ActorID    *uint64
	Limit      int
	Skip       int
}

// ActivityRepository defines the interface for the activity ledger.
// Entries are append-only; there are no update or delete operations.
type ActivityRepository interface {
	// Create appends one ledger entry
	Create(entry *models.ActivityLog) error

	// List returns entries newest first with the total matching count
	List(filter ActivityFilter) ([]models.ActivityLog, int64, error)

	// Recent returns the newest entries up to limit
	Recent(limit int) ([]models.ActivityLog, error)
}
