package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/taskboard/taskboard-api/internal/audit"
	"github.com/taskboard/taskboard-api/internal/authz"
	"github.com/taskboard/taskboard-api/internal/models"
	"github.com/taskboard/taskboard-api/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrTaskNotFound        = errors.New("task not found")
	ErrTitleRequired       = errors.New("title is required")
	ErrCommentTextRequired = errors.New("comment text is required")
	ErrInvalidStatus       = errors.New("invalid task status")
	ErrInvalidAssignee     = errors.New("assigned user does not exist")
)

// taskPreloads is the relation set loaded for single-task responses.
var taskPreloads = []string{"Creator", "AssignedBy", "AssignedTo", "Comments"}

// TaskService handles task business logic. Every mutation follows the
// same protocol: authorize, mutate, then record a best-effort ledger
// entry.
type TaskService struct {
	taskRepo repository.TaskRepository
	userRepo repository.UserRepository
	gate     *authz.Gate
	recorder *audit.Recorder
}

// NewTaskService creates a new TaskService
func NewTaskService(taskRepo repository.TaskRepository, userRepo repository.UserRepository, gate *authz.Gate, recorder *audit.Recorder) *TaskService {
	return &TaskService{
		taskRepo: taskRepo,
		userRepo: userRepo,
		gate:     gate,
		recorder: recorder,
	}
}

// CreateTaskInput represents input for creating a task
type CreateTaskInput struct {
	Title        string
	Description  string
	Status       string
	DueDate      *time.Time
	AssignedToID *uint64
}

// UpdateTaskInput represents input for updating a task. Pointer fields
// distinguish "not provided" from zero values; Clear flags model an
// explicit null.
type UpdateTaskInput struct {
	Title           *string
	Description     *string
	Status          *string
	DueDate         *time.Time
	ClearDueDate    bool
	AssignedToID    *uint64
	ClearAssignedTo bool
}

// ListTasks returns the tasks visible to the actor. Admin and manager
// see everything; a member only sees tasks assigned to them.
func (s *TaskService) ListTasks(actor models.User) ([]models.Task, error) {
	filter := repository.TaskFilter{}
	if actor.Role == models.RoleMember {
		actorID := actor.ID
		filter.AssignedToID = &actorID
	}

	tasks, err := s.taskRepo.List(filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	return tasks, nil
}

// GetTask returns a single task with related data.
func (s *TaskService) GetTask(actor models.User, taskID uint64) (*models.Task, error) {
	task, err := s.findTask(taskID, taskPreloads...)
	if err != nil {
		return nil, err
	}

	if err := authorize(s.gate, authz.Input{
		Role:            actor.Role,
		Operation:       authz.OpTaskRead,
		CallerID:        actor.ID,
		ResourceOwnerID: task.AssignedToID,
	}); err != nil {
		return nil, err
	}

	return task, nil
}

// CreateTask creates a new task. Admin and manager only.
func (s *TaskService) CreateTask(actor models.User, input CreateTaskInput) (*models.Task, error) {
	if err := authorize(s.gate, authz.Input{
		Role:      actor.Role,
		Operation: authz.OpTaskCreate,
		CallerID:  actor.ID,
	}); err != nil {
		return nil, err
	}

	if strings.TrimSpace(input.Title) == "" {
		return nil, ErrTitleRequired
	}

	status := models.TaskStatusPending
	if input.Status != "" {
		parsed, err := models.ParseTaskStatus(input.Status)
		if err != nil {
			return nil, ErrInvalidStatus
		}
		status = parsed
	}

	if input.AssignedToID != nil {
		if err := s.ensureUserExists(*input.AssignedToID); err != nil {
			return nil, err
		}
	}

	task := &models.Task{
		Title:        input.Title,
		Description:  input.Description,
		Status:       status,
		DueDate:      input.DueDate,
		CreatorID:    actor.ID,
		AssignedByID: actor.ID,
		AssignedToID: input.AssignedToID,
	}

	if err := s.taskRepo.Create(task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	taskID := task.ID
	s.recorder.RecordBestEffort(audit.Event{
		Actor:      actor,
		Action:     fmt.Sprintf("Created task %q", task.Title),
		TargetType: models.TargetTask,
		TargetID:   &taskID,
		Details:    map[string]any{"assignedTo": input.AssignedToID},
	})

	return s.taskRepo.FindByID(task.ID, taskPreloads...)
}

// UpdateTask updates an existing task. Admin and manager may change any
// field; a member may only change the status of a task assigned to them,
// and any other fields they supply are silently ignored. Only fields
// that actually changed go into the ledger entry; an update that changes
// nothing writes no entry at all.
func (s *TaskService) UpdateTask(actor models.User, taskID uint64, input UpdateTaskInput) (*models.Task, error) {
	task, err := s.findTask(taskID)
	if err != nil {
		return nil, err
	}

	if err := authorize(s.gate, authz.Input{
		Role:            actor.Role,
		Operation:       authz.OpTaskUpdate,
		CallerID:        actor.ID,
		ResourceOwnerID: task.AssignedToID,
	}); err != nil {
		return nil, err
	}

	if actor.Role == models.RoleMember {
		return s.updateTaskStatusOnly(actor, task, input)
	}

	changes := map[string]any{}

	if input.Title != nil && *input.Title != task.Title {
		if strings.TrimSpace(*input.Title) == "" {
			return nil, ErrTitleRequired
		}
		changes["title"] = map[string]any{"old": task.Title, "new": *input.Title}
		task.Title = *input.Title
	}
	if input.Description != nil && *input.Description != task.Description {
		changes["description"] = map[string]any{"old": task.Description, "new": *input.Description}
		task.Description = *input.Description
	}
	if input.Status != nil {
		status, err := models.ParseTaskStatus(*input.Status)
		if err != nil {
			return nil, ErrInvalidStatus
		}
		if status != task.Status {
			changes["status"] = map[string]any{"old": task.Status, "new": status}
			task.Status = status
		}
	}
	if input.ClearDueDate {
		if task.DueDate != nil {
			changes["dueDate"] = map[string]any{"old": task.DueDate, "new": nil}
			task.DueDate = nil
		}
	} else if input.DueDate != nil && !equalTimePtr(task.DueDate, input.DueDate) {
		changes["dueDate"] = map[string]any{"old": task.DueDate, "new": input.DueDate}
		task.DueDate = input.DueDate
	}
	if input.ClearAssignedTo {
		if task.AssignedToID != nil {
			changes["assignedTo"] = map[string]any{"old": task.AssignedToID, "new": nil}
			task.AssignedToID = nil
		}
	} else if input.AssignedToID != nil && !equalUint64Ptr(task.AssignedToID, input.AssignedToID) {
		if err := s.ensureUserExists(*input.AssignedToID); err != nil {
			return nil, err
		}
		changes["assignedTo"] = map[string]any{"old": task.AssignedToID, "new": *input.AssignedToID}
		task.AssignedToID = input.AssignedToID
		task.AssignedByID = actor.ID
	}

	if len(changes) == 0 {
		return s.taskRepo.FindByID(task.ID, taskPreloads...)
	}

	if err := s.taskRepo.Update(task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	id := task.ID
	s.recorder.RecordBestEffort(audit.Event{
		Actor:      actor,
		Action:     fmt.Sprintf("Updated task %q", task.Title),
		TargetType: models.TargetTask,
		TargetID:   &id,
		Details:    changes,
	})

	return s.taskRepo.FindByID(task.ID, taskPreloads...)
}

// updateTaskStatusOnly applies the member update path: every field
// except status is ignored.
func (s *TaskService) updateTaskStatusOnly(actor models.User, task *models.Task, input UpdateTaskInput) (*models.Task, error) {
	if input.Status == nil {
		return s.taskRepo.FindByID(task.ID, taskPreloads...)
	}

	status, err := models.ParseTaskStatus(*input.Status)
	if err != nil {
		return nil, ErrInvalidStatus
	}

	if status == task.Status {
		return s.taskRepo.FindByID(task.ID, taskPreloads...)
	}

	oldStatus := task.Status
	task.Status = status
	if err := s.taskRepo.Update(task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	id := task.ID
	s.recorder.RecordBestEffort(audit.Event{
		Actor:      actor,
		Action:     fmt.Sprintf("Updated task status to %q", status),
		TargetType: models.TargetTask,
		TargetID:   &id,
		Details:    map[string]any{"oldStatus": oldStatus, "newStatus": status},
	})

	return s.taskRepo.FindByID(task.ID, taskPreloads...)
}

// DeleteTask deletes a task. Admin and manager only.
func (s *TaskService) DeleteTask(actor models.User, taskID uint64) error {
	task, err := s.findTask(taskID)
	if err != nil {
		return err
	}

	if err := authorize(s.gate, authz.Input{
		Role:      actor.Role,
		Operation: authz.OpTaskDelete,
		CallerID:  actor.ID,
	}); err != nil {
		return err
	}

	if err := s.taskRepo.Delete(task.ID); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	id := task.ID
	s.recorder.RecordBestEffort(audit.Event{
		Actor:      actor,
		Action:     fmt.Sprintf("Deleted task %q", task.Title),
		TargetType: models.TargetTask,
		TargetID:   &id,
		Details:    map[string]any{"title": task.Title},
	})

	return nil
}

// AddComment appends an immutable comment to a task the actor can reach.
func (s *TaskService) AddComment(actor models.User, taskID uint64, text string) (*models.Task, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrCommentTextRequired
	}

	task, err := s.findTask(taskID)
	if err != nil {
		return nil, err
	}

	if err := authorize(s.gate, authz.Input{
		Role:            actor.Role,
		Operation:       authz.OpTaskComment,
		CallerID:        actor.ID,
		ResourceOwnerID: task.AssignedToID,
	}); err != nil {
		return nil, err
	}

	comment := &models.Comment{
		TaskID:   task.ID,
		UserID:   actor.ID,
		Username: actor.Username,
		Text:     text,
	}
	if err := s.taskRepo.AddComment(comment); err != nil {
		return nil, fmt.Errorf("failed to add comment: %w", err)
	}

	id := task.ID
	s.recorder.RecordBestEffort(audit.Event{
		Actor:      actor,
		Action:     fmt.Sprintf("Added comment on task %q", task.Title),
		TargetType: models.TargetComment,
		TargetID:   &id,
		Details:    map[string]any{"text": text},
	})

	return s.taskRepo.FindByID(task.ID, taskPreloads...)
}

func (s *TaskService) findTask(taskID uint64, preload ...string) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(taskID, preload...)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return task, nil
}

func (s *TaskService) ensureUserExists(userID uint64) error {
	if _, err := s.userRepo.FindByID(userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalidAssignee
		}
		return fmt.Errorf("failed to verify assignee: %w", err)
	}
	return nil
}

func equalTimePtr(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

func equalUint64Ptr(a, b *uint64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
