package services

import (
	"errors"
	"fmt"

	"github.com/taskboard/taskboard-api/internal/authz"
	"github.com/taskboard/taskboard-api/internal/models"
	"github.com/taskboard/taskboard-api/internal/repository"
)

var ErrInvalidTargetType = errors.New("invalid target type")

// ActivityService exposes the read side of the activity ledger.
type ActivityService struct {
	activityRepo repository.ActivityRepository
	gate         *authz.Gate
}

// NewActivityService creates a new ActivityService
func NewActivityService(activityRepo repository.ActivityRepository, gate *authz.Gate) *ActivityService {
	return &ActivityService{
		activityRepo: activityRepo,
		gate:         gate,
	}
}

// ListActivityInput represents filters for listing ledger entries
type ListActivityInput struct {
	TargetType string
	ActorID    *uint64
	Limit      int
	Skip       int
}

// ActivityPage is one page of ledger entries, newest first.
type ActivityPage struct {
	Logs    []models.ActivityLog
	Total   int64
	HasMore bool
}

// List returns a page of ledger entries. Admin and manager only.
func (s *ActivityService) List(actor models.User, input ListActivityInput) (*ActivityPage, error) {
	if err := authorize(s.gate, authz.Input{
		Role:      actor.Role,
		Operation: authz.OpActivityRead,
		CallerID:  actor.ID,
	}); err != nil {
		return nil, err
	}

	filter := repository.ActivityFilter{
		Limit: input.Limit,
		Skip:  input.Skip,
	}

	if input.TargetType != "" {
		switch t := models.TargetType(input.TargetType); t {
		case models.TargetUser, models.TargetTask, models.TargetComment, models.TargetSystem:
			filter.TargetType = &t
		default:
			return nil, ErrInvalidTargetType
		}
	}
	if input.ActorID != nil {
		filter.ActorID = input.ActorID
	}

	logs, total, err := s.activityRepo.List(filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity: %w", err)
	}

	return &ActivityPage{
		Logs:    logs,
		Total:   total,
		HasMore: int64(input.Skip+len(logs)) < total,
	}, nil
}

// Recent returns the newest entries for the dashboard feed. Admin and
// manager only.
func (s *ActivityService) Recent(actor models.User, limit int) ([]models.ActivityLog, error) {
	if err := authorize(s.gate, authz.Input{
		Role:      actor.Role,
		Operation: authz.OpActivityRead,
		CallerID:  actor.ID,
	}); err != nil {
		return nil, err
	}

	logs, err := s.activityRepo.Recent(limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch recent activity: %w", err)
	}
	return logs, nil
}
