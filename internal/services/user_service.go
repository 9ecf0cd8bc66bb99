package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/taskboard/taskboard-api/internal/audit"
	"github.com/taskboard/taskboard-api/internal/authz"
	"github.com/taskboard/taskboard-api/internal/constants"
	"github.com/taskboard/taskboard-api/internal/models"
	"github.com/taskboard/taskboard-api/internal/repository"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrUserExists        = errors.New("user already exists")
	ErrInvalidRole       = errors.New("invalid role")
	ErrMissingUserFields = errors.New("username, email and password are required")
)

// UserService handles user administration.
type UserService struct {
	userRepo repository.UserRepository
	gate     *authz.Gate
	recorder *audit.Recorder
}

// NewUserService creates a new UserService
func NewUserService(userRepo repository.UserRepository, gate *authz.Gate, recorder *audit.Recorder) *UserService {
	return &UserService{
		userRepo: userRepo,
		gate:     gate,
		recorder: recorder,
	}
}

// CreateUserInput represents input for creating a user
type CreateUserInput struct {
	Username string
	Email    string
	Password string
	Role     string
}

// ListUsers returns all users. Admin and manager only (managers need the
// list for task assignment).
func (s *UserService) ListUsers(actor models.User) ([]models.User, error) {
	if err := authorize(s.gate, authz.Input{
		Role:      actor.Role,
		Operation: authz.OpUserList,
		CallerID:  actor.ID,
	}); err != nil {
		return nil, err
	}

	users, err := s.userRepo.List()
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// CreateUser creates a new account. Admin only.
func (s *UserService) CreateUser(actor models.User, input CreateUserInput) (*models.User, error) {
	if err := authorize(s.gate, authz.Input{
		Role:      actor.Role,
		Operation: authz.OpUserCreate,
		CallerID:  actor.ID,
	}); err != nil {
		return nil, err
	}

	username := strings.TrimSpace(input.Username)
	if username == "" || input.Email == "" || input.Password == "" {
		return nil, ErrMissingUserFields
	}
	if len(input.Password) < constants.MinPasswordLength {
		return nil, ErrPasswordTooShort
	}

	role := models.RoleMember
	if input.Role != "" {
		parsed, err := models.ParseRole(input.Role)
		if err != nil {
			return nil, ErrInvalidRole
		}
		role = parsed
	}

	if err := s.ensureUnique(username, input.Email); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, ErrFailedToHashPassword
	}

	user := &models.User{
		Username:     username,
		Email:        input.Email,
		PasswordHash: string(hash),
		Role:         role,
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	userID := user.ID
	s.recorder.RecordBestEffort(audit.Event{
		Actor:      actor,
		Action:     fmt.Sprintf("Created user %q with role %q", user.Username, user.Role),
		TargetType: models.TargetUser,
		TargetID:   &userID,
		Details:    map[string]any{"email": user.Email, "role": user.Role},
	})

	return user, nil
}

// UpdateUserRole changes a user's role. Admin only.
func (s *UserService) UpdateUserRole(actor models.User, targetID uint64, roleStr string) (*models.User, error) {
	if err := authorize(s.gate, authz.Input{
		Role:         actor.Role,
		Operation:    authz.OpUserUpdateRole,
		CallerID:     actor.ID,
		TargetUserID: targetID,
	}); err != nil {
		return nil, err
	}

	role, err := models.ParseRole(roleStr)
	if err != nil {
		return nil, ErrInvalidRole
	}

	user, err := s.userRepo.FindByID(targetID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	oldRole := user.Role
	user.Role = role
	if err := s.userRepo.Update(user); err != nil {
		return nil, fmt.Errorf("failed to update user role: %w", err)
	}

	userID := user.ID
	s.recorder.RecordBestEffort(audit.Event{
		Actor:      actor,
		Action:     fmt.Sprintf("Updated user %q role from %q to %q", user.Username, oldRole, role),
		TargetType: models.TargetUser,
		TargetID:   &userID,
		Details:    map[string]any{"oldRole": oldRole, "newRole": role},
	})

	return user, nil
}

// DeleteUser removes an account. Admin only; self-deletion is denied by
// the gate regardless of role.
func (s *UserService) DeleteUser(actor models.User, targetID uint64) error {
	if err := authorize(s.gate, authz.Input{
		Role:         actor.Role,
		Operation:    authz.OpUserDelete,
		CallerID:     actor.ID,
		TargetUserID: targetID,
	}); err != nil {
		return err
	}

	user, err := s.userRepo.FindByID(targetID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to find user: %w", err)
	}

	if err := s.userRepo.Delete(user.ID); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	s.recorder.RecordBestEffort(audit.Event{
		Actor:      actor,
		Action:     fmt.Sprintf("Deleted user %q (%s)", user.Username, user.Email),
		TargetType: models.TargetUser,
		TargetID:   &targetID,
		Details:    map[string]any{"email": user.Email, "role": user.Role},
	})

	return nil
}

func (s *UserService) ensureUnique(username, email string) error {
	if _, err := s.userRepo.FindByEmail(email); err == nil {
		return ErrUserExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to check email: %w", err)
	}

	if _, err := s.userRepo.FindByUsername(username); err == nil {
		return ErrUserExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to check username: %w", err)
	}

	return nil
}
