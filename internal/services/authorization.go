package services

import (
	"github.com/taskboard/taskboard-api/internal/authz"
	"github.com/taskboard/taskboard-api/internal/models"
)

// AuthorizationError is returned when the authorization gate denies an
// operation. The reason is shown to the caller verbatim; RequiredRoles
// and UserRole populate the denial response details.
type AuthorizationError struct {
	Reason        string
	Operation     authz.Operation
	RequiredRoles []models.Role
	UserRole      models.Role
}

func (e *AuthorizationError) Error() string {
	return e.Reason
}

// authorize runs the gate and wraps a denial into an AuthorizationError.
func authorize(gate *authz.Gate, in authz.Input) error {
	decision := gate.Authorize(in)
	if decision.Allowed {
		return nil
	}
	return &AuthorizationError{
		Reason:        decision.Reason,
		Operation:     in.Operation,
		RequiredRoles: gate.AllowedRoles(in.Operation),
		UserRole:      in.Role,
	}
}
