package authz

import (
	"github.com/taskboard/taskboard-api/internal/models"
)

// Operation names a single gated action. The set is closed; the policy
// table below is the only source of permissions.
type Operation string

const (
	OpTaskCreate  Operation = "task.create"
	OpTaskRead    Operation = "task.read"
	OpTaskUpdate  Operation = "task.update"
	OpTaskDelete  Operation = "task.delete"
	OpTaskComment Operation = "task.comment"

	OpUserCreate     Operation = "user.create"
	OpUserList       Operation = "user.list"
	OpUserUpdateRole Operation = "user.updateRole"
	OpUserDelete     Operation = "user.delete"

	OpActivityRead Operation = "activity.read"
)

// Input carries everything a single authorization decision depends on.
// ResourceOwnerID is the assigned-to user of the resource for
// ownership-sensitive operations; nil means unassigned. TargetUserID is
// the user a user.* operation acts on.
type Input struct {
	Role            models.Role
	Operation       Operation
	CallerID        uint64
	ResourceOwnerID *uint64
	TargetUserID    uint64
}

// Decision is the gate's verdict. Reason is returned verbatim to the
// caller on denial.
type Decision struct {
	Allowed bool
	Reason  string
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(reason string) Decision {
	return Decision{Allowed: false, Reason: reason}
}

// Gate evaluates the static role policy. It holds no state beyond the
// table built at construction and performs no side effects.
type Gate struct {
	policy map[Operation]map[models.Role]bool
}

// ownershipOps are the operations where a member's permission depends on
// the resource being assigned to them.
var ownershipOps = map[Operation]bool{
	OpTaskRead:    true,
	OpTaskUpdate:  true,
	OpTaskComment: true,
}

// NewGate builds the policy table.
func NewGate() *Gate {
	grant := func(roles ...models.Role) map[models.Role]bool {
		m := make(map[models.Role]bool, len(roles))
		for _, r := range roles {
			m[r] = true
		}
		return m
	}

	return &Gate{
		policy: map[Operation]map[models.Role]bool{
			OpTaskCreate:  grant(models.RoleAdmin, models.RoleManager),
			OpTaskRead:    grant(models.RoleAdmin, models.RoleManager, models.RoleMember),
			OpTaskUpdate:  grant(models.RoleAdmin, models.RoleManager, models.RoleMember),
			OpTaskDelete:  grant(models.RoleAdmin, models.RoleManager),
			OpTaskComment: grant(models.RoleAdmin, models.RoleManager, models.RoleMember),

			OpUserCreate:     grant(models.RoleAdmin),
			OpUserList:       grant(models.RoleAdmin, models.RoleManager),
			OpUserUpdateRole: grant(models.RoleAdmin),
			OpUserDelete:     grant(models.RoleAdmin),

			OpActivityRead: grant(models.RoleAdmin, models.RoleManager),
		},
	}
}

// Authorize decides whether the caller may perform the operation.
func (g *Gate) Authorize(in Input) Decision {
	if !in.Role.Valid() {
		return deny("Access forbidden: Insufficient permissions")
	}

	allowed, known := g.policy[in.Operation]
	if !known {
		return deny("Access forbidden: Insufficient permissions")
	}
	if !allowed[in.Role] {
		return deny("Access forbidden: Insufficient permissions")
	}

	// Self-deletion is forbidden for every role, separately from the
	// role table.
	if in.Operation == OpUserDelete && in.TargetUserID == in.CallerID {
		return deny("Cannot delete your own account")
	}

	// Members only reach ownership-sensitive task operations on tasks
	// assigned to them.
	if in.Role == models.RoleMember && ownershipOps[in.Operation] {
		if in.ResourceOwnerID == nil || *in.ResourceOwnerID != in.CallerID {
			return deny("Access denied")
		}
	}

	return allow()
}

// AllowedRoles lists the roles the policy table accepts for an
// operation, used to populate denial responses.
func (g *Gate) AllowedRoles(op Operation) []models.Role {
	allowed := g.policy[op]
	roles := make([]models.Role, 0, len(allowed))
	for _, r := range []models.Role{models.RoleAdmin, models.RoleManager, models.RoleMember} {
		if allowed[r] {
			roles = append(roles, r)
		}
	}
	return roles
}
