package security

import (
	"fmt"
	"log/slog"

	"github.com/upkeephq/upkeep/internal/domain"
)

// Permission represents an action permission
type Permission string

const (
	PermCreateRequest   Permission = "create_request"
	PermViewOwnRequests Permission = "view_own_requests"
	PermViewAllRequests Permission = "view_all_requests"
	PermAssignWorker    Permission = "assign_worker"
	PermApproveRequest  Permission = "approve_request"
	PermDenyRequest     Permission = "deny_request"
	PermCompleteRequest Permission = "complete_request"
	PermRateWorker      Permission = "rate_worker"
	PermViewInvoices    Permission = "view_invoices"
	PermManageProperty  Permission = "manage_property"
	PermManageWorkers   Permission = "manage_workers"
)

// RolePermissions maps each of the three fixed roles to its capability set.
// Roles never overlap outside this table; there is no admin superset.
var RolePermissions = map[domain.Role][]Permission{
	domain.RoleTenant: {
		PermCreateRequest,
		PermViewOwnRequests,
		PermRateWorker,
	},
	domain.RoleAgent: {
		PermViewAllRequests,
		PermAssignWorker,
		PermCompleteRequest,
		PermViewInvoices,
		PermManageProperty,
		PermManageWorkers,
	},
	domain.RoleLandlord: {
		PermViewOwnRequests,
		PermApproveRequest,
		PermDenyRequest,
		PermRateWorker,
		PermViewInvoices,
		PermManageProperty,
	},
}

// AuthorizationService handles authorization checks
type AuthorizationService struct {
	logger *slog.Logger
}

// NewAuthorizationService creates a new authorization service
func NewAuthorizationService(logger *slog.Logger) *AuthorizationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthorizationService{
		logger: logger,
	}
}

// HasPermission checks if a role has a specific permission
func (as *AuthorizationService) HasPermission(role domain.Role, permission Permission) bool {
	permissions, exists := RolePermissions[role]
	if !exists {
		return false
	}
	for _, p := range permissions {
		if p == permission {
			return true
		}
	}
	return false
}

// ValidatePermission validates that a role has a specific permission
func (as *AuthorizationService) ValidatePermission(role domain.Role, permission Permission) error {
	if !as.HasPermission(role, permission) {
		as.logger.Warn("permission denied",
			slog.String("role", string(role)),
			slog.String("permission", string(permission)),
		)
		return fmt.Errorf("%w: %s role cannot %s", domain.ErrForbidden, role, permission)
	}
	return nil
}

// GetRolePermissions returns all permissions for a role
func (as *AuthorizationService) GetRolePermissions(role domain.Role) []Permission {
	return RolePermissions[role]
}
