package permission

import (
	"context"

	"github.com/cmlabs-hris/academy-backend-go/internal/domain/user"
)

// Authorizer is the single capability check applied before protected operations.
type Authorizer interface {
	Authorize(ctx context.Context, caller user.Caller, module Module, capability Capability) error
}

type PermissionService interface {
	Authorizer
	ListModules(ctx context.Context) []ModuleResponse
	GetUserPermissions(ctx context.Context, userID string) (UserPermissionsResponse, error)
	UpdateUserPermissions(ctx context.Context, req UpdatePermissionsRequest) (UserPermissionsResponse, error)
}
