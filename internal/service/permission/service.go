package permission

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cmlabs-hris/academy-backend-go/internal/domain/permission"
	"github.com/cmlabs-hris/academy-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/academy-backend-go/internal/pkg/jwt"
)

type PermissionServiceImpl struct {
	permission.PermissionRepository
	user.UserRepository
}

func NewPermissionService(permissionRepository permission.PermissionRepository, userRepository user.UserRepository) permission.PermissionService {
	return &PermissionServiceImpl{
		PermissionRepository: permissionRepository,
		UserRepository:       userRepository,
	}
}

// Authorize implements permission.Authorizer.
func (s *PermissionServiceImpl) Authorize(ctx context.Context, caller user.Caller, module permission.Module, capability permission.Capability) error {
	if caller.IsSuperAdmin() {
		return nil
	}

	// Accounts missing from the local users table are judged by their token role
	account, err := s.UserRepository.GetByID(ctx, caller.UserID)
	switch {
	case err == nil && !account.IsActive:
		return user.ErrUserInactive
	case err != nil && !errors.Is(err, user.ErrUserNotFound):
		return fmt.Errorf("failed to load user: %w", err)
	}

	overrides, err := s.PermissionRepository.ListByUserID(ctx, caller.UserID)
	if err != nil {
		return fmt.Errorf("failed to load permissions: %w", err)
	}

	if !permission.Allows(permission.Resolve(caller.Role, overrides), module, capability) {
		return fmt.Errorf("%w: required '%s:%s'", permission.ErrCapabilityDenied, module, capability)
	}
	return nil
}

// ListModules implements permission.PermissionService.
func (s *PermissionServiceImpl) ListModules(ctx context.Context) []permission.ModuleResponse {
	modules := make([]permission.ModuleResponse, 0, len(permission.AllModules))
	for _, m := range permission.AllModules {
		modules = append(modules, permission.ModuleResponse{Value: m, Label: m.Label()})
	}
	return modules
}

// GetUserPermissions implements permission.PermissionService.
func (s *PermissionServiceImpl) GetUserPermissions(ctx context.Context, userID string) (permission.UserPermissionsResponse, error) {
	caller, err := jwt.CallerFromContext(ctx)
	if err != nil {
		return permission.UserPermissionsResponse{}, err
	}

	if caller.UserID != userID && !caller.IsAdmin() {
		return permission.UserPermissionsResponse{}, permission.ErrViewOwnOnly
	}

	target, err := s.UserRepository.GetByID(ctx, userID)
	if err != nil {
		return permission.UserPermissionsResponse{}, err
	}

	overrides, err := s.PermissionRepository.ListByUserID(ctx, userID)
	if err != nil {
		return permission.UserPermissionsResponse{}, fmt.Errorf("failed to load permissions: %w", err)
	}

	return buildResponse(target, overrides), nil
}

// UpdateUserPermissions implements permission.PermissionService.
func (s *PermissionServiceImpl) UpdateUserPermissions(ctx context.Context, req permission.UpdatePermissionsRequest) (permission.UserPermissionsResponse, error) {
	if err := req.Validate(); err != nil {
		return permission.UserPermissionsResponse{}, err
	}

	caller, err := jwt.CallerFromContext(ctx)
	if err != nil {
		return permission.UserPermissionsResponse{}, err
	}
	if !caller.IsAdmin() {
		return permission.UserPermissionsResponse{}, permission.ErrAdminRequired
	}

	target, err := s.UserRepository.GetByID(ctx, req.UserID)
	if err != nil {
		return permission.UserPermissionsResponse{}, err
	}
	if target.Role == user.RoleSuperAdmin && !caller.IsSuperAdmin() {
		return permission.UserPermissionsResponse{}, permission.ErrSuperAdminProtected
	}

	perms := make([]permission.Permission, 0, len(req.Permissions))
	for _, p := range req.Permissions {
		perms = append(perms, permission.Permission{
			UserID:        target.ID,
			Module:        p.Module,
			CapabilitySet: p.CapabilitySet,
		})
	}

	if _, err := s.PermissionRepository.UpsertMany(ctx, target.ID, perms); err != nil {
		return permission.UserPermissionsResponse{}, fmt.Errorf("failed to update permissions: %w", err)
	}

	overrides, err := s.PermissionRepository.ListByUserID(ctx, target.ID)
	if err != nil {
		return permission.UserPermissionsResponse{}, fmt.Errorf("failed to load permissions: %w", err)
	}

	slog.Info("User permissions updated", "user_id", target.ID, "updated_by", caller.UserID, "modules", len(perms))
	return buildResponse(target, overrides), nil
}

func buildResponse(target user.User, overrides []permission.Permission) permission.UserPermissionsResponse {
	stored := make([]permission.ModulePermission, 0, len(overrides))
	for _, o := range overrides {
		stored = append(stored, permission.ModulePermission{Module: o.Module, CapabilitySet: o.CapabilitySet})
	}

	resolved := permission.Resolve(target.Role, overrides)
	effective := make([]permission.ModulePermission, 0, len(permission.AllModules))
	for _, m := range permission.AllModules {
		effective = append(effective, permission.ModulePermission{Module: m, CapabilitySet: resolved[m]})
	}

	return permission.UserPermissionsResponse{
		UserID:    target.ID,
		Role:      string(target.Role),
		Overrides: stored,
		Effective: effective,
	}
}
