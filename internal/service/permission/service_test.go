package permission

import (
	"context"
	"testing"

	"github.com/cmlabs-hris/academy-backend-go/internal/domain/permission"
	"github.com/cmlabs-hris/academy-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/academy-backend-go/internal/pkg/validator"
	"github.com/go-chi/jwtauth/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUserRepository struct {
	users map[string]user.User
}

func (f *fakeUserRepository) GetByID(ctx context.Context, id string) (user.User, error) {
	u, ok := f.users[id]
	if !ok {
		return user.User{}, user.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeUserRepository) GetNamesByIDs(ctx context.Context, ids []string) (map[string]string, error) {
	names := make(map[string]string)
	for _, id := range ids {
		if u, ok := f.users[id]; ok {
			names[id] = u.Name
		}
	}
	return names, nil
}

type fakePermissionRepository struct {
	rows map[string]map[permission.Module]permission.Permission
}

func (f *fakePermissionRepository) ListByUserID(ctx context.Context, userID string) ([]permission.Permission, error) {
	var out []permission.Permission
	for _, m := range permission.AllModules {
		if p, ok := f.rows[userID][m]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakePermissionRepository) UpsertMany(ctx context.Context, userID string, perms []permission.Permission) ([]permission.Permission, error) {
	if f.rows[userID] == nil {
		f.rows[userID] = make(map[permission.Module]permission.Permission)
	}
	for _, p := range perms {
		f.rows[userID][p.Module] = p
	}
	return perms, nil
}

func callerContext(t *testing.T, userID string, role user.Role) context.Context {
	t.Helper()
	ja := jwtauth.New("HS256", []byte("test-secret"), nil)
	token, _, err := ja.Encode(map[string]interface{}{"user_id": userID, "role": string(role), "type": "access"})
	require.NoError(t, err)
	return jwtauth.NewContext(context.Background(), token, nil)
}

func newTestService() (*PermissionServiceImpl, *fakePermissionRepository) {
	users := &fakeUserRepository{users: map[string]user.User{
		"root":  {ID: "root", Name: "Root", Role: user.RoleSuperAdmin, IsActive: true},
		"admin": {ID: "admin", Name: "Admin", Role: user.RoleAdmin, IsActive: true},
		"emp":   {ID: "emp", Name: "Employee", Role: user.RoleEmployee, IsActive: true},
		"emp2":  {ID: "emp2", Name: "Other", Role: user.RoleEmployee, IsActive: true},
		"gone":  {ID: "gone", Name: "Former", Role: user.RoleEmployee, IsActive: false},
	}}
	perms := &fakePermissionRepository{rows: make(map[string]map[permission.Module]permission.Permission)}
	return NewPermissionService(perms, users).(*PermissionServiceImpl), perms
}

func TestAuthorize(t *testing.T) {
	svc, perms := newTestService()
	ctx := context.Background()
	emp := user.Caller{UserID: "emp", Role: user.RoleEmployee}

	assert.NoError(t, svc.Authorize(ctx, emp, permission.ModuleEmployeePunches, permission.CapabilityAdd))
	assert.ErrorIs(t, svc.Authorize(ctx, emp, permission.ModuleEmployees, permission.CapabilityView), permission.ErrCapabilityDenied)

	_, err := perms.UpsertMany(ctx, "emp", []permission.Permission{
		{UserID: "emp", Module: permission.ModuleEmployees, CapabilitySet: permission.CapabilitySet{CanView: true}},
	})
	require.NoError(t, err)
	assert.NoError(t, svc.Authorize(ctx, emp, permission.ModuleEmployees, permission.CapabilityView))

	root := user.Caller{UserID: "root", Role: user.RoleSuperAdmin}
	assert.NoError(t, svc.Authorize(ctx, root, permission.ModuleEmployeePunches, permission.CapabilityDelete))
}

func TestAuthorizeInactiveAndUnknownUsers(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	gone := user.Caller{UserID: "gone", Role: user.RoleEmployee}
	assert.ErrorIs(t, svc.Authorize(ctx, gone, permission.ModuleEmployeePunches, permission.CapabilityAdd), user.ErrUserInactive)

	unsynced := user.Caller{UserID: "not-in-table", Role: user.RoleEmployee}
	assert.NoError(t, svc.Authorize(ctx, unsynced, permission.ModuleEmployeePunches, permission.CapabilityAdd))
}

func TestListModules(t *testing.T) {
	svc, _ := newTestService()
	modules := svc.ListModules(context.Background())
	require.Len(t, modules, len(permission.AllModules))
	assert.Equal(t, permission.ModuleBatches, modules[0].Value)
	assert.Equal(t, "Batches", modules[0].Label)
}

func TestGetUserPermissions(t *testing.T) {
	svc, _ := newTestService()

	resp, err := svc.GetUserPermissions(callerContext(t, "emp", user.RoleEmployee), "emp")
	require.NoError(t, err)
	assert.Equal(t, "employee", resp.Role)
	assert.Len(t, resp.Effective, len(permission.AllModules))
	assert.Empty(t, resp.Overrides)

	_, err = svc.GetUserPermissions(callerContext(t, "emp", user.RoleEmployee), "emp2")
	assert.ErrorIs(t, err, permission.ErrViewOwnOnly)

	_, err = svc.GetUserPermissions(callerContext(t, "admin", user.RoleAdmin), "emp2")
	assert.NoError(t, err)

	_, err = svc.GetUserPermissions(callerContext(t, "admin", user.RoleAdmin), "ghost")
	assert.ErrorIs(t, err, user.ErrUserNotFound)
}

func TestUpdateUserPermissions(t *testing.T) {
	grantView := []permission.ModulePermission{{
		Module:        permission.ModuleEmployees,
		CapabilitySet: permission.CapabilitySet{CanView: true},
	}}

	t.Run("admin grants a capability", func(t *testing.T) {
		svc, _ := newTestService()
		resp, err := svc.UpdateUserPermissions(callerContext(t, "admin", user.RoleAdmin), permission.UpdatePermissionsRequest{
			UserID:      "emp",
			Permissions: grantView,
		})
		require.NoError(t, err)
		require.Len(t, resp.Overrides, 1)

		err = svc.Authorize(context.Background(), user.Caller{UserID: "emp", Role: user.RoleEmployee}, permission.ModuleEmployees, permission.CapabilityView)
		assert.NoError(t, err)
	})

	t.Run("non admin is rejected", func(t *testing.T) {
		svc, _ := newTestService()
		_, err := svc.UpdateUserPermissions(callerContext(t, "emp", user.RoleEmployee), permission.UpdatePermissionsRequest{
			UserID:      "emp",
			Permissions: grantView,
		})
		assert.ErrorIs(t, err, permission.ErrAdminRequired)
	})

	t.Run("superadmin is protected from admins", func(t *testing.T) {
		svc, _ := newTestService()
		_, err := svc.UpdateUserPermissions(callerContext(t, "admin", user.RoleAdmin), permission.UpdatePermissionsRequest{
			UserID:      "root",
			Permissions: grantView,
		})
		assert.ErrorIs(t, err, permission.ErrSuperAdminProtected)

		_, err = svc.UpdateUserPermissions(callerContext(t, "root", user.RoleSuperAdmin), permission.UpdatePermissionsRequest{
			UserID:      "root",
			Permissions: grantView,
		})
		assert.NoError(t, err)
	})

	t.Run("unknown module", func(t *testing.T) {
		svc, _ := newTestService()
		_, err := svc.UpdateUserPermissions(callerContext(t, "admin", user.RoleAdmin), permission.UpdatePermissionsRequest{
			UserID:      "emp",
			Permissions: []permission.ModulePermission{{Module: "payroll"}},
		})
		var verrs validator.ValidationErrors
		require.ErrorAs(t, err, &verrs)
		assert.Contains(t, verrs.ToMap(), "permissions[0].module")
	})

	t.Run("missing target", func(t *testing.T) {
		svc, _ := newTestService()
		_, err := svc.UpdateUserPermissions(callerContext(t, "admin", user.RoleAdmin), permission.UpdatePermissionsRequest{
			UserID:      "ghost",
			Permissions: grantView,
		})
		assert.ErrorIs(t, err, user.ErrUserNotFound)
	})
}
