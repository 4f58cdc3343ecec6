package permission

import "context"

type PermissionRepository interface {
	ListByUserID(ctx context.Context, userID string) ([]Permission, error)

	// UpsertMany creates or replaces the override rows of a user atomically
	UpsertMany(ctx context.Context, userID string, perms []Permission) ([]Permission, error)
}
