package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/academy-backend-go/internal/domain/permission"
	"github.com/cmlabs-hris/academy-backend-go/internal/pkg/database"
)

type permissionRepository struct {
	db *database.DB
}

func NewPermissionRepository(db *database.DB) permission.PermissionRepository {
	return &permissionRepository{db: db}
}

// ListByUserID implements permission.PermissionRepository.
func (r *permissionRepository) ListByUserID(ctx context.Context, userID string) ([]permission.Permission, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, user_id, module, can_view, can_add, can_edit, can_delete, created_at, updated_at
		FROM permissions
		WHERE user_id = $1
		ORDER BY module
	`

	rows, err := q.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list permissions: %w", err)
	}
	defer rows.Close()

	perms := []permission.Permission{}
	for rows.Next() {
		var p permission.Permission
		if err := rows.Scan(
			&p.ID, &p.UserID, &p.Module,
			&p.CanView, &p.CanAdd, &p.CanEdit, &p.CanDelete,
			&p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan permission: %w", err)
		}
		perms = append(perms, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate permissions: %w", err)
	}

	return perms, nil
}

// UpsertMany implements permission.PermissionRepository.
func (r *permissionRepository) UpsertMany(ctx context.Context, userID string, perms []permission.Permission) ([]permission.Permission, error) {
	query := `
		INSERT INTO permissions (user_id, module, can_view, can_add, can_edit, can_delete)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, module) DO UPDATE
		SET can_view = EXCLUDED.can_view,
			can_add = EXCLUDED.can_add,
			can_edit = EXCLUDED.can_edit,
			can_delete = EXCLUDED.can_delete,
			updated_at = NOW()
		RETURNING id, created_at, updated_at
	`

	saved := make([]permission.Permission, 0, len(perms))
	err := WithTransaction(ctx, r.db, func(txCtx context.Context) error {
		q := GetQuerier(txCtx, r.db)
		for _, p := range perms {
			p.UserID = userID
			err := q.QueryRow(txCtx, query,
				p.UserID, p.Module, p.CanView, p.CanAdd, p.CanEdit, p.CanDelete,
			).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
			if err != nil {
				return fmt.Errorf("failed to upsert permission for module %s: %w", p.Module, err)
			}
			saved = append(saved, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return saved, nil
}
