package user

import (
	"context"
)

type UserRepository interface {
	GetByID(ctx context.Context, id string) (User, error)
	GetNamesByIDs(ctx context.Context, ids []string) (map[string]string, error)
}
