package permission

import (
	"fmt"
	"strings"

	"github.com/cmlabs-hris/academy-backend-go/internal/pkg/validator"
)

type ModuleResponse struct {
	Value Module `json:"value"`
	Label string `json:"label"`
}

type ModulePermission struct {
	Module Module `json:"module"`
	CapabilitySet
}

type UpdatePermissionsRequest struct {
	UserID      string             `json:"-"`
	Permissions []ModulePermission `json:"permissions"`
}

func (r *UpdatePermissionsRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.UserID) {
		errs = append(errs, validator.ValidationError{
			Field:   "user_id",
			Message: "user_id is required",
		})
	}

	if r.Permissions == nil {
		errs = append(errs, validator.ValidationError{
			Field:   "permissions",
			Message: "permissions must be an array",
		})
	}

	allowed := make([]string, 0, len(AllModules))
	for _, m := range AllModules {
		allowed = append(allowed, string(m))
	}
	for i, p := range r.Permissions {
		if !validator.IsInSlice(string(p.Module), allowed) {
			errs = append(errs, validator.ValidationError{
				Field:   fmt.Sprintf("permissions[%d].module", i),
				Message: fmt.Sprintf("invalid module: %s. Allowed modules: %s", p.Module, strings.Join(allowed, ", ")),
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type UserPermissionsResponse struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`

	// Overrides are the stored per-user rows
	Overrides []ModulePermission `json:"overrides"`

	// Effective is the role default merged with the overrides
	Effective []ModulePermission `json:"effective"`
}
