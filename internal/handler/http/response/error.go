package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/academy-backend-go/internal/domain/auth"
	"github.com/cmlabs-hris/academy-backend-go/internal/domain/permission"
	"github.com/cmlabs-hris/academy-backend-go/internal/domain/punch"
	"github.com/cmlabs-hris/academy-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/academy-backend-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Auth
	case errors.Is(err, auth.ErrTokenExpired):
		Unauthorized(w, "Token expired")
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrMissingClaims):
		Unauthorized(w, "Authentication required")

	// Permission
	case errors.Is(err, permission.ErrCapabilityDenied),
		errors.Is(err, permission.ErrSuperAdminProtected),
		errors.Is(err, permission.ErrAdminRequired),
		errors.Is(err, permission.ErrViewOwnOnly):
		Forbidden(w, err.Error())
	case errors.Is(err, permission.ErrInvalidModule):
		BadRequest(w, err.Error(), nil)

	// User
	case errors.Is(err, user.ErrUserNotFound):
		NotFound(w, "User not found")
	case errors.Is(err, user.ErrUserInactive):
		Forbidden(w, "User is inactive")

	// Punch
	case errors.Is(err, punch.ErrAlreadyPunchedIn),
		errors.Is(err, punch.ErrAlreadyPunchedOut),
		errors.Is(err, punch.ErrNotPunchedIn),
		errors.Is(err, punch.ErrBreakAlreadyEnded),
		errors.Is(err, punch.ErrConcurrentModification):
		Conflict(w, rootMessage(err))
	case errors.Is(err, punch.ErrBreakNotFound):
		NotFound(w, "Break not found")
	case errors.Is(err, punch.ErrInvalidBreak):
		BadRequest(w, err.Error(), nil)

	default:
		slog.Error("Unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}

// rootMessage returns the message of the innermost wrapped error so that
// internal wrapping context is not exposed to clients.
func rootMessage(err error) string {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err.Error()
		}
		err = next
	}
}
