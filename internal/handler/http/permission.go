package http

import (
	"encoding/json"
	"net/http"

	"github.com/cmlabs-hris/academy-backend-go/internal/domain/permission"
	"github.com/cmlabs-hris/academy-backend-go/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type PermissionHandler interface {
	ListModules(w http.ResponseWriter, r *http.Request)
	GetUserPermissions(w http.ResponseWriter, r *http.Request)
	UpdateUserPermissions(w http.ResponseWriter, r *http.Request)
}

type permissionHandlerImpl struct {
	permissionService permission.PermissionService
}

func NewPermissionHandler(permissionService permission.PermissionService) PermissionHandler {
	return &permissionHandlerImpl{
		permissionService: permissionService,
	}
}

// ListModules implements PermissionHandler.
func (h *permissionHandlerImpl) ListModules(w http.ResponseWriter, r *http.Request) {
	response.Success(w, h.permissionService.ListModules(r.Context()))
}

// GetUserPermissions implements PermissionHandler.
func (h *permissionHandlerImpl) GetUserPermissions(w http.ResponseWriter, r *http.Request) {
	result, err := h.permissionService.GetUserPermissions(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// UpdateUserPermissions implements PermissionHandler.
func (h *permissionHandlerImpl) UpdateUserPermissions(w http.ResponseWriter, r *http.Request) {
	var req permission.UpdatePermissionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}
	req.UserID = chi.URLParam(r, "id")

	result, err := h.permissionService.UpdateUserPermissions(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Permissions updated", result)
}
