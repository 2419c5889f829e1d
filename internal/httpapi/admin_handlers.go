package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"bazarly.org/internal/audit"
	"bazarly.org/internal/auth"
)

type setRoleRequest struct {
	Role string `json:"role" validate:"required"`
}

type setActiveRequest struct {
	IsActive *bool `json:"is_active" validate:"required"`
}

func (a *API) handleAdminListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := a.auth.ListUsers(r.Context())
	if err != nil {
		handleAuthError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"users": users,
		"count": len(users),
	})
}

func (a *API) handleAdminSetRole(w http.ResponseWriter, r *http.Request) {
	var req setRoleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	role, err := auth.ParseRole(req.Role)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "unknown role")
		return
	}

	user, err := a.auth.SetUserRole(r.Context(), chi.URLParam(r, "id"), role)
	if err != nil {
		handleAuthError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "admin.user.role_changed", map[string]any{
		"target_user_id": user.ID,
		"new_role":       string(role),
	})
	writeJSON(w, http.StatusOK, user)
}

func (a *API) handleAdminSetActive(w http.ResponseWriter, r *http.Request) {
	var req setActiveRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.IsActive == nil {
		writeError(w, r, http.StatusBadRequest, "is_active is required")
		return
	}

	// Suspension also hides the target's listings, in the same store
	// transaction as the account flip.
	user, err := a.auth.SetUserActive(r.Context(), chi.URLParam(r, "id"), *req.IsActive)
	if err != nil {
		handleAuthError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "admin.user.active_changed", map[string]any{
		"target_user_id": user.ID,
		"is_active":      user.IsActive,
	})
	writeJSON(w, http.StatusOK, user)
}
