package httpapi

import (
	"net/http"
	"strings"
	"time"

	"bazarly.org/internal/audit"
	"bazarly.org/internal/auth"
	"bazarly.org/internal/obs"
)

type registerRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	FirstName string `json:"first_name" validate:"max=100"`
	LastName  string `json:"last_name" validate:"max=100"`
	Role      string `json:"role"`
}

type tokenResponse struct {
	Token     string    `json:"token"`
	TokenType string    `json:"token_type"`
	ExpiresAt time.Time `json:"expires_at"`
}

type accountActionRequest struct {
	Password string `json:"password" validate:"required"`
}

type reactivateRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := a.validate.Struct(req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid registration payload")
		return
	}
	// Public registration never grants elevated roles.
	if role := strings.TrimSpace(strings.ToLower(req.Role)); role != "" && role != string(auth.RoleBuyer) {
		writeError(w, r, http.StatusBadRequest, "public registration only allows the buyer role")
		return
	}

	user, err := a.auth.Register(r.Context(), auth.RegisterParams{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		handleAuthError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "auth.register", map[string]any{
		"user_id": user.ID,
		"email":   user.Email,
	})
	writeJSON(w, http.StatusCreated, user)
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	// Login is form-encoded, mirroring the OAuth2 password grant shape.
	if err := r.ParseForm(); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid form body")
		return
	}
	email := r.PostFormValue("username")
	if email == "" {
		email = r.PostFormValue("email")
	}
	password := r.PostFormValue("password")

	token, expiresAt, user, err := a.auth.IssueToken(r.Context(), email, password)
	if err != nil {
		obs.ObserveLogin("rejected")
		handleAuthError(w, r, err)
		return
	}

	obs.ObserveLogin("ok")
	_ = audit.LogEvent(r.Context(), "auth.token.issued", map[string]any{
		"user_id":    user.ID,
		"expires_at": expiresAt.Format(time.RFC3339),
	})
	writeJSON(w, http.StatusOK, tokenResponse{
		Token:     token,
		TokenType: "bearer",
		ExpiresAt: expiresAt,
	})
}

func (a *API) handleMe(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}
	writeJSON(w, http.StatusOK, principal.User)
}

func (a *API) handleAccountInfo(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}
	stats, err := a.catalog.StatsFor(r.Context(), actorFor(principal))
	if err != nil {
		handleCatalogError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"user":           principal.User,
		"products_stats": stats,
	})
}

func (a *API) handleDeactivateAccount(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}
	var req accountActionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	// The store hides the seller's listings and the account in one
	// transaction, so a failure never leaves them out of step.
	user, deactivated, err := a.auth.DeactivateAccount(r.Context(), principal.User.ID, req.Password)
	if err != nil {
		handleAuthError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "auth.account.deactivated", map[string]any{
		"user_id":              user.ID,
		"deactivated_products": deactivated,
	})
	writeJSON(w, http.StatusOK, map[string]any{
		"user_id":                    user.ID,
		"is_active":                  false,
		"deactivated_products_count": deactivated,
	})
}

func (a *API) handleReactivate(w http.ResponseWriter, r *http.Request) {
	var req reactivateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := a.validate.Struct(req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid reactivation payload")
		return
	}

	user, err := a.auth.ReactivateAccount(r.Context(), req.Email, req.Password)
	if err != nil {
		handleAuthError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "auth.account.reactivated", map[string]any{
		"user_id": user.ID,
	})
	// Listings stay deactivated; the owner re-activates them explicitly.
	writeJSON(w, http.StatusOK, map[string]any{
		"user_id":   user.ID,
		"is_active": true,
	})
}

func (a *API) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}
	var req accountActionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	// Password confirmation happens before anything is removed; account and
	// listings then go away in one store transaction.
	purged, err := a.auth.DeleteAccount(r.Context(), principal.User.ID, req.Password)
	if err != nil {
		handleAuthError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "auth.account.deleted", map[string]any{
		"user_id":          principal.User.ID,
		"deleted_products": purged,
	})
	writeJSON(w, http.StatusOK, map[string]any{
		"deleted_user_id":        principal.User.ID,
		"deleted_products_count": purged,
	})
}
