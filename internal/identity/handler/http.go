// Package handler exposes the authentication endpoints.
package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"strategypilot/backend/internal/identity/service"
	"strategypilot/backend/internal/platform/rbac"
	"strategypilot/backend/internal/server/middleware"
	"strategypilot/backend/internal/server/respond"
	"strategypilot/backend/internal/telemetry"
	teldomain "strategypilot/backend/internal/telemetry/domain"
)

// AuthAPI is the slice of the auth service the handler needs.
type AuthAPI interface {
	SignUp(ctx context.Context, email, password, name, orgName, ip string) (*service.AuthResult, error)
	SignIn(ctx context.Context, email, password, ip string) (*service.AuthResult, error)
	Refresh(ctx context.Context, refreshToken string) (*service.AuthResult, error)
	SignOut(ctx context.Context, refreshToken, sessionID string) error
	RequestPasswordReset(ctx context.Context, email string) (string, error)
	ResetPassword(ctx context.Context, token, newPassword string) error
	ConfirmEmail(ctx context.Context, userID string) error
}

type AuthHandler struct {
	auth    AuthAPI
	emitter telemetry.EventEmitter
}

func NewAuthHandler(auth AuthAPI, emitter telemetry.EventEmitter) *AuthHandler {
	return &AuthHandler{auth: auth, emitter: emitter}
}

type authResponse struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresAt    time.Time `json:"expiresAt"`
	UserID       string    `json:"userId"`
	OrgID        string    `json:"orgId,omitempty"`
	Role         string    `json:"role,omitempty"`
	OrgCreated   bool      `json:"orgCreated,omitempty"`
	ProfileError string    `json:"profileError,omitempty"`
}

func toAuthResponse(res *service.AuthResult) authResponse {
	out := authResponse{
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
		ExpiresAt:    res.ExpiresAt,
		UserID:       res.UserID,
		OrgID:        res.OrgID,
		Role:         string(res.Role),
		OrgCreated:   res.OrgCreated,
	}
	if res.ProfileErr != nil {
		out.ProfileError = "profile provisioning failed; sign in again later"
	}
	return out
}

// SignUp handles POST /api/v1/auth/sign-up.
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email            string `json:"email"`
		Password         string `json:"password"`
		Name             string `json:"name"`
		OrganizationName string `json:"organizationName"`
	}
	if !respond.Decode(w, r, &req) {
		return
	}
	res, err := h.auth.SignUp(r.Context(), req.Email, req.Password, req.Name, req.OrganizationName, middleware.ClientIP(r))
	if err != nil {
		writeAuthError(w, err)
		return
	}
	telemetry.EmitAsync(h.emitter, teldomain.Event{
		OrgID:     res.OrgID,
		UserID:    res.UserID,
		EventType: teldomain.EventSignUp,
		Source:    "api",
	})
	respond.JSON(w, http.StatusCreated, toAuthResponse(res))
}

// SignIn handles POST /api/v1/auth/sign-in.
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !respond.Decode(w, r, &req) {
		return
	}
	res, err := h.auth.SignIn(r.Context(), req.Email, req.Password, middleware.ClientIP(r))
	if err != nil {
		writeAuthError(w, err)
		return
	}
	telemetry.EmitAsync(h.emitter, teldomain.Event{
		OrgID:     res.OrgID,
		UserID:    res.UserID,
		EventType: teldomain.EventSignIn,
		Source:    "api",
	})
	respond.JSON(w, http.StatusOK, toAuthResponse(res))
}

// Refresh handles POST /api/v1/auth/refresh.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	if !respond.Decode(w, r, &req) {
		return
	}
	res, err := h.auth.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		writeAuthError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, toAuthResponse(res))
}

// SignOut handles POST /api/v1/auth/sign-out. Always answers 204; an invalid
// token means there is nothing to revoke.
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	if !respond.Decode(w, r, &req) {
		return
	}
	sessionID := ""
	if id, ok := rbac.IdentityFrom(r.Context()); ok {
		sessionID = id.SessionID
		telemetry.EmitAsync(h.emitter, teldomain.Event{
			OrgID:     id.OrgID,
			UserID:    id.UserID,
			SessionID: id.SessionID,
			EventType: teldomain.EventSignOut,
			Source:    "api",
		})
	}
	if err := h.auth.SignOut(r.Context(), req.RefreshToken, sessionID); err != nil {
		respond.Error(w, http.StatusInternalServerError, "sign out failed")
		return
	}
	respond.JSON(w, http.StatusNoContent, nil)
}

// RequestPasswordReset handles POST /api/v1/auth/password-reset/request.
// The response never reveals whether the email is registered.
func (h *AuthHandler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if !respond.Decode(w, r, &req) {
		return
	}
	if _, err := h.auth.RequestPasswordReset(r.Context(), req.Email); err != nil {
		respond.Error(w, http.StatusInternalServerError, "could not start password reset")
		return
	}
	respond.JSON(w, http.StatusAccepted, map[string]string{"status": "if the address is registered, a reset link has been sent"})
}

// ResetPassword handles POST /api/v1/auth/password-reset/confirm.
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	if !respond.Decode(w, r, &req) {
		return
	}
	if err := h.auth.ResetPassword(r.Context(), req.Token, req.Password); err != nil {
		writeAuthError(w, err)
		return
	}
	telemetry.EmitAsync(h.emitter, teldomain.Event{
		EventType: teldomain.EventPasswordReset,
		Source:    "api",
	})
	respond.JSON(w, http.StatusNoContent, nil)
}

// ConfirmEmail handles POST /api/v1/auth/confirm-email.
func (h *AuthHandler) ConfirmEmail(w http.ResponseWriter, r *http.Request) {
	id, ok := rbac.IdentityFrom(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}
	if err := h.auth.ConfirmEmail(r.Context(), id.UserID); err != nil {
		respond.Error(w, http.StatusInternalServerError, "could not confirm email")
		return
	}
	respond.JSON(w, http.StatusNoContent, nil)
}

func writeAuthError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidEmail),
		errors.Is(err, service.ErrEmailAlreadyRegistered),
		errors.Is(err, service.ErrWeakPassword):
		respond.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrInvalidRefreshToken),
		errors.Is(err, service.ErrRefreshTokenReuse):
		respond.Error(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrInvalidResetToken):
		respond.Error(w, http.StatusBadRequest, err.Error())
	default:
		respond.Error(w, http.StatusInternalServerError, "internal error")
	}
}
