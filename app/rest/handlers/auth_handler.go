package handlers

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"pmts-access/app/domain"
	"pmts-access/app/port"
	appvalidator "pmts-access/app/utils/validator"
)

// AuthHandler handles the authentication HTTP surface: sign-in, sign-up,
// sign-out, recovery, password update and session inspection
type AuthHandler struct {
	sessions  port.SessionStore
	provider  port.IdentityProvider
	roles     port.RoleReader
	validator *appvalidator.Validator
	logger    *slog.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(
	sessions port.SessionStore,
	provider port.IdentityProvider,
	roles port.RoleReader,
	validator *appvalidator.Validator,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		sessions:  sessions,
		provider:  provider,
		roles:     roles,
		validator: validator,
		logger:    logger.With("component", "auth_handler"),
	}
}

type signUpRequest struct {
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required,min=8"`
	FullName   string `json:"full_name" validate:"required"`
	Department string `json:"department"`
}

type recoveryRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type passwordRequest struct {
	Password string `json:"password" validate:"required,min=8"`
}

type identityPayload struct {
	SubjectID   string `json:"subject_id"`
	DisplayName string `json:"display_name,omitempty"`
	Email       string `json:"email"`
}

type sessionResponse struct {
	Authenticated bool             `json:"authenticated"`
	Loading       bool             `json:"loading"`
	Role          string           `json:"role,omitempty"`
	Identity      *identityPayload `json:"identity,omitempty"`
}

// SignIn handles POST /v1/auth/login
func (h *AuthHandler) SignIn(c echo.Context) error {
	var creds domain.Credentials
	if err := c.Bind(&creds); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Code: "BAD_REQUEST"})
	}
	if err := h.validator.Validate(creds); err != nil {
		return respondError(c, h.logger, err)
	}

	if err := h.sessions.SignIn(c.Request().Context(), creds); err != nil {
		h.logger.Warn("sign-in failed", "email", creds.Email, "error", err)
		return respondError(c, h.logger, err)
	}

	h.logger.Info("sign-in succeeded", "email", creds.Email)
	return c.JSON(http.StatusOK, h.sessionPayload())
}

// SignUp handles POST /v1/auth/register
func (h *AuthHandler) SignUp(c echo.Context) error {
	var req signUpRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Code: "BAD_REQUEST"})
	}
	if err := h.validator.Validate(req); err != nil {
		return respondError(c, h.logger, err)
	}

	creds := domain.Credentials{Email: req.Email, Password: req.Password}
	profile := domain.Profile{FullName: req.FullName, Department: req.Department}

	if err := h.sessions.SignUp(c.Request().Context(), creds, profile); err != nil {
		h.logger.Warn("sign-up failed", "email", req.Email, "error", err)
		return respondError(c, h.logger, err)
	}

	h.logger.Info("sign-up succeeded", "email", req.Email)
	return c.JSON(http.StatusCreated, h.sessionPayload())
}

// SignOut handles POST /v1/auth/logout. Local session state is cleared
// even when the provider's revocation call fails, so the response is
// always a sign-out.
func (h *AuthHandler) SignOut(c echo.Context) error {
	if err := h.sessions.SignOut(c.Request().Context()); err != nil {
		h.logger.Warn("provider sign-out failed, local state cleared anyway", "error", err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "signed_out"})
}

// StartRecovery handles POST /v1/auth/recovery. The response does not
// reveal whether the address has an account.
func (h *AuthHandler) StartRecovery(c echo.Context) error {
	var req recoveryRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Code: "BAD_REQUEST"})
	}
	if err := h.validator.Validate(req); err != nil {
		return respondError(c, h.logger, err)
	}

	if err := h.provider.ResetPassword(c.Request().Context(), req.Email); err != nil {
		h.logger.Warn("recovery initiation failed", "error", err)
	}
	return c.JSON(http.StatusOK, map[string]string{
		"status": "recovery_started",
	})
}

// UpdatePassword handles POST /v1/auth/password for a signed-in subject
func (h *AuthHandler) UpdatePassword(c echo.Context) error {
	var req passwordRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body", Code: "BAD_REQUEST"})
	}
	if err := h.validator.Validate(req); err != nil {
		return respondError(c, h.logger, err)
	}

	if err := h.provider.UpdatePassword(c.Request().Context(), req.Password); err != nil {
		h.logger.Warn("password update failed", "error", err)
		return respondError(c, h.logger, err)
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "password_updated"})
}

// Session handles GET /v1/auth/session
func (h *AuthHandler) Session(c echo.Context) error {
	return c.JSON(http.StatusOK, h.sessionPayload())
}

func (h *AuthHandler) sessionPayload() sessionResponse {
	snap := h.sessions.Snapshot()
	resp := sessionResponse{
		Authenticated: snap.Authenticated(),
		Loading:       snap.Loading,
	}

	if snap.Identity != nil {
		resp.Identity = &identityPayload{
			SubjectID:   snap.Identity.SubjectID.String(),
			DisplayName: snap.Identity.DisplayName,
			Email:       snap.Identity.Email,
		}
		resp.Role = string(h.roles.Resolve(snap.Identity.SubjectID))
	}
	return resp
}
