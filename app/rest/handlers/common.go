package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"pmts-access/app/domain"
	apperrors "pmts-access/app/utils/errors"
	appvalidator "pmts-access/app/utils/validator"
)

// ErrorResponse is the JSON error envelope
type ErrorResponse struct {
	Error   string      `json:"error"`
	Code    string      `json:"code,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

// respondError maps domain and application errors onto HTTP responses.
// Expected failures carry typed codes; anything unrecognized is a 500
// with the detail kept out of the response body.
func respondError(c echo.Context, logger *slog.Logger, err error) error {
	var validationErr *appvalidator.ValidationError
	if errors.As(err, &validationErr) {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation failed",
			Code:    string(apperrors.ErrCodeValidationFailed),
			Details: validationErr.Errors,
		})
	}

	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		return c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error: "invalid credentials",
			Code:  string(apperrors.ErrCodeAuthFailure),
		})
	case errors.Is(err, domain.ErrRecoveryLinkExpired):
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "recovery link has expired, request a new one",
			Code:  string(apperrors.ErrCodeRecoveryLinkExpired),
		})
	case errors.Is(err, domain.ErrSignInSuperseded):
		return c.JSON(http.StatusConflict, ErrorResponse{
			Error: "sign-in superseded by a later attempt",
			Code:  string(apperrors.ErrCodeAuthFailure),
		})
	case errors.Is(err, domain.ErrUnauthorized):
		return c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error: "authentication required",
			Code:  string(apperrors.ErrCodeUnauthorized),
		})
	case errors.Is(err, domain.ErrForbidden):
		return c.JSON(http.StatusForbidden, ErrorResponse{
			Error: "access denied",
			Code:  string(apperrors.ErrCodeForbidden),
		})
	}

	if appErr, ok := apperrors.AsAppError(err); ok {
		return c.JSON(appErr.StatusCode, ErrorResponse{
			Error: appErr.Message,
			Code:  string(appErr.Code),
		})
	}

	logger.Error("unhandled error", "error", err, "path", c.Request().URL.Path)
	return c.JSON(http.StatusInternalServerError, ErrorResponse{
		Error: "internal server error",
		Code:  string(apperrors.ErrCodeInternalError),
	})
}
