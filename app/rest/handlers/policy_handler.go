package handlers

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"pmts-access/app/view"
)

// PolicyHandler exposes the active field-visibility table for audit.
// The route is admin-only; the table itself is the authority on which
// fields each capability tier sees.
type PolicyHandler struct {
	policy view.Policy
	logger *slog.Logger
}

// NewPolicyHandler creates a new policy handler
func NewPolicyHandler(policy view.Policy, logger *slog.Logger) *PolicyHandler {
	return &PolicyHandler{
		policy: policy,
		logger: logger.With("component", "policy_handler"),
	}
}

// ViewPolicy handles GET /v1/admin/view-policy
func (h *PolicyHandler) ViewPolicy(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"screens": h.policy.Screens,
	})
}
