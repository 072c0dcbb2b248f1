package middleware

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"pmts-access/app/domain"
	"pmts-access/app/guard"
	apperrors "pmts-access/app/utils/errors"
)

// GuardMiddleware turns guard decisions into HTTP outcomes. DENIED with
// a redirect target becomes 303 See Other, the HTTP analogue of a
// history-replacing navigation; DENIED without one becomes 403 carrying
// the roles that would have satisfied the guard.
type GuardMiddleware struct {
	guard  *guard.Guard
	logger *slog.Logger
}

// NewGuardMiddleware creates guard middleware over the given guard
func NewGuardMiddleware(g *guard.Guard, logger *slog.Logger) *GuardMiddleware {
	return &GuardMiddleware{
		guard:  g,
		logger: logger.With("component", "guard_middleware"),
	}
}

// RequireAuth protects a route group behind "must be signed in"
func (m *GuardMiddleware) RequireAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			decision, err := m.guard.WaitRequireAuth(c.Request().Context())
			if err != nil {
				// Caller disconnected while the decision was pending;
				// it must not be applied.
				return nil
			}
			return m.apply(c, decision, next)
		}
	}
}

// RequireRoles protects a route group behind an allow-set of roles
func (m *GuardMiddleware) RequireRoles(allow ...domain.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			decision, err := m.guard.WaitRequireRoles(c.Request().Context(), allow...)
			if err != nil {
				return nil
			}
			return m.apply(c, decision, next)
		}
	}
}

func (m *GuardMiddleware) apply(c echo.Context, decision domain.GuardDecision, next echo.HandlerFunc) error {
	switch decision.State {
	case domain.GuardGranted:
		return next(c)

	case domain.GuardDenied:
		if decision.RedirectTo != "" {
			m.logger.Info("guard denied, redirecting",
				"path", c.Request().URL.Path,
				"redirect_to", decision.RedirectTo)
			return c.Redirect(http.StatusSeeOther, decision.RedirectTo)
		}
		return c.JSON(http.StatusForbidden, map[string]interface{}{
			"error":          "access denied",
			"code":           string(apperrors.ErrCodeForbidden),
			"required_roles": roleStrings(decision.RequiredRoles),
		})

	default:
		// A Wait variant never returns PENDING; treat anything else as
		// a denial.
		m.logger.Warn("non-terminal guard decision, denying",
			"path", c.Request().URL.Path, "state", decision.State)
		return c.JSON(http.StatusForbidden, map[string]interface{}{
			"error": "access denied",
			"code":  string(apperrors.ErrCodeForbidden),
		})
	}
}

func roleStrings(roles []domain.Role) []string {
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		out = append(out, string(r))
	}
	return out
}
