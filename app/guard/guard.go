// Package guard decides, per protected region, whether to render,
// redirect, or degrade to a restricted variant. Every guard outcome is
// three-state: PENDING while session or role state is loading, then
// exactly one of DENIED or GRANTED. Ambiguity always resolves to the
// least-privileged outcome.
package guard

import (
	"context"

	"pmts-access/app/domain"
	"pmts-access/app/port"
)

// Guard evaluates access decisions against the session store and role
// resolver. It reads them only; all mutation stays behind their ports.
type Guard struct {
	sessions    port.SessionReader
	roles       port.RoleReader
	signInPath  string
	landingPath string
}

// New creates a new Guard instance
func New(sessions port.SessionReader, roles port.RoleReader, signInPath, landingPath string) *Guard {
	return &Guard{
		sessions:    sessions,
		roles:       roles,
		signInPath:  signInPath,
		landingPath: landingPath,
	}
}

// RequireAuth is the "must be signed in" route guard. DENIED redirects
// to the sign-in screen, replacing history.
func (g *Guard) RequireAuth() domain.GuardDecision {
	snap := g.sessions.Snapshot()
	if snap.Loading {
		return domain.GuardDecision{State: domain.GuardPending}
	}
	if !snap.Authenticated() {
		return domain.GuardDecision{State: domain.GuardDenied, RedirectTo: g.signInPath}
	}
	return domain.GuardDecision{State: domain.GuardGranted}
}

// RequireRoles is the "must hold specific role(s)" route guard. An
// unauthenticated subject is sent to sign-in; an authenticated subject
// outside the allow-set is sent to the default landing screen instead,
// since they are signed in and merely lack privilege.
func (g *Guard) RequireRoles(allow ...domain.Role) domain.GuardDecision {
	snap := g.sessions.Snapshot()
	if snap.Loading {
		return domain.GuardDecision{State: domain.GuardPending}
	}
	if !snap.Authenticated() {
		return domain.GuardDecision{State: domain.GuardDenied, RedirectTo: g.signInPath}
	}

	subjectID := snap.SubjectID()
	role := g.roles.Resolve(subjectID)
	if role == domain.RoleUnresolved && g.roles.Loading(subjectID) {
		return domain.GuardDecision{State: domain.GuardPending}
	}

	if !role.In(allow...) {
		return domain.GuardDecision{
			State:         domain.GuardDenied,
			RedirectTo:    g.landingPath,
			RequiredRoles: allow,
		}
	}
	return domain.GuardDecision{State: domain.GuardGranted}
}

// Section is the in-place variant gating part of a screen. It never
// navigates: DENIED carries the allow-set for an access-restricted
// panel and no redirect, leaving the surrounding screen intact.
func (g *Guard) Section(allow ...domain.Role) domain.GuardDecision {
	decision := g.RequireRoles(allow...)
	decision.RedirectTo = ""
	if decision.State == domain.GuardDenied {
		decision.RequiredRoles = allow
	}
	return decision
}

// WaitRequireAuth blocks until RequireAuth reaches a terminal state.
// Cancellation means the caller is gone: the decision must not be
// applied, and ErrGuardCancelled says so.
func (g *Guard) WaitRequireAuth(ctx context.Context) (domain.GuardDecision, error) {
	if err := g.sessions.WaitReady(ctx); err != nil {
		return domain.GuardDecision{State: domain.GuardPending}, domain.ErrGuardCancelled
	}
	return g.RequireAuth(), nil
}

// WaitRequireRoles blocks until RequireRoles reaches a terminal state
func (g *Guard) WaitRequireRoles(ctx context.Context, allow ...domain.Role) (domain.GuardDecision, error) {
	if err := g.sessions.WaitReady(ctx); err != nil {
		return domain.GuardDecision{State: domain.GuardPending}, domain.ErrGuardCancelled
	}

	snap := g.sessions.Snapshot()
	if !snap.Authenticated() {
		return domain.GuardDecision{State: domain.GuardDenied, RedirectTo: g.signInPath}, nil
	}

	role, err := g.roles.Wait(ctx, snap.SubjectID())
	if err != nil {
		return domain.GuardDecision{State: domain.GuardPending}, domain.ErrGuardCancelled
	}

	if !role.In(allow...) {
		return domain.GuardDecision{
			State:         domain.GuardDenied,
			RedirectTo:    g.landingPath,
			RequiredRoles: allow,
		}, nil
	}
	return domain.GuardDecision{State: domain.GuardGranted}, nil
}

// WaitSection blocks like WaitRequireRoles but never navigates
func (g *Guard) WaitSection(ctx context.Context, allow ...domain.Role) (domain.GuardDecision, error) {
	decision, err := g.WaitRequireRoles(ctx, allow...)
	decision.RedirectTo = ""
	if decision.State == domain.GuardDenied {
		decision.RequiredRoles = allow
	}
	return decision, err
}
