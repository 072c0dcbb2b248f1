package domain

// GuardState is the three-state outcome of a guard evaluation
type GuardState string

const (
	// GuardPending means session or role state is still loading.
	// It is the only initial state and always transitions to exactly
	// one of the other two.
	GuardPending GuardState = "PENDING"
	GuardDenied  GuardState = "DENIED"
	GuardGranted GuardState = "GRANTED"
)

// GuardDecision is what a guard hands to the rendering layer
type GuardDecision struct {
	State GuardState

	// RedirectTo is set on DENIED for route guards only; the redirect
	// replaces history so the back button does not loop.
	RedirectTo string

	// RequiredRoles names the allow-set for the access-restricted panel
	// rendered by in-place guards on DENIED.
	RequiredRoles []Role
}

// Granted is a convenience check
func (d GuardDecision) Granted() bool {
	return d.State == GuardGranted
}
