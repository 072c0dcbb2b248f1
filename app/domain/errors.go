package domain

import "errors"

// Domain sentinel errors
var (
	// ErrUnauthorized indicates no authenticated identity is present
	ErrUnauthorized = errors.New("authentication required")

	// ErrForbidden indicates the resolved role is outside the allow-set
	ErrForbidden = errors.New("insufficient privileges")

	// ErrInvalidCredentials is the expected failure mode of sign-in
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrRecoveryLinkExpired is the expected failure mode of the
	// password recovery flow
	ErrRecoveryLinkExpired = errors.New("recovery link expired or invalid")

	// ErrSignInSuperseded is returned to a sign-in caller whose response
	// arrived after a newer sign-in request was issued; its result was
	// discarded and did not mutate session state.
	ErrSignInSuperseded = errors.New("sign-in superseded by a newer request")

	// ErrGuardCancelled is returned when a guarded evaluation is
	// abandoned (caller gone) before reaching a terminal state; the
	// caller must not apply any redirect decision.
	ErrGuardCancelled = errors.New("guard evaluation cancelled")
)
