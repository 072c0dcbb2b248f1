package port

//go:generate mockgen -source=provider_port.go -destination=../mocks/mock_provider_port.go

import (
	"context"

	"pmts-access/app/domain"
)

// IdentityProvider is the external authentication service contract.
// Expected failure modes (invalid credentials, expired recovery link)
// come back as typed errors, never panics.
type IdentityProvider interface {
	// Subscribe registers an observer on the session-change event
	// stream and returns its cancel function. Events carry a sequence
	// number assigned in request-issue order.
	Subscribe(fn func(domain.AuthEvent)) (unsubscribe func())

	// CurrentIdentity returns the already-persisted session, if any.
	// A nil identity with nil error means no persisted session exists.
	CurrentIdentity(ctx context.Context) (*domain.Identity, error)

	SignIn(ctx context.Context, creds domain.Credentials) (*domain.Identity, error)
	SignUp(ctx context.Context, creds domain.Credentials) (*domain.Identity, error)

	// SignOut revokes the provider session. The gateway emits a
	// SIGNED_OUT event even when revocation fails upstream, so local
	// state always clears on explicit sign-out.
	SignOut(ctx context.Context) error

	ResetPassword(ctx context.Context, email string) error
	UpdatePassword(ctx context.Context, newPassword string) error
}
