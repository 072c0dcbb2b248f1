package port

//go:generate mockgen -source=access_port.go -destination=../mocks/mock_access_port.go

import (
	"context"

	"github.com/google/uuid"

	"pmts-access/app/domain"
)

// SessionReader is the read side of the session store. Everything
// outside the store itself sees session state only through this.
type SessionReader interface {
	// Snapshot returns the current session state
	Snapshot() domain.SessionSnapshot

	// WaitReady blocks until the startup loading window has closed or
	// ctx is done
	WaitReady(ctx context.Context) error
}

// SessionStore adds the imperative operations to SessionReader
type SessionStore interface {
	SessionReader

	SignIn(ctx context.Context, creds domain.Credentials) error
	SignUp(ctx context.Context, creds domain.Credentials, profile domain.Profile) error

	// SignOut always clears local identity state, even when the
	// provider's network call fails
	SignOut(ctx context.Context) error

	// Subscribe registers a snapshot observer; returns a cancel func
	Subscribe(fn func(domain.SessionSnapshot)) (unsubscribe func())
}

// RoleReader resolves subjects to roles with caching
type RoleReader interface {
	// Resolve returns the cached role synchronously, scheduling a
	// background fetch when the entry is missing or stale. It never
	// blocks and never returns a privileged value on error.
	Resolve(subjectID uuid.UUID) domain.Role

	// Loading reports whether a fetch is in flight with no cached
	// value to serve in the meantime
	Loading(subjectID uuid.UUID) bool

	// Wait resolves like Resolve but blocks while Loading, honoring
	// ctx cancellation
	Wait(ctx context.Context, subjectID uuid.UUID) (domain.Role, error)
}

// RoleResolver adds cache control and change notification to RoleReader
type RoleResolver interface {
	RoleReader

	// Invalidate drops the subject's cache entry. The session store
	// calls this synchronously on every identity transition, before
	// observers see the new identity.
	Invalidate(subjectID uuid.UUID)

	// Subscribe registers an observer for role changes; returns a
	// cancel func
	Subscribe(fn func(subjectID uuid.UUID, role domain.Role)) (unsubscribe func())
}
