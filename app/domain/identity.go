package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// Identity represents an authenticated subject's session record.
// It is owned exclusively by the session store: created on successful
// authentication, replaced on token refresh, destroyed on sign-out.
type Identity struct {
	SubjectID   uuid.UUID         `json:"subject_id"`
	DisplayName string            `json:"display_name"`
	Email       string            `json:"email"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// NewIdentity creates an identity with validation
func NewIdentity(subjectID uuid.UUID, displayName, email string) (*Identity, error) {
	if subjectID == uuid.Nil {
		return nil, fmt.Errorf("subject ID is required")
	}
	return &Identity{
		SubjectID:   subjectID,
		DisplayName: displayName,
		Email:       email,
		Metadata:    make(map[string]string),
	}, nil
}

// AuthEventKind enumerates the identity provider's session-change events
type AuthEventKind string

const (
	AuthEventSignedIn         AuthEventKind = "SIGNED_IN"
	AuthEventSignedOut        AuthEventKind = "SIGNED_OUT"
	AuthEventTokenRefreshed   AuthEventKind = "TOKEN_REFRESHED"
	AuthEventPasswordRecovery AuthEventKind = "PASSWORD_RECOVERY"
)

// AuthEvent is one entry in the identity provider's event stream.
//
// Seq is assigned in request-issue order by the provider gateway. The
// session store applies an event only when its Seq is newer than the
// last applied one, so a slow sign-in response that completes after a
// newer one cannot overwrite newer state.
type AuthEvent struct {
	Kind     AuthEventKind
	Identity *Identity
	Seq      uint64
}

// Credentials carries a sign-in or sign-up request
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// Profile holds the subject profile row written to the data service
// alongside a newly created identity
type Profile struct {
	SubjectID  uuid.UUID `json:"subject_id"`
	FullName   string    `json:"full_name" validate:"required"`
	Department string    `json:"department,omitempty"`
}

// SessionSnapshot is the session store's externally visible state.
// Identity is nil for an anonymous visitor; Loading is true only during
// the startup window before either a persisted session or the first
// provider event has arrived.
type SessionSnapshot struct {
	Identity *Identity
	Loading  bool
}

// SubjectID returns the authenticated subject's ID, or uuid.Nil when anonymous
func (s SessionSnapshot) SubjectID() uuid.UUID {
	if s.Identity == nil {
		return uuid.Nil
	}
	return s.Identity.SubjectID
}

// Authenticated returns true when an identity is present
func (s SessionSnapshot) Authenticated() bool {
	return s.Identity != nil
}
