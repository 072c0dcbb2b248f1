package kratos

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
	kratosclient "github.com/ory/kratos-client-go"

	"pmts-access/app/domain"
	apperrors "pmts-access/app/utils/errors"
)

// identityFromSession maps a Kratos session onto the domain identity
func identityFromSession(session *kratosclient.Session) (*domain.Identity, error) {
	kratosIdentity := session.Identity
	if kratosIdentity == nil {
		return nil, fmt.Errorf("kratos session %s carries no identity", session.Id)
	}

	subjectID, err := uuid.Parse(kratosIdentity.Id)
	if err != nil {
		return nil, fmt.Errorf("invalid kratos identity ID %q: %w", kratosIdentity.Id, err)
	}

	identity := &domain.Identity{
		SubjectID: subjectID,
		Metadata:  map[string]string{"session_id": session.Id},
	}

	if traits, ok := kratosIdentity.Traits.(map[string]interface{}); ok {
		if email, ok := traits["email"].(string); ok {
			identity.Email = email
		}
		if name, ok := traits["name"].(string); ok {
			identity.DisplayName = name
		}
	}
	if identity.DisplayName == "" {
		identity.DisplayName = identity.Email
	}

	return identity, nil
}

// transformError maps Kratos API errors onto the domain taxonomy.
// Credential and flow errors are expected failure modes and come back
// as AuthFailure; everything else is a provider transport error.
func (c *Client) transformError(err error, httpResp *http.Response, operation string) error {
	status := 0
	if httpResp != nil {
		status = httpResp.StatusCode
	}

	c.logger.Warn("kratos request failed",
		"operation", operation,
		"http_status", status,
		"error", err)

	switch status {
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s", domain.ErrInvalidCredentials, operation)
	case http.StatusGone:
		// Flow expired, e.g. a stale recovery link
		return fmt.Errorf("%w: %s", domain.ErrRecoveryLinkExpired, operation)
	default:
		return apperrors.NewProviderError(err)
	}
}
