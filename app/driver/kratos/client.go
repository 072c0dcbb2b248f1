package kratos

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	kratosclient "github.com/ory/kratos-client-go"

	"pmts-access/app/config"
	"pmts-access/app/domain"
)

// Client wraps the Ory Kratos frontend API behind the operations the
// provider gateway needs: native login/registration flows, whoami,
// logout, recovery and password settings. The session token Kratos
// issues is the only state the client holds.
type Client struct {
	api       *kratosclient.APIClient
	publicURL string
	logger    *slog.Logger

	mu           sync.Mutex
	sessionToken string
}

// NewClient creates a new Kratos client
func NewClient(cfg *config.Config, logger *slog.Logger) (*Client, error) {
	if !isValidURL(cfg.KratosPublicURL) {
		return nil, fmt.Errorf("invalid Kratos public URL: %s", cfg.KratosPublicURL)
	}

	apiConfig := kratosclient.NewConfiguration()
	apiConfig.Servers = []kratosclient.ServerConfiguration{
		{URL: cfg.KratosPublicURL},
	}
	apiConfig.HTTPClient = &http.Client{
		Timeout: 30 * time.Second,
	}

	logger.Info("Kratos client initialized", "public_url", cfg.KratosPublicURL)

	return &Client{
		api:       kratosclient.NewAPIClient(apiConfig),
		publicURL: cfg.KratosPublicURL,
		logger:    logger.With("component", "kratos_client"),
	}, nil
}

// Login runs a native login flow and stores the issued session token
func (c *Client) Login(ctx context.Context, email, password string) (*domain.Identity, error) {
	flow, httpResp, err := c.api.FrontendAPI.CreateNativeLoginFlow(ctx).Execute()
	if err != nil {
		return nil, c.transformError(err, httpResp, "login_flow_create")
	}

	body := kratosclient.UpdateLoginFlowWithPasswordMethod{
		Method:     "password",
		Identifier: email,
		Password:   password,
	}

	success, httpResp, err := c.api.FrontendAPI.
		UpdateLoginFlow(ctx).
		Flow(flow.Id).
		UpdateLoginFlowBody(kratosclient.UpdateLoginFlowWithPasswordMethodAsUpdateLoginFlowBody(&body)).
		Execute()
	if err != nil {
		return nil, c.transformError(err, httpResp, "login_flow_submit")
	}

	c.setSessionToken(success.GetSessionToken())

	identity, err := identityFromSession(&success.Session)
	if err != nil {
		return nil, err
	}

	c.logger.Info("login flow completed", "subject_id", identity.SubjectID)
	return identity, nil
}

// Register runs a native registration flow and stores the issued session token
func (c *Client) Register(ctx context.Context, email, password string) (*domain.Identity, error) {
	flow, httpResp, err := c.api.FrontendAPI.CreateNativeRegistrationFlow(ctx).Execute()
	if err != nil {
		return nil, c.transformError(err, httpResp, "registration_flow_create")
	}

	body := kratosclient.UpdateRegistrationFlowWithPasswordMethod{
		Method:   "password",
		Password: password,
		Traits:   map[string]interface{}{"email": email},
	}

	success, httpResp, err := c.api.FrontendAPI.
		UpdateRegistrationFlow(ctx).
		Flow(flow.Id).
		UpdateRegistrationFlowBody(kratosclient.UpdateRegistrationFlowWithPasswordMethodAsUpdateRegistrationFlowBody(&body)).
		Execute()
	if err != nil {
		return nil, c.transformError(err, httpResp, "registration_flow_submit")
	}

	c.setSessionToken(success.GetSessionToken())

	session := success.Session
	if session == nil {
		return nil, fmt.Errorf("registration succeeded but no session was issued")
	}

	identity, err := identityFromSession(session)
	if err != nil {
		return nil, err
	}

	c.logger.Info("registration flow completed", "subject_id", identity.SubjectID)
	return identity, nil
}

// WhoAmI returns the identity behind the persisted session token.
// A nil identity with nil error means no persisted session exists.
func (c *Client) WhoAmI(ctx context.Context) (*domain.Identity, error) {
	token := c.getSessionToken()
	if token == "" {
		return nil, nil
	}

	session, httpResp, err := c.api.FrontendAPI.
		ToSession(ctx).
		XSessionToken(token).
		Execute()
	if err != nil {
		if httpResp != nil && httpResp.StatusCode == http.StatusUnauthorized {
			// Token no longer valid upstream, drop it
			c.setSessionToken("")
			return nil, nil
		}
		return nil, c.transformError(err, httpResp, "whoami")
	}

	return identityFromSession(session)
}

// Logout revokes the session upstream. The local token is cleared
// regardless of the outcome.
func (c *Client) Logout(ctx context.Context) error {
	token := c.getSessionToken()
	c.setSessionToken("")

	if token == "" {
		return nil
	}

	httpResp, err := c.api.FrontendAPI.
		PerformNativeLogout(ctx).
		PerformNativeLogoutBody(*kratosclient.NewPerformNativeLogoutBody(token)).
		Execute()
	if err != nil {
		return c.transformError(err, httpResp, "logout")
	}

	return nil
}

// StartRecovery initiates a recovery flow that emails the subject a code
func (c *Client) StartRecovery(ctx context.Context, email string) error {
	flow, httpResp, err := c.api.FrontendAPI.CreateNativeRecoveryFlow(ctx).Execute()
	if err != nil {
		return c.transformError(err, httpResp, "recovery_flow_create")
	}

	body := kratosclient.UpdateRecoveryFlowWithCodeMethod{
		Method: "code",
		Email:  &email,
	}

	_, httpResp, err = c.api.FrontendAPI.
		UpdateRecoveryFlow(ctx).
		Flow(flow.Id).
		UpdateRecoveryFlowBody(kratosclient.UpdateRecoveryFlowWithCodeMethodAsUpdateRecoveryFlowBody(&body)).
		Execute()
	if err != nil {
		return c.transformError(err, httpResp, "recovery_flow_submit")
	}

	c.logger.Info("recovery flow started")
	return nil
}

// UpdatePassword changes the authenticated subject's password through
// a settings flow
func (c *Client) UpdatePassword(ctx context.Context, newPassword string) error {
	token := c.getSessionToken()
	if token == "" {
		return domain.ErrUnauthorized
	}

	flow, httpResp, err := c.api.FrontendAPI.
		CreateNativeSettingsFlow(ctx).
		XSessionToken(token).
		Execute()
	if err != nil {
		return c.transformError(err, httpResp, "settings_flow_create")
	}

	body := kratosclient.UpdateSettingsFlowWithPasswordMethod{
		Method:   "password",
		Password: newPassword,
	}

	_, httpResp, err = c.api.FrontendAPI.
		UpdateSettingsFlow(ctx).
		Flow(flow.Id).
		XSessionToken(token).
		UpdateSettingsFlowBody(kratosclient.UpdateSettingsFlowWithPasswordMethodAsUpdateSettingsFlowBody(&body)).
		Execute()
	if err != nil {
		return c.transformError(err, httpResp, "settings_flow_submit")
	}

	c.logger.Info("password updated")
	return nil
}

// HealthCheck checks if Kratos is reachable
func (c *Client) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, response, err := c.api.MetadataAPI.GetVersion(ctx).Execute()
	if err != nil {
		return fmt.Errorf("failed to connect to Kratos public API: %w", err)
	}
	if response.StatusCode != http.StatusOK {
		return fmt.Errorf("Kratos public API returned status %d", response.StatusCode)
	}
	return nil
}

func (c *Client) setSessionToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessionToken = token
}

func (c *Client) getSessionToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionToken
}

func isValidURL(urlStr string) bool {
	if urlStr == "" {
		return false
	}
	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return false
	}
	return parsedURL.Scheme != "" && parsedURL.Host != ""
}
