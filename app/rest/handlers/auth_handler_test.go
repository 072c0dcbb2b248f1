package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"pmts-access/app/domain"
	mock_port "pmts-access/app/mocks"
	apperrors "pmts-access/app/utils/errors"
	"pmts-access/app/utils/logger"
	appvalidator "pmts-access/app/utils/validator"
)

type authHandlerMocks struct {
	sessions *mock_port.MockSessionStore
	provider *mock_port.MockIdentityProvider
	roles    *mock_port.MockRoleReader
}

func newTestAuthHandler(t *testing.T) (*AuthHandler, *authHandlerMocks) {
	t.Helper()

	ctrl := gomock.NewController(t)
	m := &authHandlerMocks{
		sessions: mock_port.NewMockSessionStore(ctrl),
		provider: mock_port.NewMockIdentityProvider(ctrl),
		roles:    mock_port.NewMockRoleReader(ctrl),
	}

	testLogger, err := logger.New("debug")
	require.NoError(t, err)

	handler := NewAuthHandler(m.sessions, m.provider, m.roles, appvalidator.New(), testLogger)
	return handler, m
}

func postJSON(t *testing.T, handler echo.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	require.NoError(t, handler(e.NewContext(req, rec)))
	return rec
}

func TestAuthHandler_SignIn(t *testing.T) {
	subjectID := uuid.New()
	authedSnap := domain.SessionSnapshot{
		Identity: &domain.Identity{SubjectID: subjectID, Email: "jane@county.go.ke"},
	}

	tests := []struct {
		name       string
		body       string
		setupMocks func(*authHandlerMocks)
		wantStatus int
		wantCode   string
	}{
		{
			name: "successful sign-in returns the session",
			body: `{"email":"jane@county.go.ke","password":"correct horse"}`,
			setupMocks: func(m *authHandlerMocks) {
				m.sessions.EXPECT().SignIn(gomock.Any(), gomock.Any()).Return(nil)
				m.sessions.EXPECT().Snapshot().Return(authedSnap)
				m.roles.EXPECT().Resolve(subjectID).Return(domain.RoleStaff)
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "invalid credentials",
			body: `{"email":"jane@county.go.ke","password":"wrong password"}`,
			setupMocks: func(m *authHandlerMocks) {
				m.sessions.EXPECT().SignIn(gomock.Any(), gomock.Any()).Return(domain.ErrInvalidCredentials)
			},
			wantStatus: http.StatusUnauthorized,
			wantCode:   string(apperrors.ErrCodeAuthFailure),
		},
		{
			name: "superseded by a newer sign-in",
			body: `{"email":"jane@county.go.ke","password":"correct horse"}`,
			setupMocks: func(m *authHandlerMocks) {
				m.sessions.EXPECT().SignIn(gomock.Any(), gomock.Any()).Return(domain.ErrSignInSuperseded)
			},
			wantStatus: http.StatusConflict,
		},
		{
			name:       "malformed email rejected before the provider is called",
			body:       `{"email":"not-an-email","password":"correct horse"}`,
			setupMocks: func(m *authHandlerMocks) {},
			wantStatus: http.StatusBadRequest,
			wantCode:   string(apperrors.ErrCodeValidationFailed),
		},
		{
			name:       "short password rejected",
			body:       `{"email":"jane@county.go.ke","password":"short"}`,
			setupMocks: func(m *authHandlerMocks) {},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, m := newTestAuthHandler(t)
			tt.setupMocks(m)

			rec := postJSON(t, handler.SignIn, tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code)

			if tt.wantCode != "" {
				var resp ErrorResponse
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
				assert.Equal(t, tt.wantCode, resp.Code)
			}
		})
	}
}

func TestAuthHandler_SignUpProfileWriteFailure(t *testing.T) {
	handler, m := newTestAuthHandler(t)

	m.sessions.EXPECT().
		SignUp(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(apperrors.NewProfileWriteFailure(assert.AnError))

	body := `{"email":"jane@county.go.ke","password":"correct horse","full_name":"Jane Wanjiku"}`
	rec := postJSON(t, handler.SignUp, body)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, string(apperrors.ErrCodeProfileWriteFailure), resp.Code)
}

func TestAuthHandler_SignOutAlwaysSucceedsLocally(t *testing.T) {
	handler, m := newTestAuthHandler(t)

	// Provider failure does not leak to the client; local state cleared
	m.sessions.EXPECT().SignOut(gomock.Any()).Return(assert.AnError)

	rec := postJSON(t, handler.SignOut, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "signed_out")
}

func TestAuthHandler_UpdatePasswordExpiredLink(t *testing.T) {
	handler, m := newTestAuthHandler(t)

	m.provider.EXPECT().
		UpdatePassword(gomock.Any(), "new password 123").
		Return(domain.ErrRecoveryLinkExpired)

	rec := postJSON(t, handler.UpdatePassword, `{"password":"new password 123"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, string(apperrors.ErrCodeRecoveryLinkExpired), resp.Code)
}

func TestAuthHandler_SessionReflectsSnapshot(t *testing.T) {
	handler, m := newTestAuthHandler(t)
	subjectID := uuid.New()

	m.sessions.EXPECT().Snapshot().Return(domain.SessionSnapshot{
		Identity: &domain.Identity{SubjectID: subjectID, Email: "jane@county.go.ke"},
	})
	m.roles.EXPECT().Resolve(subjectID).Return(domain.RoleExecutive)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	require.NoError(t, handler.Session(e.NewContext(req, rec)))

	var resp sessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Authenticated)
	assert.Equal(t, "executive", resp.Role)
	require.NotNil(t, resp.Identity)
	assert.Equal(t, subjectID.String(), resp.Identity.SubjectID)
}

func TestAuthHandler_SessionAnonymous(t *testing.T) {
	handler, m := newTestAuthHandler(t)

	m.sessions.EXPECT().Snapshot().Return(domain.SessionSnapshot{})

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	require.NoError(t, handler.Session(e.NewContext(req, rec)))

	var resp sessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Authenticated)
	assert.Nil(t, resp.Identity)
	assert.Empty(t, resp.Role)
}
