package login

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	authcookie "github.com/zeawatch/zeawatch-backend/internal/http/handlers/auth"
	"github.com/zeawatch/zeawatch-backend/internal/models"
	"github.com/zeawatch/zeawatch-backend/internal/services/auth"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) Login(ctx context.Context, email, rawPassword string) (*auth.TokenPair, *models.User, error) {
	args := m.Called(ctx, email, rawPassword)
	pair, _ := args.Get(0).(*auth.TokenPair)
	user, _ := args.Get(1).(*models.User)
	return pair, user, args.Error(2)
}

type AuditorMock struct {
	mock.Mock
}

func (m *AuditorMock) Record(ctx context.Context, userUID, action string, details map[string]any, ip string) {
	m.Called(ctx, userUID, action, details, ip)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestLoginHandler_ServeHTTP(t *testing.T) {
	user := &models.User{UID: "uid-1", Name: "Asha", Role: models.RoleUser}
	pair := &auth.TokenPair{Access: "acc", Refresh: "ref"}

	tests := []struct {
		name           string
		requestBody    interface{}
		mockPair       *auth.TokenPair
		mockUser       *models.User
		mockErr        error
		wantStatusCode int
		wantStatus     string
		wantCookie     bool
	}{
		{
			name:           "valid login",
			requestBody:    Request{Email: "asha@example.com", Password: "Password1"},
			mockPair:       pair,
			mockUser:       user,
			wantStatusCode: http.StatusOK,
			wantStatus:     "OK",
			wantCookie:     true,
		},
		{
			name:           "invalid json body",
			requestBody:    "not a json",
			wantStatusCode: http.StatusBadRequest,
			wantStatus:     "Error",
		},
		{
			name:           "validation error - missing password",
			requestBody:    Request{Email: "asha@example.com"},
			wantStatusCode: http.StatusUnprocessableEntity,
			wantStatus:     "Error",
		},
		{
			name:           "invalid credentials",
			requestBody:    Request{Email: "asha@example.com", Password: "wrong"},
			mockErr:        auth.ErrInvalidCredentials,
			wantStatusCode: http.StatusUnauthorized,
			wantStatus:     "Error",
		},
		{
			name:           "account not verified",
			requestBody:    Request{Email: "asha@example.com", Password: "Password1"},
			mockErr:        auth.ErrNotVerified,
			wantStatusCode: http.StatusForbidden,
			wantStatus:     "Error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			serviceMock := new(ServiceMock)
			auditMock := new(AuditorMock)
			auditMock.On("Record", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Maybe()

			if tt.mockPair != nil || tt.mockErr != nil {
				req := tt.requestBody.(Request)
				serviceMock.On("Login", mock.Anything, req.Email, req.Password).
					Return(tt.mockPair, tt.mockUser, tt.mockErr).Once()
			}

			handler := New(newNoopLogger(), serviceMock, auditMock, 720*time.Hour)

			var bodyBytes []byte
			switch v := tt.requestBody.(type) {
			case string:
				bodyBytes = []byte(v)
			default:
				bodyBytes, _ = json.Marshal(tt.requestBody)
			}

			req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(bodyBytes))
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			assert.Equal(t, tt.wantStatusCode, rr.Code)

			var resp map[string]any
			assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantStatus, resp["status"])

			var gotCookie bool
			for _, c := range rr.Result().Cookies() {
				if c.Name == authcookie.RefreshCookieName && c.Value == "ref" {
					gotCookie = true
					assert.True(t, c.HttpOnly)
				}
			}
			assert.Equal(t, tt.wantCookie, gotCookie)

			if tt.wantStatus == "OK" {
				data := resp["data"].(map[string]any)
				assert.Equal(t, "acc", data["access_token"])
				// Refresh-токен доставляется только в HttpOnly cookie.
				assert.NotContains(t, data, "refresh_token")
				assert.NotContains(t, rr.Body.String(), "ref\"")
				auditMock.AssertCalled(t, "Record", mock.Anything, "uid-1", "user.login", mock.Anything, mock.Anything)
			}
			if tt.mockErr != nil {
				auditMock.AssertCalled(t, "Record", mock.Anything, "", "user.login_failed", mock.Anything, mock.Anything)
			}
		})
	}
}
