package middlewarectx

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/zeawatch/zeawatch-backend/internal/authz"
	"github.com/zeawatch/zeawatch-backend/internal/lib/jwt"
	"github.com/zeawatch/zeawatch-backend/internal/models"
)

type TokenParserMock struct {
	mock.Mock
}

func (m *TokenParserMock) ParseAccessToken(token string) (*jwt.AccessClaims, error) {
	args := m.Called(token)
	claims, _ := args.Get(0).(*jwt.AccessClaims)
	return claims, args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestPrincipalMiddleware(t *testing.T) {
	validClaims := &jwt.AccessClaims{
		Email:     "user@example.com",
		Role:      models.RoleUser,
		TokenType: jwt.TypeAccess,
		RegisteredClaims: gojwt.RegisteredClaims{
			Subject: "uid-1",
		},
	}

	tests := []struct {
		name       string
		authHeader string
		mockClaims *jwt.AccessClaims
		mockErr    error
		wantAuth   bool
		wantUID    string
	}{
		{
			name:       "valid token yields authenticated principal",
			authHeader: "Bearer good-token",
			mockClaims: validClaims,
			wantAuth:   true,
			wantUID:    "uid-1",
		},
		{
			name:     "missing header yields anonymous",
			wantAuth: false,
		},
		{
			name:       "invalid token yields anonymous, not an error",
			authHeader: "Bearer bad-token",
			mockErr:    jwt.ErrInvalidToken,
			wantAuth:   false,
		},
		{
			name:       "non-bearer header yields anonymous",
			authHeader: "Basic dXNlcjpwYXNz",
			wantAuth:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parser := new(TokenParserMock)
			if tt.mockClaims != nil || tt.mockErr != nil {
				parser.On("ParseAccessToken", mock.Anything).Return(tt.mockClaims, tt.mockErr).Once()
			}

			var got authz.Principal
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = PrincipalFromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/api/v1/analyses", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rr := httptest.NewRecorder()

			PrincipalMiddleware(parser, newNoopLogger())(next).ServeHTTP(rr, req)

			assert.Equal(t, http.StatusOK, rr.Code)
			assert.Equal(t, tt.wantAuth, got.IsAuthenticated())
			if tt.wantAuth {
				assert.Equal(t, tt.wantUID, got.UID)
				assert.Equal(t, "user@example.com", got.Email)
			}
		})
	}
}

func TestRequireAuth(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := RequireAuth(newNoopLogger())(next)

	t.Run("anonymous rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
		rr := httptest.NewRecorder()

		handler.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("authenticated passes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
		ctx := context.WithValue(req.Context(), PrincipalKey,
			authz.Authenticated("uid-1", "user@example.com", models.RoleUser))
		rr := httptest.NewRecorder()

		handler.ServeHTTP(rr, req.WithContext(ctx))
		assert.Equal(t, http.StatusOK, rr.Code)
	})
}
