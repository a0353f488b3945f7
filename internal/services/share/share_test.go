package share

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zeawatch/zeawatch-backend/internal/authz"
	"github.com/zeawatch/zeawatch-backend/internal/models"
	"github.com/zeawatch/zeawatch-backend/internal/storage/repository"
)

type LinkRepositoryMock struct {
	mock.Mock
}

func (m *LinkRepositoryMock) CreateShareLink(ctx context.Context, link models.ShareLink) error {
	args := m.Called(ctx, link)
	return args.Error(0)
}

func (m *LinkRepositoryMock) GetShareLink(ctx context.Context, token string) (*models.ShareLink, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ShareLink), args.Error(1)
}

func (m *LinkRepositoryMock) RevokeShareLink(ctx context.Context, token string, now time.Time) error {
	args := m.Called(ctx, token, now)
	return args.Error(0)
}

type AnalysisRepositoryMock struct {
	mock.Mock
}

func (m *AnalysisRepositoryMock) GetAnalysis(ctx context.Context, id string) (*models.Analysis, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Analysis), args.Error(1)
}

var (
	owner    = authz.Authenticated("uid-owner", "owner@example.com", models.RoleUser)
	stranger = authz.Authenticated("uid-stranger", "stranger@example.com", models.RoleUser)
	admin    = authz.Authenticated("uid-admin", "admin@example.com", models.RoleAdmin)
)

func testAnalysis() *models.Analysis {
	return &models.Analysis{
		ID:       "analysis-1",
		OwnerUID: "uid-owner",
		Label:    "maize_rust",
		Score:    0.93,
	}
}

func newTestService(links *LinkRepositoryMock, analyses *AnalysisRepositoryMock, at time.Time) *Service {
	s := New(links, analyses, 720*time.Hour)
	s.now = func() time.Time { return at }
	return s
}

func TestService_Create(t *testing.T) {
	t.Parallel()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		principal authz.Principal
		wantErr   error
	}{
		{name: "owner can share", principal: owner},
		{name: "admin can share", principal: admin},
		{name: "stranger denied", principal: stranger, wantErr: ErrPermission},
		{name: "anonymous denied", principal: authz.Anonymous(), wantErr: ErrPermission},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			links := new(LinkRepositoryMock)
			analyses := new(AnalysisRepositoryMock)
			analyses.On("GetAnalysis", mock.Anything, "analysis-1").Return(testAnalysis(), nil)
			links.On("CreateShareLink", mock.Anything, mock.Anything).Return(nil).Maybe()

			s := newTestService(links, analyses, base)
			link, err := s.Create(context.Background(), tt.principal, "analysis-1", nil)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				links.AssertNotCalled(t, "CreateShareLink", mock.Anything, mock.Anything)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, link.Token)
			assert.Equal(t, "analysis-1", link.AnalysisID)
			assert.Equal(t, tt.principal.UID, link.CreatedBy)
			assert.Equal(t, base.Add(720*time.Hour), link.ExpiresAt)
		})
	}

	t.Run("explicit ttl overrides default", func(t *testing.T) {
		links := new(LinkRepositoryMock)
		analyses := new(AnalysisRepositoryMock)
		analyses.On("GetAnalysis", mock.Anything, "analysis-1").Return(testAnalysis(), nil)
		links.On("CreateShareLink", mock.Anything, mock.Anything).Return(nil)

		s := newTestService(links, analyses, base)
		ttl := 2 * time.Hour
		link, err := s.Create(context.Background(), owner, "analysis-1", &ttl)
		require.NoError(t, err)
		assert.Equal(t, base.Add(2*time.Hour), link.ExpiresAt)
	})

	t.Run("zero ttl yields an already expired link", func(t *testing.T) {
		links := new(LinkRepositoryMock)
		analyses := new(AnalysisRepositoryMock)
		analyses.On("GetAnalysis", mock.Anything, "analysis-1").Return(testAnalysis(), nil)
		links.On("CreateShareLink", mock.Anything, mock.Anything).Return(nil)

		s := newTestService(links, analyses, base)
		ttl := time.Duration(0)
		link, err := s.Create(context.Background(), owner, "analysis-1", &ttl)
		require.NoError(t, err)
		assert.True(t, link.Expired(base))
	})

	t.Run("unknown analysis", func(t *testing.T) {
		links := new(LinkRepositoryMock)
		analyses := new(AnalysisRepositoryMock)
		analyses.On("GetAnalysis", mock.Anything, "missing").Return(nil, repository.ErrNotFound)

		s := newTestService(links, analyses, base)
		_, err := s.Create(context.Background(), owner, "missing", nil)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("token collision retried with a fresh token", func(t *testing.T) {
		links := new(LinkRepositoryMock)
		analyses := new(AnalysisRepositoryMock)
		analyses.On("GetAnalysis", mock.Anything, "analysis-1").Return(testAnalysis(), nil)
		links.On("CreateShareLink", mock.Anything, mock.Anything).Return(repository.ErrDuplicate).Twice()
		links.On("CreateShareLink", mock.Anything, mock.Anything).Return(nil).Once()

		s := newTestService(links, analyses, base)
		link, err := s.Create(context.Background(), owner, "analysis-1", nil)
		require.NoError(t, err)
		assert.NotEmpty(t, link.Token)
		links.AssertNumberOfCalls(t, "CreateShareLink", 3)
	})

	t.Run("allocation gives up after bounded attempts", func(t *testing.T) {
		links := new(LinkRepositoryMock)
		analyses := new(AnalysisRepositoryMock)
		analyses.On("GetAnalysis", mock.Anything, "analysis-1").Return(testAnalysis(), nil)
		links.On("CreateShareLink", mock.Anything, mock.Anything).Return(repository.ErrDuplicate)

		s := newTestService(links, analyses, base)
		_, err := s.Create(context.Background(), owner, "analysis-1", nil)
		assert.ErrorIs(t, err, ErrAllocation)
		links.AssertNumberOfCalls(t, "CreateShareLink", maxTokenAttempts)
	})
}

func TestService_Resolve(t *testing.T) {
	t.Parallel()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("valid link returns the record without its owner", func(t *testing.T) {
		links := new(LinkRepositoryMock)
		analyses := new(AnalysisRepositoryMock)
		links.On("GetShareLink", mock.Anything, "tok").Return(&models.ShareLink{
			Token:      "tok",
			AnalysisID: "analysis-1",
			CreatedBy:  "uid-owner",
			ExpiresAt:  base.Add(time.Hour),
		}, nil)
		analyses.On("GetAnalysis", mock.Anything, "analysis-1").Return(testAnalysis(), nil)

		s := newTestService(links, analyses, base)
		view, err := s.Resolve(context.Background(), "tok")
		require.NoError(t, err)
		assert.Equal(t, "maize_rust", view.Label)
		assert.Equal(t, 0.93, view.Score)
	})

	t.Run("unknown token", func(t *testing.T) {
		links := new(LinkRepositoryMock)
		analyses := new(AnalysisRepositoryMock)
		links.On("GetShareLink", mock.Anything, "tok").Return(nil, repository.ErrNotFound)

		s := newTestService(links, analyses, base)
		_, err := s.Resolve(context.Background(), "tok")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("expiry is rechecked on every call", func(t *testing.T) {
		links := new(LinkRepositoryMock)
		analyses := new(AnalysisRepositoryMock)
		links.On("GetShareLink", mock.Anything, "tok").Return(&models.ShareLink{
			Token:      "tok",
			AnalysisID: "analysis-1",
			ExpiresAt:  base.Add(time.Hour),
		}, nil)
		analyses.On("GetAnalysis", mock.Anything, "analysis-1").Return(testAnalysis(), nil)

		current := base
		s := New(links, analyses, 720*time.Hour)
		s.now = func() time.Time { return current }

		_, err := s.Resolve(context.Background(), "tok")
		require.NoError(t, err)

		current = base.Add(2 * time.Hour)
		_, err = s.Resolve(context.Background(), "tok")
		assert.ErrorIs(t, err, ErrExpired)
	})

	t.Run("record deleted after link creation", func(t *testing.T) {
		links := new(LinkRepositoryMock)
		analyses := new(AnalysisRepositoryMock)
		links.On("GetShareLink", mock.Anything, "tok").Return(&models.ShareLink{
			Token:      "tok",
			AnalysisID: "analysis-1",
			ExpiresAt:  base.Add(time.Hour),
		}, nil)
		analyses.On("GetAnalysis", mock.Anything, "analysis-1").Return(nil, repository.ErrNotFound)

		s := newTestService(links, analyses, base)
		_, err := s.Resolve(context.Background(), "tok")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestService_Revoke(t *testing.T) {
	t.Parallel()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		principal authz.Principal
		wantErr   error
	}{
		{name: "owner can revoke", principal: owner},
		{name: "admin can revoke", principal: admin},
		{name: "stranger denied", principal: stranger, wantErr: ErrPermission},
		{name: "anonymous denied", principal: authz.Anonymous(), wantErr: ErrPermission},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			links := new(LinkRepositoryMock)
			analyses := new(AnalysisRepositoryMock)
			links.On("GetShareLink", mock.Anything, "tok").Return(&models.ShareLink{
				Token:      "tok",
				AnalysisID: "analysis-1",
				CreatedBy:  "uid-owner",
				ExpiresAt:  base.Add(time.Hour),
			}, nil)
			analyses.On("GetAnalysis", mock.Anything, "analysis-1").Return(testAnalysis(), nil)
			links.On("RevokeShareLink", mock.Anything, "tok", base).Return(nil).Maybe()

			s := newTestService(links, analyses, base)
			err := s.Revoke(context.Background(), tt.principal, "tok")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				links.AssertNotCalled(t, "RevokeShareLink", mock.Anything, mock.Anything, mock.Anything)
				return
			}
			require.NoError(t, err)
			links.AssertCalled(t, "RevokeShareLink", mock.Anything, "tok", base)
		})
	}

	t.Run("unknown token", func(t *testing.T) {
		links := new(LinkRepositoryMock)
		analyses := new(AnalysisRepositoryMock)
		links.On("GetShareLink", mock.Anything, "tok").Return(nil, repository.ErrNotFound)

		s := newTestService(links, analyses, base)
		err := s.Revoke(context.Background(), owner, "tok")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}
