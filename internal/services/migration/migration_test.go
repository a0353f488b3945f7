package migration

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zeawatch/zeawatch-backend/internal/lib/fingerprint"
	"github.com/zeawatch/zeawatch-backend/internal/models"
	"github.com/zeawatch/zeawatch-backend/internal/storage/repository"
)

type RepositoryMock struct {
	mock.Mock
}

func (m *RepositoryMock) CreateAnalysis(ctx context.Context, a models.Analysis) (string, error) {
	args := m.Called(ctx, a)
	return args.String(0), args.Error(1)
}

func (m *RepositoryMock) ListFingerprintsByOwner(ctx context.Context, ownerUID string) (map[string]struct{}, error) {
	args := m.Called(ctx, ownerUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]struct{}), args.Error(1)
}

func guestItem(label string, createdAt time.Time) models.GuestAnalysis {
	return models.GuestAnalysis{
		ClientID:  "client-" + label,
		Label:     label,
		Score:     0.91,
		ImageURL:  "https://img.example.com/" + label + ".jpg",
		CreatedAt: createdAt,
	}
}

func TestService_Migrate(t *testing.T) {
	t.Parallel()
	base := time.Date(2025, 5, 20, 8, 30, 0, 0, time.UTC)

	t.Run("accepts a fresh batch and preserves client timestamps", func(t *testing.T) {
		repo := new(RepositoryMock)
		repo.On("ListFingerprintsByOwner", mock.Anything, "uid-1").
			Return(map[string]struct{}{}, nil)
		repo.On("CreateAnalysis", mock.Anything, mock.MatchedBy(func(a models.Analysis) bool {
			return a.OwnerUID == "uid-1" && a.Fingerprint != "" && a.CreatedAt.Equal(base)
		})).Return("new-id", nil)

		s := New(repo)
		report, err := s.Migrate(context.Background(), "uid-1", []models.GuestAnalysis{
			guestItem("maize_rust", base),
			guestItem("leaf_blight", base),
		})
		require.NoError(t, err)
		assert.Equal(t, &models.MigrationReport{Accepted: 2}, report)
		repo.AssertNumberOfCalls(t, "CreateAnalysis", 2)
	})

	t.Run("same content under different client ids stores one record", func(t *testing.T) {
		repo := new(RepositoryMock)
		repo.On("ListFingerprintsByOwner", mock.Anything, "uid-1").
			Return(map[string]struct{}{}, nil)
		repo.On("CreateAnalysis", mock.Anything, mock.Anything).Return("new-id", nil)

		first := guestItem("maize_rust", base)
		second := first
		second.ClientID = "client-other-device"

		s := New(repo)
		report, err := s.Migrate(context.Background(), "uid-1", []models.GuestAnalysis{first, second})
		require.NoError(t, err)
		assert.Equal(t, &models.MigrationReport{Accepted: 1, Duplicates: 1}, report)
		repo.AssertNumberOfCalls(t, "CreateAnalysis", 1)
	})

	t.Run("already migrated content is skipped without storage writes", func(t *testing.T) {
		item := guestItem("maize_rust", base)
		fp := fingerprint.Compute(item.CreatedAt, item.Label, item.Score, item.ImageURL)

		repo := new(RepositoryMock)
		repo.On("ListFingerprintsByOwner", mock.Anything, "uid-1").
			Return(map[string]struct{}{fp: {}}, nil)

		s := New(repo)
		report, err := s.Migrate(context.Background(), "uid-1", []models.GuestAnalysis{item})
		require.NoError(t, err)
		assert.Equal(t, &models.MigrationReport{Duplicates: 1}, report)
		repo.AssertNotCalled(t, "CreateAnalysis", mock.Anything, mock.Anything)
	})

	t.Run("concurrent duplicate from storage counts as duplicate", func(t *testing.T) {
		repo := new(RepositoryMock)
		repo.On("ListFingerprintsByOwner", mock.Anything, "uid-1").
			Return(map[string]struct{}{}, nil)
		repo.On("CreateAnalysis", mock.Anything, mock.Anything).Return("", repository.ErrDuplicate)

		s := New(repo)
		report, err := s.Migrate(context.Background(), "uid-1", []models.GuestAnalysis{guestItem("maize_rust", base)})
		require.NoError(t, err)
		assert.Equal(t, &models.MigrationReport{Duplicates: 1}, report)
	})

	t.Run("one failed item does not abort the batch", func(t *testing.T) {
		broken := guestItem("broken", base)
		fine := guestItem("fine", base)

		repo := new(RepositoryMock)
		repo.On("ListFingerprintsByOwner", mock.Anything, "uid-1").
			Return(map[string]struct{}{}, nil)
		repo.On("CreateAnalysis", mock.Anything, mock.MatchedBy(func(a models.Analysis) bool {
			return a.Label == "broken"
		})).Return("", errors.New("column too long"))
		repo.On("CreateAnalysis", mock.Anything, mock.MatchedBy(func(a models.Analysis) bool {
			return a.Label == "fine"
		})).Return("new-id", nil)

		s := New(repo)
		report, err := s.Migrate(context.Background(), "uid-1", []models.GuestAnalysis{broken, fine})
		require.NoError(t, err)
		assert.Equal(t, &models.MigrationReport{Accepted: 1, Failed: 1}, report)
	})

	t.Run("repeating the whole migration yields only duplicates", func(t *testing.T) {
		items := []models.GuestAnalysis{
			guestItem("maize_rust", base),
			guestItem("leaf_blight", base.Add(time.Minute)),
		}
		stored := map[string]struct{}{}

		repo := new(RepositoryMock)
		repo.On("ListFingerprintsByOwner", mock.Anything, "uid-1").Return(stored, nil)
		repo.On("CreateAnalysis", mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) {
				stored[args.Get(1).(models.Analysis).Fingerprint] = struct{}{}
			}).Return("new-id", nil)

		s := New(repo)
		first, err := s.Migrate(context.Background(), "uid-1", items)
		require.NoError(t, err)
		assert.Equal(t, &models.MigrationReport{Accepted: 2}, first)

		second, err := s.Migrate(context.Background(), "uid-1", items)
		require.NoError(t, err)
		assert.Equal(t, &models.MigrationReport{Duplicates: 2}, second)
		repo.AssertNumberOfCalls(t, "CreateAnalysis", 2)
	})

	t.Run("fingerprint snapshot failure aborts early", func(t *testing.T) {
		repo := new(RepositoryMock)
		repo.On("ListFingerprintsByOwner", mock.Anything, "uid-1").
			Return(nil, errors.New("connection refused"))

		s := New(repo)
		_, err := s.Migrate(context.Background(), "uid-1", []models.GuestAnalysis{guestItem("maize_rust", base)})
		assert.Error(t, err)
		repo.AssertNotCalled(t, "CreateAnalysis", mock.Anything, mock.Anything)
	})
}
