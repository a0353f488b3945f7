package repository

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// TestDataFactory содержит методы для создания тестовых данных
type TestDataFactory struct {
	storage *Storage
}

// NewTestDataFactory создает новую фабрику тестовых данных
func NewTestDataFactory(storage *Storage) *TestDataFactory {
	return &TestDataFactory{storage: storage}
}

// CreateUser создает тестового пользователя и возвращает его UID
func (f *TestDataFactory) CreateUser(t *testing.T, name, email string) string {
	t.Helper()
	uid := uuid.New().String()
	_, err := f.storage.DB.Exec(`INSERT INTO users (uid, name, email, password_hash, role, verified)
		VALUES ($1, $2, $3, $4, 'user', TRUE)`,
		uid, name, email, "hashedpassword")
	require.NoError(t, err)
	return uid
}

// CreateAnalysis создает тестовую запись анализа и возвращает её ID
func (f *TestDataFactory) CreateAnalysis(t *testing.T, ownerUID, label, fingerprint string, createdAt time.Time) string {
	t.Helper()
	id := uuid.New().String()
	_, err := f.storage.DB.Exec(`INSERT INTO analyses (id, owner_uid, label, score, image_url, notes, fingerprint, created_at)
		VALUES ($1, $2, $3, 0.9, '', '', $4, $5)`,
		id, ownerUID, label, fingerprint, createdAt)
	require.NoError(t, err)
	return id
}

// CreateShareLink создает тестовую ссылку общего доступа
func (f *TestDataFactory) CreateShareLink(t *testing.T, token, analysisID, createdBy string, expiresAt time.Time) {
	t.Helper()
	_, err := f.storage.DB.Exec(`INSERT INTO share_links (token, analysis_id, created_by, expires_at)
		VALUES ($1, $2, $3, $4)`,
		token, analysisID, createdBy, expiresAt)
	require.NoError(t, err)
}

// TestVerification содержит общие функции для проверки результатов тестов
type TestVerification struct {
	storage *Storage
}

// NewTestVerification создает новый объект для проверки результатов
func NewTestVerification(storage *Storage) *TestVerification {
	return &TestVerification{storage: storage}
}

// VerifyUserExists проверяет существование пользователя в БД
func (v *TestVerification) VerifyUserExists(t *testing.T, userUID string) {
	t.Helper()
	var count int
	err := v.storage.DB.QueryRow("SELECT COUNT(*) FROM users WHERE uid = $1", userUID).Scan(&count)
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

// VerifyAnalysisCount проверяет число записей пользователя в БД
func (v *TestVerification) VerifyAnalysisCount(t *testing.T, ownerUID string, expected int) {
	t.Helper()
	var count int
	err := v.storage.DB.QueryRow("SELECT COUNT(*) FROM analyses WHERE owner_uid = $1", ownerUID).Scan(&count)
	require.NoError(t, err)
	require.Equal(t, expected, count)
}

// VerifyShareLinkExpired проверяет, что срок ссылки уже в прошлом
func (v *TestVerification) VerifyShareLinkExpired(t *testing.T, token string) {
	t.Helper()
	var expiresAt time.Time
	err := v.storage.DB.QueryRow("SELECT expires_at FROM share_links WHERE token = $1", token).Scan(&expiresAt)
	require.NoError(t, err)
	require.True(t, expiresAt.Before(time.Now()))
}
