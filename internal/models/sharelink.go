package models

import "time"

// ShareLink — ссылка временного публичного доступа к одной записи анализа.
// Отзыв реализуется установкой ExpiresAt в текущий момент.
type ShareLink struct {
	Token      string    // Непрозрачный случайный токен, первичный ключ
	AnalysisID string    // Запись, к которой открыт доступ
	CreatedBy  string    // UID владельца, создавшего ссылку
	ExpiresAt  time.Time // Момент истечения, всегда конечный
	CreatedAt  time.Time
}

// Expired сообщает, истекла ли ссылка к моменту now.
func (s *ShareLink) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}
