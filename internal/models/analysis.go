package models

import "time"

// Analysis представляет сохранённый результат анализа изображения.
// OwnerUID выставляется при создании и далее не меняется.
type Analysis struct {
	ID          string    `json:"id"`        // Уникальный идентификатор записи
	OwnerUID    string    `json:"owner_uid"` // Владелец записи
	Label       string    `json:"label"`     // Метка классификатора
	Score       float64   `json:"score"`     // Уверенность классификатора, [0, 1]
	ImageURL    string    `json:"image_url"` // Ссылка на изображение в блоб-хранилище
	Notes       string    `json:"notes"`     // Произвольные заметки пользователя
	Fingerprint string    `json:"-"`         // Детерминированный отпечаток для дедупликации
	CreatedAt   time.Time `json:"created_at"` // Время создания (для мигрированных — клиентское)
}

// GuestAnalysis — запись из клиентского гостевого журнала.
// ClientID существует только на клиенте и в отпечаток не входит.
type GuestAnalysis struct {
	ClientID  string    `json:"client_id"`
	Label     string    `json:"label" validate:"required"`
	Score     float64   `json:"score" validate:"min=0,max=1"`
	ImageURL  string    `json:"image_url"`
	Notes     string    `json:"notes"`
	CreatedAt time.Time `json:"created_at" validate:"required"`
}

// AnalysisView — проекция записи для публичного доступа по ссылке.
// Не содержит владельца и других полей, связанных с учётной записью.
type AnalysisView struct {
	Label     string    `json:"label"`
	Score     float64   `json:"score"`
	ImageURL  string    `json:"image_url"`
	Notes     string    `json:"notes"`
	CreatedAt time.Time `json:"created_at"`
}

// View возвращает публичную проекцию записи.
func (a *Analysis) View() AnalysisView {
	return AnalysisView{
		Label:     a.Label,
		Score:     a.Score,
		ImageURL:  a.ImageURL,
		Notes:     a.Notes,
		CreatedAt: a.CreatedAt,
	}
}
