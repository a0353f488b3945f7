// Package models содержит доменные модели сервиса: пользователей,
// результаты анализа изображений, ссылки общего доступа и отчёт миграции.
// Структуры используются в бизнес-логике и при работе с хранилищем.
package models

import "time"

// Роли пользователей. Повышение до admin выполняется вне сервиса.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User представляет зарегистрированного пользователя системы.
type User struct {
	UID               string     // Уникальный идентификатор пользователя
	Name              string     // Отображаемое имя
	Email             string     // Электронная почта (уникальная)
	PasswordHash      string     // Bcrypt-хэш пароля
	Role              string     // Роль пользователя, admin или user
	Verified          bool       // Подтверждена ли учётная запись
	PreferredLanguage string     // Язык интерфейса, en или sw
	CreatedAt         time.Time  // Дата регистрации
	LastLoginAt       *time.Time // Время последнего входа
}
