// Package authz реализует проверку прав доступа к записям анализа.
//
// Permit — чистый предикат над (принципал, действие, владелец записи),
// не зависящий от хранилища. Политика владения намеренно не опирается
// на row-level security базы данных, чтобы проверяться без неё.
package authz

import "github.com/zeawatch/zeawatch-backend/internal/models"

// Action — действие над записью, запрошенное принципалом.
type Action string

// Действия, проверяемые шлюзом. Create здесь отсутствует: создание
// анонимом до шлюза не доходит (остаётся в гостевом журнале клиента),
// а создание аутентифицированным всегда пишет его собственный UID.
const (
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionShare  Action = "share"
)

// Principal — разрешённая личность вызывающего для одного запроса:
// либо аноним, либо аутентифицированный пользователь с UID и ролью.
// Анонимность не является ошибкой; допустимость решает конечная точка.
type Principal struct {
	authenticated bool
	UID           string
	Email         string
	Role          string
}

// Anonymous возвращает анонимного принципала.
func Anonymous() Principal {
	return Principal{}
}

// Authenticated возвращает аутентифицированного принципала.
func Authenticated(uid, email, role string) Principal {
	return Principal{
		authenticated: true,
		UID:           uid,
		Email:         email,
		Role:          role,
	}
}

// IsAuthenticated сообщает, прошёл ли вызывающий аутентификацию.
func (p Principal) IsAuthenticated() bool {
	return p.authenticated
}

// IsAdmin сообщает, имеет ли принципал роль администратора.
func (p Principal) IsAdmin() bool {
	return p.authenticated && p.Role == models.RoleAdmin
}

// Permit решает, разрешено ли принципалу действие над записью
// с владельцем ownerUID: администратору — всегда, владельцу — да,
// остальным, включая анонимов, — нет.
func Permit(p Principal, _ Action, ownerUID string) bool {
	if !p.authenticated {
		return false
	}
	if p.Role == models.RoleAdmin {
		return true
	}
	return p.UID == ownerUID
}
