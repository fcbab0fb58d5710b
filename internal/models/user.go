package models

import (
	"time"

	"github.com/google/uuid"
)

// Role — уровень доступа аккаунта.
type Role string

const (
	RoleUser  Role = "User"
	RoleAdmin Role = "Admin"
)

// Valid сообщает, известна ли роль системе.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// User — модель аккаунта в системе.
//
// Сессионные поля живут прямо на аккаунте: у одного аккаунта одновременно
// существует не более одного активного refresh-токена, новая выдача
// перезаписывает старую. RefreshTokenHash и RefreshTokenExpiry либо оба
// заданы (активная сессия), либо оба nil (сессии нет) — по одному не бывают.
type User struct {
	ID              uuid.UUID
	FirstName       string
	LastName        string
	Email           string
	PasswordHash    string
	Role            Role
	ProfileImageURL string
	EmailVerified   bool

	RefreshTokenHash   *string
	RefreshTokenExpiry *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// FullName — отображаемое имя для claims и ответов API.
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// HasActiveSession — есть ли у аккаунта сохранённый refresh-токен.
func (u *User) HasActiveSession() bool {
	return u.RefreshTokenHash != nil && u.RefreshTokenExpiry != nil
}
