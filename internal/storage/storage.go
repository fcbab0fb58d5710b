package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/pribylovaa/smarthub-auth/internal/models"
)

var (
	// ErrNotFound — запись не найдена (аккаунт).
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists — нарушение уникальности (email).
	ErrAlreadyExists = errors.New("already exists")
	// ErrConflict — условное обновление не прошло: сохранённый refresh-хэш
	// уже не тот, от которого отталкивался вызывающий (конкурентная ротация).
	ErrConflict = errors.New("conflict")
)

// UserStorage выполняет операции над аккаунтами.
type UserStorage interface {
	// SaveUser создает новый аккаунт в БД.
	SaveUser(ctx context.Context, user *models.User) error
	// UserByEmail находит аккаунт по точному совпадению email.
	UserByEmail(ctx context.Context, email string) (*models.User, error)
	// UserByID находит аккаунт по ID.
	UserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	// ListUsers возвращает все аккаунты (админский листинг).
	ListUsers(ctx context.Context) ([]*models.User, error)
}

// SessionStorage выполняет операции над сессионными полями аккаунта.
type SessionStorage interface {
	// UsersWithActiveRefresh возвращает все аккаунты c непустым refresh-хэшем.
	UsersWithActiveRefresh(ctx context.Context) ([]*models.User, error)
	// RotateRefreshToken записывает новую пару хэш/срок при условии, что
	// сохранённый хэш всё ещё равен oldHash (nil соответствует NULL).
	// Возвращает ErrConflict, если условие не выполнено, ErrNotFound —
	// если аккаунта нет.
	RotateRefreshToken(ctx context.Context, userID uuid.UUID, oldHash *string, newHash string, expiresAt time.Time) error
	// ClearRefreshToken обнуляет оба сессионных поля аккаунта.
	ClearRefreshToken(ctx context.Context, userID uuid.UUID) error
}

// Storage задает контракт работы с БД.
type Storage interface {
	UserStorage
	SessionStorage
	Close()
}
