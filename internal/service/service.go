// service содержит бизнес-логику управления жизненным циклом сессий:
// регистрацию/аутентификацию аккаунтов, выпуск/ротацию/отзыв refresh-токенов
// и работу с хранилищем через интерфейсы из пакета storage.
//
// Основные аспекты:
//   - Пакет не хранит состояние запроса внутри Service; экземпляр Service
//     безопасен для конкурентного использования из разных горутин при условии,
//     что переданное хранилище (storage.Storage) потокобезопасно.
//   - Каждая операция — единая логическая единица против хранилища: при любой
//     ошибке персистентное состояние остаётся нетронутым, частичных записей нет.
//   - Ошибки возвращаются сентинелами и далее маппятся HTTP-слоем на статусы
//     (см. комментарии к переменным ошибок ниже).
package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/pribylovaa/smarthub-auth/internal/config"
	"github.com/pribylovaa/smarthub-auth/internal/pkg/secrets"
	"github.com/pribylovaa/smarthub-auth/internal/storage"
)

// refreshTokenTTL — срок жизни refresh-токена. Зафиксирован, снаружи
// не конфигурируется.
const refreshTokenTTL = 7 * 24 * time.Hour

var (
	// ErrInvalidCredentials — пара email/пароль неверна или аккаунт не найден.
	// Оба случая неразличимы для вызывающего. HTTP 401.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidToken — предъявленный refresh-секрет не подошёл ни к одному
	// аккаунту (отзыв) либо access-токен не прошёл проверку. HTTP 401.
	ErrInvalidToken = errors.New("invalid token")

	// ErrInvalidOrExpiredToken — refresh-секрет не подошёл ни к одному аккаунту
	// либо срок его действия истёк. HTTP 401.
	ErrInvalidOrExpiredToken = errors.New("invalid or expired refresh token")

	// ErrEmailTaken — email уже занят другим аккаунтом. HTTP 409.
	ErrEmailTaken = errors.New("email already taken")

	// ErrUserNotFound — аккаунт с таким ID не существует. HTTP 404.
	ErrUserNotFound = errors.New("user not found")

	// ErrSessionConflict — конкурентная ротация для одного аккаунта: чужая
	// запись успела перезаписать refresh-хэш между чтением и записью.
	// Вызывающий может повторить попытку. HTTP 409.
	ErrSessionConflict = errors.New("concurrent session rotation")

	// ErrInvalidEmail — email имеет некорректный формат. HTTP 400.
	ErrInvalidEmail = errors.New("invalid email format")

	// ErrWeakPassword — пароль не удовлетворяет политике сложности. HTTP 400.
	ErrWeakPassword = errors.New("password is too weak")

	// ErrEmptyPassword — пароль пустой. HTTP 400.
	ErrEmptyPassword = errors.New("password is empty")

	// ErrEmptyName — имя или фамилия не заданы. HTTP 400.
	ErrEmptyName = errors.New("first and last name are required")
)

// Service описывает бизнес-логику управления сессиями.
type Service struct {
	storage storage.Storage
	cfg     config.AuthConfig

	// dummyHash — заранее посчитанный bcrypt-хэш для выравнивания времени
	// ответа логина при неизвестном email (см. LoginUser).
	dummyHash string
}

// New создаёт новый экземпляр Service.
// Пустой ключ подписи — ошибка конфигурации: подписант обязан падать на
// старте процесса, а не на первом запросе.
func New(storage storage.Storage, cfg config.AuthConfig) (*Service, error) {
	const op = "service.New"

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("%s: %w", op, config.ErrMissingJWTSecret)
	}

	dummy, err := secrets.Hash("smarthub-auth.no-such-account")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Service{
		storage:   storage,
		cfg:       cfg,
		dummyHash: dummy,
	}, nil
}
