package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/pribylovaa/smarthub-auth/internal/models"
	"github.com/pribylovaa/smarthub-auth/internal/pkg/secrets"
	"github.com/pribylovaa/smarthub-auth/internal/storage"
)

// RegisterParams — входные данные регистрации аккаунта.
type RegisterParams struct {
	FirstName       string
	LastName        string
	Email           string
	Password        string
	ProfileImageURL string
}

// RegisterUser регистрирует новый аккаунт и выдаёт первую сессию.
func (s *Service) RegisterUser(ctx context.Context, p RegisterParams) (*models.Session, error) {
	const op = "service.auth.RegisterUser"

	if strings.TrimSpace(p.FirstName) == "" || strings.TrimSpace(p.LastName) == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrEmptyName)
	}

	if err := validateEmail(p.Email); err != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidEmail)
	}

	if err := validatePassword(p.Password); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	// Уникальность email проверяется по точному совпадению, без нормализации
	// регистра — так же ведёт себя и поиск при логине.
	_, err := s.storage.UserByEmail(ctx, p.Email)
	if err == nil {
		return nil, fmt.Errorf("%s: %w", op, ErrEmailTaken)
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	hashedPassword, err := secrets.Hash(p.Password)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	now := time.Now().UTC()
	user := &models.User{
		ID:              uuid.New(),
		FirstName:       p.FirstName,
		LastName:        p.LastName,
		Email:           p.Email,
		PasswordHash:    hashedPassword,
		Role:            models.RoleUser,
		ProfileImageURL: p.ProfileImageURL,
		EmailVerified:   false,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.storage.SaveUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return nil, fmt.Errorf("%s: %w", op, ErrEmailTaken)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	// Свежесозданный аккаунт: сохранённого refresh-хэша ещё нет.
	return s.issueSession(ctx, user, nil)
}

// LoginUser выполняет вход по email+пароль и выдаёт новую сессию,
// перезаписывая сессионные поля аккаунта (ротация).
func (s *Service) LoginUser(ctx context.Context, email, password string) (*models.Session, error) {
	const op = "service.auth.LoginUser"

	if len(password) == 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	user, err := s.storage.UserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			// Холостое bcrypt-сравнение: ветка "нет аккаунта" обязана стоить
			// столько же, сколько "неверный пароль" — иначе по времени ответа
			// можно перечислять зарегистрированные email.
			secrets.Verify(password, s.dummyHash)
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !secrets.Verify(password, user.PasswordHash) {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	return s.issueSession(ctx, user, user.RefreshTokenHash)
}

// ListUsers возвращает все аккаунты (админский листинг).
func (s *Service) ListUsers(ctx context.Context) ([]*models.User, error) {
	const op = "service.auth.ListUsers"

	users, err := s.storage.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return users, nil
}

// EnsureAdmin создаёт админский аккаунт, если его ещё нет.
// Пустые email/password отключают сидинг. Вызывается один раз на старте.
func (s *Service) EnsureAdmin(ctx context.Context, email, password string) error {
	const op = "service.auth.EnsureAdmin"

	if email == "" || password == "" {
		return nil
	}

	_, err := s.storage.UserByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%s: %w", op, err)
	}

	hashedPassword, err := secrets.Hash(password)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	now := time.Now().UTC()
	admin := &models.User{
		ID:            uuid.New(),
		FirstName:     "Admin",
		LastName:      "Account",
		Email:         email,
		PasswordHash:  hashedPassword,
		Role:          models.RoleAdmin,
		EmailVerified: true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.storage.SaveUser(ctx, admin); err != nil {
		// Гонка двух реплик на старте: аккаунт уже создан — не ошибка.
		if errors.Is(err, storage.ErrAlreadyExists) {
			return nil
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// validateEmail проверяет базовый формат email. Значение не нормализуется:
// хранение и поиск работают с адресом в исходном регистре.
func validateEmail(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return ErrInvalidEmail
	}

	if _, err := mail.ParseAddress(raw); err != nil {
		return ErrInvalidEmail
	}

	return nil
}

// validatePassword проверяет минимальные требования к паролю.
// Политика: длина >= 8, хотя бы одна строчная, заглавная, цифра и спецсимвол.
func validatePassword(pw string) error {
	if len(pw) == 0 {
		return ErrEmptyPassword
	}

	if len([]rune(pw)) < 8 {
		return ErrWeakPassword
	}

	var hasLower, hasUpper, hasDigit, hasSpecial bool
	for _, r := range pw {
		switch {
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			hasSpecial = true
		}
	}

	if !(hasLower && hasUpper && hasDigit && hasSpecial) {
		return ErrWeakPassword
	}

	return nil
}
