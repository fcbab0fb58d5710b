package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/pribylovaa/smarthub-auth/internal/models"
	"github.com/pribylovaa/smarthub-auth/internal/pkg/log"
	"github.com/pribylovaa/smarthub-auth/internal/pkg/secrets"
	"github.com/pribylovaa/smarthub-auth/internal/storage"
)

// RefreshSession обменивает действующий refresh-секрет на новую сессию.
// Ротация полная: и access-токен, и refresh-секрет выпускаются заново,
// прежний секрет перестаёт действовать в момент успешной записи (single-use).
func (s *Service) RefreshSession(ctx context.Context, refreshSecret string) (*models.Session, error) {
	const op = "service.session.RefreshSession"

	lg := log.From(ctx)

	user, err := s.userByRefreshSecret(ctx, refreshSecret)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			lg.Warn("refresh_lookup_not_found", slog.String("op", op))
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidOrExpiredToken)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if user.RefreshTokenExpiry == nil || !user.RefreshTokenExpiry.After(time.Now().UTC()) {
		lg.Warn("refresh_expired",
			slog.String("op", op),
			slog.String("user_id", user.ID.String()),
		)
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidOrExpiredToken)
	}

	return s.issueSession(ctx, user, user.RefreshTokenHash)
}

// RevokeSession отзывает сессию по предъявленному refresh-секрету (logout):
// оба сессионных поля аккаунта обнуляются.
func (s *Service) RevokeSession(ctx context.Context, refreshSecret string) error {
	const op = "service.session.RevokeSession"

	user, err := s.userByRefreshSecret(ctx, refreshSecret)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, ErrInvalidToken)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.storage.ClearRefreshToken(ctx, user.ID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// RevokeSessionByUserID отзывает сессию по ID аккаунта. Запасной путь для
// уже аутентифицированного вызывающего, когда сам секрет проверить не
// удалось; поля очищаются безусловно.
func (s *Service) RevokeSessionByUserID(ctx context.Context, userID uuid.UUID) error {
	const op = "service.session.RevokeSessionByUserID"

	if err := s.storage.ClearRefreshToken(ctx, userID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// userByRefreshSecret находит аккаунт по предъявленному refresh-секрету.
//
// Секреты хранятся только в виде bcrypt-хэшей, поэтому ключа для точечного
// запроса нет: перебираем все аккаунты с активной сессией и сверяем секрет
// с каждым хэшем до первого совпадения. Перебор ограничен числом аккаунтов
// (одна сессия на аккаунт), но дальше небольших таблиц не масштабируется —
// осознанный компромисс, точка расширения описана в DESIGN.md.
func (s *Service) userByRefreshSecret(ctx context.Context, refreshSecret string) (*models.User, error) {
	const op = "service.session.userByRefreshSecret"

	users, err := s.storage.UsersWithActiveRefresh(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	for _, u := range users {
		if u.RefreshTokenHash == nil {
			continue
		}

		if secrets.Verify(refreshSecret, *u.RefreshTokenHash) {
			return u, nil
		}
	}

	return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
}

// issueSession выпускает новую сессию для аккаунта: подписывает access-токен,
// генерирует свежий refresh-секрет и условно записывает его хэш поверх
// oldHash. Если запись не прошла, сессия не возвращается вовсе — вызывающий
// не получит токены, которых хранилище не знает.
func (s *Service) issueSession(ctx context.Context, user *models.User, oldHash *string) (*models.Session, error) {
	const op = "service.session.issueSession"

	lg := log.From(ctx)

	now := time.Now().UTC()

	accessToken, err := s.generateAccessToken(ctx, user, now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	plain, err := secrets.NewRefreshSecret()
	if err != nil {
		lg.Error("refresh_secret_generate_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	hash, err := secrets.Hash(plain)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	refreshExpiry := now.Add(refreshTokenTTL)

	if err := s.storage.RotateRefreshToken(ctx, user.ID, oldHash, hash, refreshExpiry); err != nil {
		switch {
		case errors.Is(err, storage.ErrConflict):
			lg.Warn("refresh_rotation_conflict",
				slog.String("op", op),
				slog.String("user_id", user.ID.String()),
			)
			return nil, fmt.Errorf("%s: %w", op, ErrSessionConflict)
		case errors.Is(err, storage.ErrNotFound):
			return nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &models.Session{
		AccessToken:      accessToken,
		AccessExpiresAt:  now.Add(s.cfg.AccessTokenTTL),
		RefreshToken:     plain,
		RefreshExpiresAt: refreshExpiry,
		UserID:           user.ID,
		Email:            user.Email,
		FullName:         user.FullName(),
		Role:             user.Role,
		ProfileImageURL:  user.ProfileImageURL,
	}, nil
}
