package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/pribylovaa/smarthub-auth/internal/models"
	"github.com/pribylovaa/smarthub-auth/internal/storage"
)

// UsersWithActiveRefresh возвращает все аккаунты c непустым refresh-хэшем.
// Точечного индекса по секрету нет и быть не может (хранится только bcrypt-хэш),
// sequential scan здесь ожидаем.
func (s *Storage) UsersWithActiveRefresh(ctx context.Context) ([]*models.User, error) {
	const op = "storage.postgres.UsersWithActiveRefresh"

	query := `SELECT ` + userColumns + ` FROM users WHERE refresh_token_hash IS NOT NULL`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return users, nil
}

// RotateRefreshToken условно перезаписывает сессионные поля аккаунта.
// Запись проходит только если сохранённый хэш всё ещё равен oldHash
// (IS NOT DISTINCT FROM — nil соответствует NULL). Возвращает:
//
//	nil          — поля перезаписаны;
//	ErrConflict  — аккаунт есть, но хэш уже другой (конкурентная ротация);
//	ErrNotFound  — аккаунта не существует.
func (s *Storage) RotateRefreshToken(ctx context.Context, userID uuid.UUID, oldHash *string, newHash string, expiresAt time.Time) error {
	const op = "storage.postgres.RotateRefreshToken"

	const upd = `
		UPDATE users
		SET refresh_token_hash = $2, refresh_token_expiry = $3, updated_at = $4
		WHERE id = $1 AND refresh_token_hash IS NOT DISTINCT FROM $5
		RETURNING id
	`

	var id uuid.UUID
	err := s.db.QueryRow(ctx, upd, userID, newHash, expiresAt, time.Now().UTC(), oldHash).Scan(&id)
	if err == nil {
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, err)
	}

	// Обновление не прошло: различаем "аккаунта нет" и "хэш уже не тот".
	const sel = `SELECT 1 FROM users WHERE id = $1`

	var one int
	err = s.db.QueryRow(ctx, sel, userID).Scan(&one)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	return fmt.Errorf("%s: %w", op, storage.ErrConflict)
}

// ClearRefreshToken обнуляет оба сессионных поля аккаунта (logout).
func (s *Storage) ClearRefreshToken(ctx context.Context, userID uuid.UUID) error {
	const op = "storage.postgres.ClearRefreshToken"

	query := `
		UPDATE users
		SET refresh_token_hash = NULL, refresh_token_expiry = NULL, updated_at = $2
		WHERE id = $1
	`

	cmdTag, err := s.db.Exec(ctx, query, userID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return nil
}
