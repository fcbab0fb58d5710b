package models

import (
	"time"

	"github.com/google/uuid"
)

// Session — результат успешной регистрации/входа/обновления.
//
// Описание:
//   - AccessToken — короткоживущий подписанный JWT для доступа к API;
//   - RefreshToken — случайный секрет в открытом виде; отдаётся вызывающему
//     ровно один раз, на сервере хранится только его хэш;
//   - снапшот идентичности аккаунта на момент выдачи — для клиента,
//     чтобы не ходить за профилем отдельным запросом.
//
// Сессия эфемерна и нигде не персистится целиком.
type Session struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time

	UserID          uuid.UUID
	Email           string
	FullName        string
	Role            Role
	ProfileImageURL string
}
