// Входные/выходные модели REST-слоя и конвертация из доменных моделей.
package models

import (
	"github.com/pribylovaa/smarthub-auth/internal/models"
)

type RegisterRequest struct {
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	ProfileImageURL string `json:"profile_image_url,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// SessionResponse — публичная JSON-форма сессии.
// Refresh-секрет присутствует в открытом виде ровно здесь и больше нигде.
type SessionResponse struct {
	AccessToken      string `json:"access_token"`
	AccessExpiresAt  int64  `json:"access_expires_at"` // Unix UTC
	RefreshToken     string `json:"refresh_token"`
	RefreshExpiresAt int64  `json:"refresh_expires_at"` // Unix UTC
	UserID           string `json:"user_id"`
	Email            string `json:"email"`
	FullName         string `json:"full_name"`
	Role             string `json:"role"`
	ProfileImageURL  string `json:"profile_image_url,omitempty"`
}

// UserSummary — строка админского листинга аккаунтов.
type UserSummary struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      string `json:"role"`
}

// SessionFromModel конвертирует доменную сессию в ответ API.
func SessionFromModel(s *models.Session) SessionResponse {
	return SessionResponse{
		AccessToken:      s.AccessToken,
		AccessExpiresAt:  s.AccessExpiresAt.Unix(),
		RefreshToken:     s.RefreshToken,
		RefreshExpiresAt: s.RefreshExpiresAt.Unix(),
		UserID:           s.UserID.String(),
		Email:            s.Email,
		FullName:         s.FullName,
		Role:             string(s.Role),
		ProfileImageURL:  s.ProfileImageURL,
	}
}

// UserSummaryFromModel конвертирует аккаунт в строку листинга.
func UserSummaryFromModel(u *models.User) UserSummary {
	return UserSummary{
		ID:        u.ID.String(),
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Role:      string(u.Role),
	}
}
