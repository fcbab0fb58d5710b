// httperr стандартизирует ответы об ошибках HTTP-слоя.
// На вход — ошибка сервисного слоя (сентинел), на выход:
//   - корректный HTTP-статус;
//   - краткое безопасное message без утечки деталей.
//
// Детали внутренних ошибок наружу не уходят — они остаются в логах.
package httperr

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/pribylovaa/smarthub-auth/internal/service"
)

// Нестандартный код, часто используемый для "клиент закрыл соединение".
const StatusClientClosedRequest = 499

// APIError — единый формат для фронта.
// Code — короткий стабильный код для машиночитаемой обработки.
// Message — безопасное человекочитаемое описание.
// RequestID — прокидывается из X-Request-Id, если есть (для трассировки).
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// ErrorResponse — корневой объект в ответе.
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// ToHTTP конвертирует ошибку сервисного слоя в HTTP-статус и ответ.
//
// Маппинг:
//   - валидационные ошибки -> 400;
//   - ErrInvalidCredentials / ErrInvalidToken / ErrInvalidOrExpiredToken -> 401;
//   - ErrUserNotFound -> 404;
//   - ErrEmailTaken / ErrSessionConflict -> 409;
//   - context.Canceled -> 499, context.DeadlineExceeded -> 504;
//   - прочее -> 500/internal (без раскрытия деталей).
func ToHTTP(err error) (int, ErrorResponse) {
	switch {
	case err == nil:
		// Программная ошибка вызова: не маскируем баг "200 OK" с телом ошибки.
		return resp(http.StatusInternalServerError, "internal", "internal error")
	case errors.Is(err, service.ErrInvalidEmail),
		errors.Is(err, service.ErrWeakPassword),
		errors.Is(err, service.ErrEmptyPassword),
		errors.Is(err, service.ErrEmptyName):
		return resp(http.StatusBadRequest, "invalid_argument", err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		return resp(http.StatusUnauthorized, "invalid_credentials", "invalid credentials")
	case errors.Is(err, service.ErrInvalidOrExpiredToken):
		return resp(http.StatusUnauthorized, "invalid_or_expired_token", "invalid or expired refresh token")
	case errors.Is(err, service.ErrInvalidToken):
		return resp(http.StatusUnauthorized, "invalid_token", "invalid token")
	case errors.Is(err, service.ErrUserNotFound):
		return resp(http.StatusNotFound, "not_found", "user not found")
	case errors.Is(err, service.ErrEmailTaken):
		return resp(http.StatusConflict, "already_exists", "email already taken")
	case errors.Is(err, service.ErrSessionConflict):
		return resp(http.StatusConflict, "conflict", "concurrent session update, retry")
	case errors.Is(err, context.Canceled):
		return resp(StatusClientClosedRequest, "canceled", "canceled")
	case errors.Is(err, context.DeadlineExceeded):
		return resp(http.StatusGatewayTimeout, "deadline_exceeded", "deadline exceeded")
	default:
		return resp(http.StatusInternalServerError, "internal", "internal error")
	}
}

// WriteError — хелпер для HTTP-хендлеров.
// Пишет корректный статус/тело, добавляет request_id из заголовка, если он есть.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := ToHTTP(err)
	write(w, r, status, body)
}

// WriteStatus пишет ответ с явным статусом и кодом (для ошибок, рождающихся
// прямо в HTTP-слое: битый JSON, нет прав, превышен лимит).
func WriteStatus(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	write(w, r, status, ErrorResponse{Error: APIError{Code: code, Message: message}})
}

func resp(status int, code, message string) (int, ErrorResponse) {
	return status, ErrorResponse{Error: APIError{Code: code, Message: message}}
}

func write(w http.ResponseWriter, r *http.Request, status int, body ErrorResponse) {
	// Прокидываем request_id, чтобы фронт мог репортить баги с привязкой.
	if rid := r.Header.Get("X-Request-Id"); rid != "" {
		body.Error.RequestID = rid
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
