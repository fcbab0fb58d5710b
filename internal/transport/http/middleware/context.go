package middleware

import (
	"context"

	"github.com/pribylovaa/smarthub-auth/internal/service"
)

type ctxKey int

const (
	ctxRequestID ctxKey = iota
	ctxAuthToken
	ctxClaims
)

// RequestIDFromContext возвращает request id текущего запроса, если он есть.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(ctxRequestID).(string)
	return v, ok
}

// TokenFromContext возвращает "сырой" Bearer-токен запроса, если он есть.
func TokenFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(ctxAuthToken).(string)
	return v, ok
}

// ClaimsFromContext возвращает claims аутентифицированного запроса.
// Заполняется мидлваром Authenticate/RequireRole.
func ClaimsFromContext(ctx context.Context) (*service.Claims, bool) {
	v, ok := ctx.Value(ctxClaims).(*service.Claims)
	return v, ok
}
