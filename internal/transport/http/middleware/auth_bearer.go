package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/pribylovaa/smarthub-auth/internal/models"
	"github.com/pribylovaa/smarthub-auth/internal/service"
	"github.com/pribylovaa/smarthub-auth/internal/transport/http/httperr"
)

// AuthBearer извлекает Bearer-токен из Authorization и кладёт "сырой" токен
// в контекст. Валидности токена не требует — это дело хендлеров/RequireRole.
func AuthBearer() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")

			if auth != "" {
				const prefix = "Bearer "
				if strings.HasPrefix(auth, prefix) && len(auth) > len(prefix) {
					token := strings.TrimSpace(auth[len(prefix):])

					if token != "" {
						ctx := context.WithValue(r.Context(), ctxAuthToken, token)
						r = r.WithContext(ctx)
					}
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRole пропускает только запросы с валидным access-токеном нужной
// роли; claims кладутся в контекст. 401 — нет/невалидный токен, 403 — роль
// не подходит.
func RequireRole(svc *service.Service, role models.Role) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := TokenFromContext(r.Context())
			if !ok {
				httperr.WriteStatus(w, r, http.StatusUnauthorized, "unauthenticated", "missing bearer token")
				return
			}

			claims, err := svc.ValidateAccessToken(r.Context(), token)
			if err != nil {
				httperr.WriteError(w, r, err)
				return
			}

			if claims.Role != role {
				httperr.WriteStatus(w, r, http.StatusForbidden, "permission_denied", "permission denied")
				return
			}

			ctx := context.WithValue(r.Context(), ctxClaims, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
