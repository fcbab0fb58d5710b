package middleware

import (
	"log/slog"
	"net"
	"net/http"

	logctx "github.com/pribylovaa/smarthub-auth/internal/pkg/log"
	"github.com/pribylovaa/smarthub-auth/internal/ratelimit"
	"github.com/pribylovaa/smarthub-auth/internal/transport/http/httperr"
)

// RateLimit ограничивает частоту запросов по ключу "IP + путь".
// Nil-лимитер делает мидлвар no-op (Redis не сконфигурирован).
// Отказ самого лимитера не валит запрос — auth важнее, чем счётчик.
func RateLimit(l ratelimit.Limiter) Middleware {
	return func(next http.Handler) http.Handler {
		if l == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, err := l.Allow(r.Context(), clientIP(r)+":"+r.URL.Path)
			if err != nil {
				logctx.From(r.Context()).LogAttrs(r.Context(), slog.LevelWarn, "ratelimit_unavailable",
					slog.String("err", err.Error()),
				)
				next.ServeHTTP(w, r)
				return
			}

			if !ok {
				httperr.WriteStatus(w, r, http.StatusTooManyRequests, "resource_exhausted", "too many requests")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	// За балансировщиком настоящий адрес в X-Forwarded-For не доверяем
	// по умолчанию; берём адрес соединения.
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
