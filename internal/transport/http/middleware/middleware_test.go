package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/pribylovaa/smarthub-auth/internal/config"
	"github.com/pribylovaa/smarthub-auth/internal/models"
	"github.com/pribylovaa/smarthub-auth/internal/service"
	"github.com/pribylovaa/smarthub-auth/mocks"
)

// capHandler — тестовый slog.Handler, который:
//   - аккумулирует базовые attrs, приходящие через Logger.With(...);
//   - собирает attrs из каждой записи в map[string]any;
//   - не создаёт реальных I/O, чтобы не паниковать в тестах.
type capHandler struct {
	base    []slog.Attr
	lastMsg string
	lastLvl slog.Level
	attrs   map[string]any
	count   int
}

func (h *capHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *capHandler) Handle(_ context.Context, r slog.Record) error {
	out := make(map[string]any, len(h.base)+8)

	for _, a := range h.base {
		out[a.Key] = a.Value.Any()
	}

	r.Attrs(func(a slog.Attr) bool {
		out[a.Key] = a.Value.Any()
		return true
	})

	h.count++
	h.lastMsg = r.Message
	h.lastLvl = r.Level
	h.attrs = out

	return nil
}

func (h *capHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) > 0 {
		h.base = append(h.base, attrs...)
	}

	return h
}

func (h *capHandler) WithGroup(string) slog.Handler { return h }

func makeReq(target string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	req.RemoteAddr = (&net.TCPAddr{IP: net.ParseIP("127.0.0.1"), Port: 12345}).String()
	return req
}

type apiError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

type errEnvelope struct {
	Error apiError `json:"error"`
}

func TestChain_Order(t *testing.T) {
	order := []string{}

	m1 := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			order = append(order, "m1-begin")
			next.ServeHTTP(w, r)
			order = append(order, "m1-end")
		})
	}

	m2 := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			order = append(order, "m2-begin")
			next.ServeHTTP(w, r)
			order = append(order, "m2-end")
		})
	}

	final := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
		w.WriteHeader(http.StatusTeapot)
	})

	chain := Chain(final, m1, m2)
	rr := httptest.NewRecorder()
	chain.ServeHTTP(rr, makeReq("/chain"))

	require.Equal(t, []string{"m1-begin", "m2-begin", "handler", "m2-end", "m1-end"}, order)
	require.Equal(t, http.StatusTeapot, rr.Code)
}

func TestRequestID_GenerateAndPropagate(t *testing.T) {
	var seenHeaderID string
	var seenCtxID string

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenHeaderID = r.Header.Get("X-Request-Id")
		seenCtxID, _ = RequestIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	rr := httptest.NewRecorder()
	RequestID()(h).ServeHTTP(rr, makeReq("/x"))

	require.NotEmpty(t, seenHeaderID)
	require.Len(t, seenHeaderID, 32)
	require.Equal(t, seenHeaderID, seenCtxID)
	require.Equal(t, seenHeaderID, rr.Header().Get("X-Request-Id"))
}

func TestRequestID_KeepsIncoming(t *testing.T) {
	var seenCtxID string

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenCtxID, _ = RequestIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := makeReq("/x")
	req.Header.Set("X-Request-Id", "req-from-client")

	rr := httptest.NewRecorder()
	RequestID()(h).ServeHTTP(rr, req)

	require.Equal(t, "req-from-client", seenCtxID)
	require.Equal(t, "req-from-client", rr.Header().Get("X-Request-Id"))
}

func TestAuthBearer_Extraction(t *testing.T) {
	tcs := []struct {
		name      string
		header    string
		wantToken string
		wantOK    bool
	}{
		{"no_header", "", "", false},
		{"not_bearer", "Basic abc", "", false},
		{"empty_token", "Bearer ", "", false},
		{"token_with_spaces", "Bearer   tok-123", "tok-123", true},
		{"plain_token", "Bearer tok-123", "tok-123", true},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			var gotToken string
			var gotOK bool

			h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotToken, gotOK = TokenFromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			})

			req := makeReq("/x")
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}

			AuthBearer()(h).ServeHTTP(httptest.NewRecorder(), req)

			require.Equal(t, tc.wantOK, gotOK)
			require.Equal(t, tc.wantToken, gotToken)
		})
	}
}

func TestLogging_OneLinePerRequest(t *testing.T) {
	cap := &capHandler{}
	logger := slog.New(cap)

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("ok"))
	})

	req := makeReq("/auth/login")
	req.Header.Set("X-Request-Id", "req-1")

	Logging(logger)(h).ServeHTTP(httptest.NewRecorder(), req)

	require.Equal(t, 1, cap.count)
	require.Equal(t, "http", cap.lastMsg)
	require.Equal(t, "GET", cap.attrs["method"])
	require.Equal(t, "/auth/login", cap.attrs["path"])
	require.Equal(t, int64(http.StatusCreated), cap.attrs["status"])
	require.Equal(t, "req-1", cap.attrs["request_id"])
}

func TestRecover_PanicsAre500(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom: secret detail")
	})

	rr := httptest.NewRecorder()
	require.NotPanics(t, func() {
		Recover()(h).ServeHTTP(rr, makeReq("/x"))
	})

	require.Equal(t, http.StatusInternalServerError, rr.Code)

	var body errEnvelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Equal(t, "internal", body.Error.Code)
	// Текст паники не утекает наружу.
	require.NotContains(t, body.Error.Message, "secret detail")
}

func TestTimeout_SetsDeadline(t *testing.T) {
	var hadDeadline bool

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hadDeadline = r.Context().Deadline()
		w.WriteHeader(http.StatusOK)
	})

	Timeout(time.Second)(h).ServeHTTP(httptest.NewRecorder(), makeReq("/x"))
	require.True(t, hadDeadline)
}

func TestTimeout_RespectsExistingDeadline(t *testing.T) {
	var gotDeadline time.Time

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotDeadline, _ = r.Context().Deadline()
		w.WriteHeader(http.StatusOK)
	})

	want := time.Now().Add(10 * time.Second)
	ctx, cancel := context.WithDeadline(context.Background(), want)
	defer cancel()

	req := makeReq("/x").WithContext(ctx)
	Timeout(time.Second)(h).ServeHTTP(httptest.NewRecorder(), req)

	require.WithinDuration(t, want, gotDeadline, time.Millisecond)
}

// stubLimiter — управляемый лимитер для мидлвара.
type stubLimiter struct {
	allow   bool
	err     error
	lastKey string
}

func (s *stubLimiter) Allow(_ context.Context, key string) (bool, error) {
	s.lastKey = key
	return s.allow, s.err
}

func (s *stubLimiter) Close() error { return nil }

func TestRateLimit(t *testing.T) {
	ok200 := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("nil_limiter_is_noop", func(t *testing.T) {
		rr := httptest.NewRecorder()
		RateLimit(nil)(ok200).ServeHTTP(rr, makeReq("/auth/login"))
		require.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("allowed", func(t *testing.T) {
		l := &stubLimiter{allow: true}
		rr := httptest.NewRecorder()
		RateLimit(l)(ok200).ServeHTTP(rr, makeReq("/auth/login"))
		require.Equal(t, http.StatusOK, rr.Code)
		// Ключ — IP соединения плюс путь.
		require.Equal(t, "127.0.0.1:/auth/login", l.lastKey)
	})

	t.Run("over_limit", func(t *testing.T) {
		rr := httptest.NewRecorder()
		RateLimit(&stubLimiter{allow: false})(ok200).ServeHTTP(rr, makeReq("/auth/login"))
		require.Equal(t, http.StatusTooManyRequests, rr.Code)

		var body errEnvelope
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		require.Equal(t, "resource_exhausted", body.Error.Code)
	})

	t.Run("limiter_failure_passes_through", func(t *testing.T) {
		rr := httptest.NewRecorder()
		RateLimit(&stubLimiter{err: errors.New("redis down")})(ok200).ServeHTTP(rr, makeReq("/auth/login"))
		require.Equal(t, http.StatusOK, rr.Code)
	})
}

func authSvc(t *testing.T) *service.Service {
	t.Helper()

	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	svc, err := service.New(mocks.NewMockStorage(ctrl), config.AuthConfig{
		JWTSecret:      "unit-secret",
		AccessTokenTTL: time.Minute,
		Issuer:         "smarthub",
		Audience:       []string{"smarthub-client"},
	})
	require.NoError(t, err)
	return svc
}

// issueToken подписывает access-токен той же формы, что выпускает сервис.
func issueToken(t *testing.T, role models.Role) string {
	t.Helper()

	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"uid":   uuid.NewString(),
		"email": "user@example.com",
		"name":  "Ivan Petrov",
		"role":  string(role),
		"iss":   "smarthub",
		"aud":   "smarthub-client",
		"exp":   now.Add(time.Minute).Unix(),
		"iat":   now.Unix(),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("unit-secret"))
	require.NoError(t, err)
	return token
}

func TestRequireRole(t *testing.T) {
	svc := authSvc(t)

	var seenClaims bool
	protected := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, seenClaims = ClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	h := Chain(protected, AuthBearer(), RequireRole(svc, models.RoleAdmin))

	adminToken := issueToken(t, models.RoleAdmin)
	userToken := issueToken(t, models.RoleUser)

	t.Run("no_token", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, makeReq("/users"))
		require.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("garbage_token", func(t *testing.T) {
		req := makeReq("/users")
		req.Header.Set("Authorization", "Bearer garbage")
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		require.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("wrong_role", func(t *testing.T) {
		req := makeReq("/users")
		req.Header.Set("Authorization", "Bearer "+userToken)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		require.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("admin_ok", func(t *testing.T) {
		seenClaims = false
		req := makeReq("/users")
		req.Header.Set("Authorization", "Bearer "+adminToken)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		require.Equal(t, http.StatusOK, rr.Code)
		require.True(t, seenClaims)
	})
}
