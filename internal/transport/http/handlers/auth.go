package handlers

import (
	"errors"
	"net/http"

	"github.com/pribylovaa/smarthub-auth/internal/service"
	"github.com/pribylovaa/smarthub-auth/internal/transport/http/httperr"
	"github.com/pribylovaa/smarthub-auth/internal/transport/http/middleware"
	"github.com/pribylovaa/smarthub-auth/internal/transport/http/models"
)

// Register регистрирует аккаунт и возвращает первую сессию.
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var in models.RegisterRequest
	if err := decodeStrict(r, &in); err != nil {
		writeBadRequest(w, r, "invalid request body")
		return
	}

	if in.ConfirmPassword != in.Password {
		writeBadRequest(w, r, "passwords do not match")
		return
	}

	session, err := h.Service.RegisterUser(r.Context(), service.RegisterParams{
		FirstName:       in.FirstName,
		LastName:        in.LastName,
		Email:           in.Email,
		Password:        in.Password,
		ProfileImageURL: in.ProfileImageURL,
	})
	if err != nil {
		httperr.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, models.SessionFromModel(session))
}

// Login аутентифицирует аккаунт и возвращает новую сессию (ротация).
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var in models.LoginRequest
	if err := decodeStrict(r, &in); err != nil {
		writeBadRequest(w, r, "invalid request body")
		return
	}

	session, err := h.Service.LoginUser(r.Context(), in.Email, in.Password)
	if err != nil {
		httperr.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, models.SessionFromModel(session))
}

// Refresh обменивает refresh-секрет на новую сессию.
func (h *Handlers) Refresh(w http.ResponseWriter, r *http.Request) {
	var in models.RefreshRequest
	if err := decodeStrict(r, &in); err != nil {
		writeBadRequest(w, r, "invalid request body")
		return
	}

	session, err := h.Service.RefreshSession(r.Context(), in.RefreshToken)
	if err != nil {
		httperr.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, models.SessionFromModel(session))
}

// Logout отзывает сессию по refresh-секрету.
//
// Запасной путь: если секрет не подошёл, но запрос несёт валидный
// access-токен, сессия отзывается по ID аккаунта из claims — клиент
// с протухшим секретом всё равно должен уметь разлогиниться.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	var in models.LogoutRequest
	if err := decodeStrict(r, &in); err != nil {
		writeBadRequest(w, r, "invalid request body")
		return
	}

	err := h.Service.RevokeSession(r.Context(), in.RefreshToken)
	if err != nil && errors.Is(err, service.ErrInvalidToken) {
		if token, ok := middleware.TokenFromContext(r.Context()); ok {
			if claims, verr := h.Service.ValidateAccessToken(r.Context(), token); verr == nil {
				err = h.Service.RevokeSessionByUserID(r.Context(), claims.UserID)
			}
		}
	}
	if err != nil {
		httperr.WriteError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
