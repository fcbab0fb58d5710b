package handlers

import (
	"net/http"

	"github.com/pribylovaa/smarthub-auth/internal/transport/http/httperr"
	"github.com/pribylovaa/smarthub-auth/internal/transport/http/models"
)

// ListUsers — админский листинг аккаунтов. Доступ ограничивает
// middleware.RequireRole на уровне роутера.
func (h *Handlers) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Service.ListUsers(r.Context())
	if err != nil {
		httperr.WriteError(w, r, err)
		return
	}

	out := make([]models.UserSummary, 0, len(users))
	for _, u := range users {
		out = append(out, models.UserSummaryFromModel(u))
	}

	writeJSON(w, http.StatusOK, out)
}
