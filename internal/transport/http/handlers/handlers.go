// handlers содержит REST-эндпоинты сервиса. Здесь выполняется только
// декодирование DTO, лёгкая валидация формы запроса и маппинг результатов
// и ошибок сервисного слоя в HTTP. Бизнес-логика — в пакете service.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/pribylovaa/smarthub-auth/internal/service"
	"github.com/pribylovaa/smarthub-auth/internal/transport/http/httperr"
)

// Handlers агрегирует зависимости REST-слоя.
type Handlers struct {
	Service *service.Service
}

func New(s *service.Service) *Handlers {
	return &Handlers{Service: s}
}

// writeJSON — единый ответ JSON с нужным Content-Type.
// Ошибки выводим через httperr.WriteError.
func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

// decodeStrict — строгий JSON-декодер: запрещаем неизвестные поля.
func decodeStrict(r *http.Request, value any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(value)
}

// writeBadRequest — локальная ошибка парсинга/формы запроса.
func writeBadRequest(w http.ResponseWriter, r *http.Request, message string) {
	httperr.WriteStatus(w, r, http.StatusBadRequest, "invalid_argument", message)
}
