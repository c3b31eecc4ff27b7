package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
)

// ErrorBody — тело ошибки, отдаваемое клиенту: "reference" — свежий UUID,
// который также попадает в лог, чтобы оператор мог сопоставить жалобу
// пользователя с конкретной строкой лога.
type ErrorBody struct {
	Message   string `json:"message"`
	Reference string `json:"reference"`
}

// JSON отправляет произвольный JSON-ответ.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError формирует свежий reference, логирует его рядом с сообщением
// и message, и отправляет {message, reference} с данным статусом.
func writeError(w http.ResponseWriter, logger *slog.Logger, status int, message string, logArgs ...any) {
	reference := uuid.NewString()
	logger.Error(message, append(logArgs, "reference", reference)...)
	JSON(w, status, ErrorBody{Message: message, Reference: reference})
}

// BadRequest отправляет 400 с {message, reference} — например, при
// отсутствии обязательных routing-заголовков.
func BadRequest(w http.ResponseWriter, logger *slog.Logger, message string) {
	writeError(w, logger, http.StatusBadRequest, message)
}

// NotFound отправляет 404 с {message, reference}.
func NotFound(w http.ResponseWriter, logger *slog.Logger, message string) {
	writeError(w, logger, http.StatusNotFound, message)
}

// InternalError отправляет 500 с {message, reference}, логируя
// underlying err рядом с reference.
func InternalError(w http.ResponseWriter, logger *slog.Logger, err error) {
	writeError(w, logger, http.StatusInternalServerError, "internal server error", "error", err)
}
