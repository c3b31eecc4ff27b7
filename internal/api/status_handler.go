package api

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/shaiso/relaygate/internal/repo"
	"github.com/shaiso/relaygate/internal/telemetry"
)

// statusResponse — тело ответа GET /message.
type statusResponse struct {
	ID    string `json:"id"`
	State string `json:"state"`
}

// Status обрабатывает GET /message?id=<uuid>: возвращает текущее state
// activity без остальных полей.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	logger := telemetry.FromContext(r.Context())

	raw := r.URL.Query().Get("id")
	if raw == "" {
		BadRequest(w, logger, "missing id query parameter")
		return
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		BadRequest(w, logger, "invalid id query parameter")
		return
	}

	a, err := h.activities.GetStatus(r.Context(), id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			NotFound(w, logger, "activity not found")
			return
		}
		InternalError(w, logger, err)
		return
	}

	JSON(w, http.StatusOK, statusResponse{
		ID:    a.ID.String(),
		State: string(a.State),
	})
}
