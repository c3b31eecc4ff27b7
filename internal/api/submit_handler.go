package api

import (
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/relaygate/internal/domain"
	"github.com/shaiso/relaygate/internal/telemetry"
)

const (
	headerURL         = "X-Url"
	headerReply       = "X-Reply"
	headerReplyMethod = "X-ReplyMethod"
	headerActivity    = "X-Activity"

	// maxSubmitBody — верхняя граница на размер входящего тела, так как
	// payload целиком буферизуется в памяти перед записью в Store.
	maxSubmitBody = 10 * 1024 * 1024
)

// Submit обрабатывает /submit (любой HTTP-метод): принимает три routing-заголовка
// и произвольный метод/тело, персистит Activity в CREATED и возвращает id.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	logger := telemetry.FromContext(r.Context())
	url := r.Header.Get(headerURL)
	replyURL := r.Header.Get(headerReply)
	replyMethod := r.Header.Get(headerReplyMethod)

	var missing []string
	if url == "" {
		missing = append(missing, headerURL)
	}
	if replyURL == "" {
		missing = append(missing, headerReply)
	}
	if replyMethod == "" {
		missing = append(missing, headerReplyMethod)
	}
	if len(missing) > 0 {
		telemetry.SubmitRejectedTotal.Inc()
		BadRequest(w, logger, "missing required routing headers: "+strings.Join(missing, ", "))
		return
	}

	headers := make(map[string]string)
	for key := range r.Header {
		if key == http.CanonicalHeaderKey(headerURL) ||
			key == http.CanonicalHeaderKey(headerReply) ||
			key == http.CanonicalHeaderKey(headerReplyMethod) {
			continue
		}
		headers[key] = r.Header.Get(key)
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxSubmitBody))
	if err != nil {
		InternalError(w, logger, err)
		return
	}

	id, err := uuid.NewUUID()
	if err != nil {
		InternalError(w, logger, err)
		return
	}

	activity := &domain.Activity{
		ID:          id,
		URL:         url,
		Method:      r.Method,
		ReplyURL:    replyURL,
		ReplyMethod: replyMethod,
		State:       domain.StateCreated,
		NodeID:      h.cfg.NodeID,
		CreatedAt:   time.Now(),
		Headers:     headers,
		Payload:     body,
		ContentType: r.Header.Get("Content-Type"),
	}

	if err := h.activities.Insert(r.Context(), activity); err != nil {
		InternalError(w, logger, err)
		return
	}

	telemetry.SubmitTotal.Inc()

	if h.notify != nil {
		h.notify(r.Context(), id)
	}

	w.Header().Set(headerActivity, id.String())
	w.WriteHeader(http.StatusAccepted)
}
