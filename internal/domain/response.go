package domain

import "github.com/google/uuid"

// Response — сохранённый результат успешного вызова target, который
// позже воспроизводится на reply URL.
//
// Response создаётся ровно один раз — при первом успешном вызове target
// (переход Activity в SENT) — и никогда не перезаписывается: все
// последующие попытки доставки reply (включая Retry-Reply Worker)
// используют эту же запись.
type Response struct {
	// ID — уникальный идентификатор response.
	ID uuid.UUID `json:"id"`

	// ResponseID — Activity.ID, которому принадлежит этот response.
	ResponseID uuid.UUID `json:"response_id"`

	// StatusCode — HTTP-статус, возвращённый target.
	StatusCode int `json:"status_code"`

	// Headers — заголовки ответа target, сериализованные в JSON.
	Headers map[string]string `json:"headers,omitempty"`

	// Payload — тело ответа target, как есть.
	Payload []byte `json:"-"`

	// ContentType — MIME-тип тела ответа target.
	ContentType string `json:"content_type,omitempty"`
}
