package domain

import (
	"time"

	"github.com/google/uuid"
)

// Activity — один durable end-to-end forwarding job: submit → target call →
// reply call → completion.
//
// Activity создаётся Submit Handler'ом в состоянии CREATED и дальше
// мутируется исключительно воркерами (Send, Requeue, Retry-Reply, Cleanup).
// Ни один воркер не удаляет Activity кроме Cleanup Worker, и только после
// истечения retention period.
type Activity struct {
	// ID — уникальный идентификатор activity, назначается при submit.
	ID uuid.UUID `json:"id"`

	// URL — абсолютный target URL, на который выполняется запрос.
	URL string `json:"url"`

	// Method — HTTP-метод запроса к target.
	Method string `json:"method"`

	// ReplyURL — URL, на который будет доставлен ответ target.
	ReplyURL string `json:"reply_url"`

	// ReplyMethod — HTTP-метод для доставки ответа на ReplyURL.
	ReplyMethod string `json:"reply_method"`

	// State — текущее состояние activity (см. state.go).
	State State `json:"state"`

	// NodeID — идентификатор узла, который сейчас ведёт (leases) эту запись.
	// Advisory-поле: используется только для наблюдаемости, не для
	// эксклюзивных блокировок.
	NodeID string `json:"node_id,omitempty"`

	// CreatedAt — время создания activity, неизменяемо после записи.
	CreatedAt time.Time `json:"created_at"`

	// Headers — заголовки исходного запроса (без трёх routing-заголовков),
	// сериализованные в JSON.
	Headers map[string]string `json:"headers,omitempty"`

	// Payload — тело исходного запроса, как есть.
	Payload []byte `json:"-"`

	// ContentType — MIME-тип тела исходного запроса.
	ContentType string `json:"content_type,omitempty"`
}

// CanLease возвращает true, если Send Worker имеет право взять activity
// в работу из текущего состояния.
func (a *Activity) CanLease() bool {
	return a.State == StateCreated || a.State == StateScheduled
}

// IsExpired проверяет, истёк ли retention period для завершённой activity.
func (a *Activity) IsExpired(now time.Time, retention time.Duration) bool {
	return a.State == StateCompleted && now.Sub(a.CreatedAt) > retention
}
