package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Метрики экспортируются на /metrics каждым процессом (api, send-worker,
// reconciler). Метки node_id у них нет: каждый процесс отдаёт только
// собственные значения счётчиков.

var (
	// SubmitTotal — количество принятых /submit запросов.
	SubmitTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "relaygate_submit_total",
		Help: "Total number of accepted /submit requests",
	})

	// SubmitRejectedTotal — количество отклонённых /submit запросов
	// (отсутствуют routing-заголовки).
	SubmitRejectedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "relaygate_submit_rejected_total",
		Help: "Total number of /submit requests rejected for missing routing headers",
	})

	// SendTickDuration — длительность одного тика Send Worker'а.
	SendTickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "relaygate_send_tick_duration_seconds",
		Help:    "Duration of a single Send Worker tick",
		Buckets: prometheus.DefBuckets,
	})

	// TargetRequestsTotal — вызовы target URL по исходу.
	TargetRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relaygate_target_requests_total",
		Help: "Target calls by outcome",
	}, []string{"outcome"})

	// ReplyRequestsTotal — вызовы reply URL по исходу.
	ReplyRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relaygate_reply_requests_total",
		Help: "Reply calls by outcome",
	}, []string{"outcome"})

	// RequeuedTotal — общее число activity, переведённых Requeue Worker'ом
	// из SENT_FAILED в SCHEDULED (накапливается по всем тикам).
	RequeuedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "relaygate_requeued_total",
		Help: "Total number of activities moved from SENT_FAILED to SCHEDULED",
	})

	// RetryReplyAttemptsTotal — попытки Retry-Reply Worker'а по исходу.
	RetryReplyAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relaygate_retry_reply_attempts_total",
		Help: "Retry-Reply Worker attempts by outcome",
	}, []string{"outcome"})

	// CleanupDeletedTotal — число удалённых просроченных activity.
	CleanupDeletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "relaygate_cleanup_deleted_total",
		Help: "Total number of expired completed activities deleted by the cleanup worker",
	})

	// WakeHintsPublishedTotal / WakeHintsConsumedTotal — наблюдаемость
	// AMQP wake-hint канала; остаются на нуле, если AMQP отключён.
	WakeHintsPublishedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "relaygate_wake_hints_published_total",
		Help: "Total number of wake hints published to RabbitMQ",
	})
	WakeHintsConsumedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "relaygate_wake_hints_consumed_total",
		Help: "Total number of wake hints consumed from RabbitMQ",
	})
)

// Outcome labels used with TargetRequestsTotal / ReplyRequestsTotal /
// RetryReplyAttemptsTotal.
const (
	OutcomeSuccess   = "success"
	OutcomeStatus    = "bad_status"
	OutcomeTransport = "transport_error"
)
