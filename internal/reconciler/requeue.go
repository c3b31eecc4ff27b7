package reconciler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shaiso/relaygate/internal/telemetry"
)

const defaultRequeueBatchSize = 100

// requeueStore — подмножество ActivityRepo, нужное Requeue Worker'у.
type requeueStore interface {
	RequeueSentFailed(ctx context.Context, nodeID string, limit int) (int, error)
}

// RequeueWorker переводит activities из SENT_FAILED обратно в SCHEDULED
// батчами на каждом тике.
type RequeueWorker struct {
	store     requeueStore
	nodeID    string
	batchSize int
	logger    *slog.Logger

	// notify — опциональный колбэк, публикующий wake-hint после непустого
	// requeue-батча; nil, если AMQP отключён.
	notify func(ctx context.Context, count int)
}

// NewRequeueWorker создаёт новый RequeueWorker.
func NewRequeueWorker(store requeueStore, nodeID string, logger *slog.Logger) *RequeueWorker {
	return &RequeueWorker{
		store:     store,
		nodeID:    nodeID,
		batchSize: defaultRequeueBatchSize,
		logger:    logger,
	}
}

// SetNotifier задаёт колбэк, вызываемый после непустого requeue-батча, чтобы
// ускорить следующий тик Send Worker'а без ожидания его собственного
// polling-интервала. Латентностный хинт: его отсутствие не меняет
// корректность, только задержку до подбора requeued activities.
func (w *RequeueWorker) SetNotifier(notify func(ctx context.Context, count int)) {
	w.notify = notify
}

// Tick выполняет один requeue-батч.
func (w *RequeueWorker) Tick(ctx context.Context) error {
	n, err := w.store.RequeueSentFailed(ctx, w.nodeID, w.batchSize)
	if err != nil {
		return fmt.Errorf("requeue sent_failed: %w", err)
	}
	if n > 0 {
		telemetry.RequeuedTotal.Add(float64(n))
		w.logger.Info("requeued sent_failed activities", "count", n)
		if w.notify != nil {
			w.notify(ctx, n)
		}
	}
	return nil
}
