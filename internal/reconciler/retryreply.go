package reconciler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shaiso/relaygate/internal/config"
	"github.com/shaiso/relaygate/internal/domain"
	"github.com/shaiso/relaygate/internal/telemetry"
	"github.com/shaiso/relaygate/internal/worker"
)

// retryReplyStore — подмножество ActivityRepo, нужное Retry-Reply Worker'у
// для выборки кандидата; доставка использует worker.ActivityUpdater.
type retryReplyStore interface {
	worker.ActivityUpdater
	SelectEarliestByStates(ctx context.Context, states []domain.State, limit int) ([]domain.Activity, error)
}

// RetryReplyWorker подбирает самую раннюю activity в REPLY_FAILED (limit 1)
// и повторяет доставку её уже сохранённого Response. В отличие от Send
// Worker'а, запрос к target никогда не воспроизводится заново — Response,
// сохранённый при первом SENT, авторитетен.
type RetryReplyWorker struct {
	cfg        config.Config
	activities retryReplyStore
	responses  worker.ResponseGetter
	logger     *slog.Logger
}

// NewRetryReplyWorker создаёт новый RetryReplyWorker.
func NewRetryReplyWorker(cfg config.Config, activities retryReplyStore, responses worker.ResponseGetter, logger *slog.Logger) *RetryReplyWorker {
	return &RetryReplyWorker{
		cfg:        cfg,
		activities: activities,
		responses:  responses,
		logger:     logger,
	}
}

// Tick выбирает не более одной REPLY_FAILED activity и повторяет доставку
// её reply.
func (w *RetryReplyWorker) Tick(ctx context.Context) error {
	candidates, err := w.activities.SelectEarliestByStates(ctx, []domain.State{domain.StateReplyFailed}, 1)
	if err != nil {
		return fmt.Errorf("select reply_failed: %w", err)
	}
	if len(candidates) == 0 {
		return nil
	}

	a := &candidates[0]
	logger := telemetry.WithActivityID(telemetry.WithNodeID(w.logger, w.cfg.NodeID), a.ID.String())
	ctx = telemetry.WithLogger(ctx, logger)
	if err := worker.RetryReply(ctx, w.cfg, w.activities, w.responses, a, w.cfg.NodeID); err != nil {
		telemetry.RetryReplyAttemptsTotal.WithLabelValues(telemetry.OutcomeTransport).Inc()
		return fmt.Errorf("retry-reply for activity %s: %w", a.ID, err)
	}
	telemetry.RetryReplyAttemptsTotal.WithLabelValues(telemetry.OutcomeSuccess).Inc()
	return nil
}
