package worker

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shaiso/relaygate/internal/config"
	"github.com/shaiso/relaygate/internal/domain"
	"github.com/shaiso/relaygate/internal/repo"
	"github.com/shaiso/relaygate/internal/telemetry"
)

// deliverReply отправляет сохранённый Response на ReplyURL активности и
// переводит activity в COMPLETED при успехе или в REPLY_FAILED при неудаче.
// Используется инлайново Send Worker'ом сразу после SENT и отдельно
// Retry-Reply Worker'ом для activities, зависших в REPLY_FAILED.
//
// nodeID записывается вместе со state как advisory-маркер того, какой узел
// выполнил переход; не влияет на корректность при гонке узлов, так как
// запись идемпотентна. Логгер берётся из ctx — вызывающий кладёт туда
// activity-scoped логгер через telemetry.WithLogger перед вызовом.
func deliverReply(ctx context.Context, cfg config.Config, activities ActivityUpdater, a *domain.Activity, resp *domain.Response, nodeID string) error {
	logger := telemetry.FromContext(ctx)

	reqCtx, cancel := withTimeout(ctx)
	defer cancel()

	req, err := buildReplyRequest(reqCtx, a, resp)
	if err != nil {
		return fmt.Errorf("build reply request: %w", err)
	}

	status, _, body, _, err := doRequest(req)
	if err != nil {
		logger.Warn("reply delivery failed",
			"activity_id", a.ID, "reply_url", a.ReplyURL, "error", err)
		telemetry.ReplyRequestsTotal.WithLabelValues(telemetry.OutcomeTransport).Inc()
		return markReplyFailed(ctx, activities, a.ID, nodeID)
	}

	if !cfg.IsStatusAllowed(status) {
		logger.Warn("reply delivery rejected by status",
			"activity_id", a.ID, "reply_url", a.ReplyURL,
			"status", status, "body", truncate(body, 200))
		telemetry.ReplyRequestsTotal.WithLabelValues(telemetry.OutcomeStatus).Inc()
		return markReplyFailed(ctx, activities, a.ID, nodeID)
	}
	telemetry.ReplyRequestsTotal.WithLabelValues(telemetry.OutcomeSuccess).Inc()

	if err := activities.UpdateState(ctx, a.ID, domain.StateCompleted, nodeID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("mark completed: %w", err)
	}
	logger.Info("activity completed", "activity_id", a.ID)
	return nil
}

// markReplyFailed переводит activity в REPLY_FAILED. ErrNotFound
// игнорируется: activity могла быть удалена Cleanup Worker'ом между
// лизингом и этой записью, и повторная запись в удалённую строку безопасна
// проигнорировать.
func markReplyFailed(ctx context.Context, activities ActivityUpdater, id uuid.UUID, nodeID string) error {
	if err := activities.UpdateState(ctx, id, domain.StateReplyFailed, nodeID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("mark reply_failed: %w", err)
	}
	return nil
}

func truncate(b []byte, max int) string {
	s := string(b)
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
