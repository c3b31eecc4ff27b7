package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/relaygate/internal/config"
	"github.com/shaiso/relaygate/internal/domain"
	"github.com/shaiso/relaygate/internal/repo"
	"github.com/shaiso/relaygate/internal/telemetry"
)

// SendWorker лизингует самую раннюю leasable activity на каждом тике,
// выполняет запрос к target и инлайново доставляет ответ на reply URL.
// Stateless: вся координация — через Store Gateway, что позволяет
// запускать произвольное число экземпляров параллельно.
type SendWorker struct {
	cfg        config.Config
	activities activityStore
	responses  responseStore
	logger     *slog.Logger

	// notify — опциональный колбэк для публикации wake-hint после
	// SENT_FAILED; nil, если AMQP отключён.
	notify func(ctx context.Context, activityID uuid.UUID)
}

// NewSendWorker создаёт новый SendWorker.
func NewSendWorker(cfg config.Config, activities *repo.ActivityRepo, responses *repo.ResponseRepo, logger *slog.Logger) *SendWorker {
	return &SendWorker{
		cfg:        cfg,
		activities: activities,
		responses:  responses,
		logger:     logger,
	}
}

// SetNotifier задаёт колбэк, вызываемый после перевода activity в
// SENT_FAILED. relaygate-send публикует из него wake-hint в очередь
// activities.wakeup, которую читает только Send Worker; Requeue Worker этот
// хинт не получает, и activity возвращается в SCHEDULED по его обычному
// интервалу. Отсутствие колбэка не меняет корректность.
func (w *SendWorker) SetNotifier(notify func(ctx context.Context, activityID uuid.UUID)) {
	w.notify = notify
}

// Run запускает бесконечный цикл тиков с заданным интервалом до отмены ctx.
func (w *SendWorker) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.Tick(ctx); err != nil && !errors.Is(err, ErrNoActivity) {
				w.logger.Error("send worker tick failed", "error", err)
			}
		}
	}
}

// Tick выполняет один шаг: лизинг → вызов target → сохранение результата →
// инлайновая доставка reply. Возвращает ErrNoActivity, если нечего
// лизинговать — это не ошибка обработки.
func (w *SendWorker) Tick(ctx context.Context) error {
	start := time.Now()
	defer func() { telemetry.SendTickDuration.Observe(time.Since(start).Seconds()) }()

	a, err := w.activities.LeaseEarliest(ctx, w.cfg.NodeID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrNoActivity
		}
		return fmt.Errorf("lease: %w", err)
	}

	logger := telemetry.WithActivityID(telemetry.WithNodeID(w.logger, w.cfg.NodeID), a.ID.String())
	ctx = telemetry.WithLogger(ctx, logger)

	resp, err := w.callTarget(ctx, a)
	if err != nil {
		telemetry.TargetRequestsTotal.WithLabelValues(targetOutcome(err)).Inc()
		if markErr := w.activities.UpdateState(ctx, a.ID, domain.StateSentFailed, w.cfg.NodeID); markErr != nil && !errors.Is(markErr, repo.ErrNotFound) {
			return fmt.Errorf("mark sent_failed: %w", markErr)
		}
		if w.notify != nil {
			w.notify(ctx, a.ID)
		}
		return nil
	}
	telemetry.TargetRequestsTotal.WithLabelValues(telemetry.OutcomeSuccess).Inc()

	if err := w.responses.InsertAndMarkSent(ctx, resp, a.ID, w.cfg.NodeID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("persist response: %w", err)
	}
	logger.Info("target call succeeded", "status", resp.StatusCode)

	return deliverReply(ctx, w.cfg, w.activities, a, resp, w.cfg.NodeID)
}

// callTarget выполняет запрос к target URL и строит Response из результата.
// Возвращает ErrTransport или ErrStatus; в обоих случаях вызывающий
// переводит activity в SENT_FAILED. Ошибка статуса логируется здесь, со
// статусом и телом ответа, пока они ещё доступны — тем же способом, каким
// deliverReply логирует провал доставки reply. Логгер берётся из ctx.
func (w *SendWorker) callTarget(ctx context.Context, a *domain.Activity) (*domain.Response, error) {
	logger := telemetry.FromContext(ctx)

	reqCtx, cancel := withTimeout(ctx)
	defer cancel()

	req, err := buildTargetRequest(reqCtx, a)
	if err != nil {
		return nil, fmt.Errorf("build target request: %w", err)
	}

	status, headers, body, contentType, err := doRequest(req)
	if err != nil {
		logger.Warn("target call failed", "error", err)
		return nil, err
	}
	if !w.cfg.IsStatusAllowed(status) {
		logger.Warn("target call rejected by status",
			"status", status, "body", truncate(body, 200))
		return nil, fmt.Errorf("%w: got %d", ErrStatus, status)
	}

	return &domain.Response{
		ID:          uuid.Must(uuid.NewUUID()),
		ResponseID:  a.ID,
		StatusCode:  status,
		Headers:     headers,
		Payload:     body,
		ContentType: contentType,
	}, nil
}

// targetOutcome классифицирует ошибку callTarget для лейбла outcome в
// relaygate_target_requests_total.
func targetOutcome(err error) string {
	if errors.Is(err, ErrStatus) {
		return telemetry.OutcomeStatus
	}
	return telemetry.OutcomeTransport
}
