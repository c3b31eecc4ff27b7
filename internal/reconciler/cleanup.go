package reconciler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/relaygate/internal/repo"
	"github.com/shaiso/relaygate/internal/telemetry"
)

const defaultCleanupBatchSize = 100

// cleanupActivityStore — подмножество ActivityRepo, нужное Cleanup Worker'у.
type cleanupActivityStore interface {
	SelectCompletedExpiredJoin(ctx context.Context, now time.Time, retention time.Duration, limit int) ([]repo.ExpiredPair, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// cleanupResponseStore — подмножество ResponseRepo, нужное Cleanup Worker'у.
type cleanupResponseStore interface {
	Delete(ctx context.Context, id uuid.UUID) error
}

// CleanupWorker удаляет COMPLETED activities (и их Response) с истёкшим
// retention period. Response удаляется первым, чтобы никогда не оставить
// сироту response без activity и не нарушить foreign key.
type CleanupWorker struct {
	activities cleanupActivityStore
	responses  cleanupResponseStore
	retention  time.Duration
	batchSize  int
	logger     *slog.Logger
}

// NewCleanupWorker создаёт новый CleanupWorker.
func NewCleanupWorker(activities cleanupActivityStore, responses cleanupResponseStore, retention time.Duration, logger *slog.Logger) *CleanupWorker {
	return &CleanupWorker{
		activities: activities,
		responses:  responses,
		retention:  retention,
		batchSize:  defaultCleanupBatchSize,
		logger:     logger,
	}
}

// Tick удаляет один батч просроченных COMPLETED activities.
func (w *CleanupWorker) Tick(ctx context.Context) error {
	pairs, err := w.activities.SelectCompletedExpiredJoin(ctx, time.Now(), w.retention, w.batchSize)
	if err != nil {
		return fmt.Errorf("select completed expired: %w", err)
	}
	if len(pairs) == 0 {
		return nil
	}

	var deleted int
	for _, pair := range pairs {
		if pair.HasResponse {
			if err := w.responses.Delete(ctx, pair.ResponseID); err != nil {
				w.logger.Error("cleanup: delete response failed", "activity_id", pair.ActivityID, "error", err)
				continue
			}
		}
		if err := w.activities.Delete(ctx, pair.ActivityID); err != nil {
			w.logger.Error("cleanup: delete activity failed", "activity_id", pair.ActivityID, "error", err)
			continue
		}
		deleted++
	}
	telemetry.CleanupDeletedTotal.Add(float64(deleted))
	w.logger.Info("cleanup tick completed", "candidates", len(pairs), "deleted", deleted)
	return nil
}
