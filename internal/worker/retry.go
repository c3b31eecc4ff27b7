package worker

import (
	"context"
	"errors"
	"fmt"

	"github.com/shaiso/relaygate/internal/config"
	"github.com/shaiso/relaygate/internal/domain"
	"github.com/shaiso/relaygate/internal/repo"
	"github.com/shaiso/relaygate/internal/telemetry"
)

// RetryReply повторяет доставку reply для одной activity в REPLY_FAILED.
// Переиспользует ту же логику, что инлайновая доставка в Send Worker'е,
// поэтому поведение при повторном провале (снова REPLY_FAILED) идентично
// первому провалу. Логгер берётся из ctx, как и в deliverReply.
func RetryReply(ctx context.Context, cfg config.Config, activities ActivityUpdater, responses ResponseGetter, a *domain.Activity, nodeID string) error {
	resp, err := responses.GetByActivityID(ctx, a.ID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			// Response отсутствует — activity в REPLY_FAILED всегда должна
			// иметь сохранённый Response; лучше пропустить, чем
			// заблокировать остальные retries.
			telemetry.FromContext(ctx).Error("reply_failed activity has no stored response", "activity_id", a.ID)
			return nil
		}
		return fmt.Errorf("get response: %w", err)
	}

	return deliverReply(ctx, cfg, activities, a, resp, nodeID)
}
