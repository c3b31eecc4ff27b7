package worker

import (
	"context"

	"github.com/google/uuid"
	"github.com/shaiso/relaygate/internal/domain"
)

// ActivityUpdater — подмножество ActivityRepo, достаточное для перевода
// activity в новое состояние. Используется и внутри пакета, и Retry-Reply
// Worker'ом из пакета reconciler.
type ActivityUpdater interface {
	UpdateState(ctx context.Context, id uuid.UUID, state domain.State, nodeID string) error
}

// activityStore — то, что нужно Send Worker'у: лизинг плюс обновление
// состояния. Интерфейс позволяет подменять Store Gateway на in-memory
// fake в тестах.
type activityStore interface {
	ActivityUpdater
	LeaseEarliest(ctx context.Context, nodeID string) (*domain.Activity, error)
}

// responseStore — подмножество ResponseRepo, нужное Send Worker'у.
type responseStore interface {
	InsertAndMarkSent(ctx context.Context, resp *domain.Response, activityID uuid.UUID, nodeID string) error
}

// ResponseGetter — подмножество ResponseRepo, нужное Retry-Reply Worker'у:
// он не создаёт новых Response, только читает уже сохранённый.
type ResponseGetter interface {
	GetByActivityID(ctx context.Context, activityID uuid.UUID) (*domain.Response, error)
}
