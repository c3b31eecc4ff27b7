package api

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shaiso/relaygate/internal/config"
	"github.com/shaiso/relaygate/internal/domain"
)

// activityStore — подмножество ActivityRepo, нужное Handler'у. Интерфейс
// позволяет подменять Store Gateway на in-memory fake в тестах, как
// activityStore/responseStore в internal/worker.
type activityStore interface {
	Insert(ctx context.Context, a *domain.Activity) error
	GetStatus(ctx context.Context, id uuid.UUID) (domain.Activity, error)
}

// Handler — главный обработчик API с зависимостями.
type Handler struct {
	activities activityStore
	cfg        config.Config
	logger     *slog.Logger

	// notify — опциональный колбэк, публикующий wake-hint после успешной
	// вставки; nil, если AMQP отключён.
	notify func(ctx context.Context, activityID uuid.UUID)
}

// Config — конфигурация для создания Handler.
type Config struct {
	Activities activityStore
	AppConfig  config.Config
	Logger     *slog.Logger
}

// NewHandler создаёт новый Handler.
func NewHandler(cfg Config) *Handler {
	return &Handler{
		activities: cfg.Activities,
		cfg:        cfg.AppConfig,
		logger:     cfg.Logger,
	}
}

// SetNotifier задаёт колбэк, вызываемый после успешного submit, чтобы
// ускорить первый Send-тик без ожидания его собственного интервала.
func (h *Handler) SetNotifier(notify func(ctx context.Context, activityID uuid.UUID)) {
	h.notify = notify
}
