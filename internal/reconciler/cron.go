package reconciler

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Ticker — общий интерфейс тика для Requeue/Retry-Reply/Cleanup воркеров.
type Ticker interface {
	Tick(ctx context.Context) error
}

// Driver запускает набор воркеров на фиксированных интервалах через
// robfig/cron/v3. По умолчанию cron запускает due entry в новой горутине
// независимо от того, вернулся ли предыдущий запуск того же entry, поэтому
// Driver оборачивает каждый job в cron.SkipIfStillRunning: если тик ещё не
// вернулся к моменту следующего срабатывания, следующий просто пропускается
// вместо того, чтобы выполняться параллельно с собой.
type Driver struct {
	cron   *cron.Cron
	logger *slog.Logger
}

// NewDriver создаёт Driver.
func NewDriver(logger *slog.Logger) *Driver {
	return &Driver{
		cron:   cron.New(cron.WithChain(cron.SkipIfStillRunning(cronLogger{logger}))),
		logger: logger,
	}
}

// cronLogger адаптирует *slog.Logger к cron.Logger, чтобы
// SkipIfStillRunning логировал через тот же handler, что и остальной код,
// а не через cron.DefaultLogger на пакете log.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Info(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, append(keysAndValues, "error", err)...)
}

// Register подключает worker к расписанию вида "@every 5s". Ошибка
// регистрации — это ошибка конфигурации, а не worker'а, поэтому паникует
// при старте, а не скрывается в логах.
func (d *Driver) Register(ctx context.Context, name, spec string, w Ticker) {
	_, err := d.cron.AddFunc(spec, func() {
		if err := w.Tick(ctx); err != nil {
			d.logger.Error("reconciler tick failed", "worker", name, "error", err)
		}
	})
	if err != nil {
		panic("reconciler: invalid cron spec " + spec + " for " + name + ": " + err.Error())
	}
}

// Start запускает все зарегистрированные jobs в фоновых горутинах cron.
func (d *Driver) Start() {
	d.cron.Start()
}

// Stop дожидается завершения текущих тиков и останавливает диспетчер.
func (d *Driver) Stop(ctx context.Context) {
	stopCtx := d.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
}
