// relaygate-reconciler — запускает Requeue, Retry-Reply и Cleanup воркеры
// на фиксированных интервалах.
//
// В отличие от планировщика, унаследованного от прежней системы, здесь нет
// лидерства через pg_try_advisory_lock: все три воркера делают
// идемпотентные bulk-переходы, так что несколько экземпляров-реконсилеров
// могут безопасно тикать одновременно.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shaiso/relaygate/internal/config"
	"github.com/shaiso/relaygate/internal/mq"
	"github.com/shaiso/relaygate/internal/reconciler"
	"github.com/shaiso/relaygate/internal/repo"
	"github.com/shaiso/relaygate/internal/telemetry"
)

func main() {
	logger := telemetry.SetupLogger()
	logger.Info("starting relaygate-reconciler")

	cfg := config.Load()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	pool, err := repo.NewPool(ctx, cfg.DBURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("database connected")

	activities := repo.NewActivityRepo(pool)
	responses := repo.NewResponseRepo(pool)

	requeueWorker := reconciler.NewRequeueWorker(activities, cfg.NodeID, logger)

	if cfg.RabbitMQURL != "" {
		mqConn, err := mq.NewConnection(cfg.RabbitMQURL, logger)
		if err != nil {
			logger.Warn("RabbitMQ not available, running in polling-only mode", "error", err)
		} else {
			defer mqConn.Close()
			if err := mq.SetupTopology(ctx, mqConn); err != nil {
				logger.Warn("failed to setup topology", "error", err)
			}

			publisher := mq.NewPublisher(mqConn, logger)
			requeueWorker.SetNotifier(func(notifyCtx context.Context, count int) {
				if err := publisher.PublishActivityRequeued(notifyCtx, count); err != nil {
					logger.Warn("failed to publish requeue hint", "error", err)
					return
				}
				telemetry.WakeHintsPublishedTotal.Inc()
			})
		}
	}

	driver := reconciler.NewDriver(logger)
	driver.Register(ctx, "requeue", cronSpec(cfg.RequeueInterval), requeueWorker)
	driver.Register(ctx, "retry-reply", cronSpec(cfg.RetryReplyInterval), reconciler.NewRetryReplyWorker(cfg, activities, responses, logger))
	driver.Register(ctx, "cleanup", cronSpec(cfg.CleanupInterval), reconciler.NewCleanupWorker(activities, responses, cfg.RetentionPeriod, logger))
	driver.Start()

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.Handle("/metrics", promhttp.Handler())

	port := ":8083"
	if v := os.Getenv("RECONCILER_PORT"); v != "" {
		port = ":" + v
	}

	go func() {
		logger.Info("listening", "addr", port)
		if err := http.ListenAndServe(port, mux); err != nil {
			logger.Error("http server error", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	driver.Stop(context.Background())
	logger.Info("relaygate-reconciler stopped")
}

// cronSpec строит "@every <duration>" spec из интервала конфигурации.
func cronSpec(d time.Duration) string {
	return "@every " + d.String()
}
