// relaygate-send — запускает Send Worker: лизингует leasable activities,
// вызывает target и инлайново доставляет reply.
//
// Несколько экземпляров безопасно работают параллельно — координация
// только через Store Gateway.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shaiso/relaygate/internal/config"
	"github.com/shaiso/relaygate/internal/mq"
	"github.com/shaiso/relaygate/internal/repo"
	"github.com/shaiso/relaygate/internal/telemetry"
	"github.com/shaiso/relaygate/internal/worker"
)

func main() {
	logger := telemetry.SetupLogger()
	logger.Info("starting relaygate-send")

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

	sendWorker := worker.NewSendWorker(cfg, activities, responses, logger)

	var mqConn *mq.Connection
	if cfg.RabbitMQURL != "" {
		mqConn, err = mq.NewConnection(cfg.RabbitMQURL, logger)
		if err != nil {
			logger.Warn("RabbitMQ not available, running in polling-only mode", "error", err)
			mqConn = nil
		} else {
			defer mqConn.Close()
			if err := mq.SetupTopology(ctx, mqConn); err != nil {
				logger.Warn("failed to setup topology", "error", err)
			}

			publisher := mq.NewPublisher(mqConn, logger)
			sendWorker.SetNotifier(func(notifyCtx context.Context, activityID uuid.UUID) {
				if err := publisher.PublishActivityWake(notifyCtx, activityID); err != nil {
					logger.Warn("failed to publish wake hint", "error", err)
					return
				}
				telemetry.WakeHintsPublishedTotal.Inc()
			})

			// Consuming wake hints только ускоряет обнаружение работы между
			// обычными тиками; polling остаётся authoritative, поэтому
			// ошибки обработчика намеренно не nack'ают сообщение в DLQ.
			consumer := mq.NewConsumer(mqConn, logger, mq.ConsumerConfig{
				Queue:    string(mq.QueueActivitiesWakeup),
				Prefetch: 10,
				Handler: func(handlerCtx context.Context, delivery *mq.Delivery) error {
					telemetry.WakeHintsConsumedTotal.Inc()
					if err := sendWorker.Tick(handlerCtx); err != nil && !errors.Is(err, worker.ErrNoActivity) {
						logger.Warn("send worker tick from wake hint failed", "error", err)
					}
					return nil
				},
			})
			go func() {
				if err := consumer.Start(ctx); err != nil && ctx.Err() == nil {
					logger.Warn("wake hint consumer stopped", "error", err)
				}
			}()
		}
	}

	go sendWorker.Run(ctx, cfg.SendInterval)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.Handle("/metrics", promhttp.Handler())

	port := ":8082"
	if v := os.Getenv("SEND_PORT"); v != "" {
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
	logger.Info("relaygate-send stopped")
}
