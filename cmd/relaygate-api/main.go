// relaygate-api — принимает submit/status запросы внешнего контракта
// прокси и персистит их в Store Gateway.
//
// API — единственный writer в CREATED: дальнейшие переходы принадлежат
// воркерам.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shaiso/relaygate/internal/api"
	"github.com/shaiso/relaygate/internal/config"
	"github.com/shaiso/relaygate/internal/mq"
	"github.com/shaiso/relaygate/internal/repo"
	"github.com/shaiso/relaygate/internal/telemetry"
)

func main() {
	logger := telemetry.SetupLogger()
	logger.Info("starting relaygate-api")

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

	handler := api.NewHandler(api.Config{
		Activities: activities,
		AppConfig:  cfg,
		Logger:     logger,
	})

	// RabbitMQ — чисто опциональный wake-hint канал; отсутствие брокера
	// не мешает Submit работать, так как воркеры всё равно опрашивают
	// Store Gateway.
	if cfg.RabbitMQURL != "" {
		conn, err := mq.NewConnection(cfg.RabbitMQURL, logger)
		if err != nil {
			logger.Warn("RabbitMQ not available, wake hints disabled", "error", err)
		} else {
			defer conn.Close()
			if err := mq.SetupTopology(ctx, conn); err != nil {
				logger.Warn("failed to setup topology", "error", err)
			}
			publisher := mq.NewPublisher(conn, logger)
			handler.SetNotifier(func(notifyCtx context.Context, activityID uuid.UUID) {
				if err := publisher.PublishActivityWake(notifyCtx, activityID); err != nil {
					logger.Warn("failed to publish wake hint", "error", err)
					return
				}
				telemetry.WakeHintsPublishedTotal.Inc()
			})
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.Handle("/metrics", promhttp.Handler())
	handler.RegisterRoutes(mux)

	addr := ":" + strconv.Itoa(cfg.ListenPort)
	server := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		logger.Info("listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
	logger.Info("stopped")
}
