// Package app собирает сервис из хранилищ, воркеров и потребителей Kafka
// и управляет его жизненным циклом.
package app

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	healthcheck "github.com/vladislavdragonenkov/commerce/internal/health"
	"github.com/vladislavdragonenkov/commerce/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/commerce/internal/metrics"
	"github.com/vladislavdragonenkov/commerce/internal/service/consumer"
	"github.com/vladislavdragonenkov/commerce/internal/service/outbox"
	"github.com/vladislavdragonenkov/commerce/internal/service/ranking"
	"github.com/vladislavdragonenkov/commerce/internal/version"
)

func Run(ctx context.Context, cfg Config) error {
	logger := log.WithField("component", "app")

	deps, err := NewDependencies(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer deps.Close()

	sagaMetrics := metrics.NewSagaMetrics()

	// Kafka опционален: без брокеров outbox копит записи, потребители не стартуют.
	kafkaProducer, _ := initKafkaProducer(cfg.KafkaBrokers, logger)

	_, reconciler := createOrchestrator(deps, sagaMetrics)
	logger.Info("order pipeline initialized")

	var wg sync.WaitGroup
	runWorker := func(name string, run func(context.Context)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			run(ctx)
			logger.WithField("worker", name).Info("worker stopped")
		}()
	}

	if kafkaProducer != nil {
		publisher := kafka.NewOutboxPublisher(kafkaProducer, "")
		dlqPublisher := kafka.NewOutboxPublisher(kafkaProducer, kafka.TopicDeadLetterQueue)
		outboxWorker := outbox.NewWorker(
			deps.Outbox,
			publisher,
			outbox.WithDLQPublisher(dlqPublisher),
		)
		runWorker("outbox", outboxWorker.Run)
	}

	runWorker("gateway-reconciler", reconciler.Run)
	runWorker("dedup-cleanup", consumer.NewCleanupWorker(deps.Consumed).Run)
	runWorker("ranking-aggregator", ranking.NewAggregator(deps.Metrics, deps.PeriodRankings).Run)

	var consumers []*kafka.Consumer
	if cfg.KafkaBrokers != "" {
		consumers, err = initConsumers(cfg, deps, kafkaProducer, logger)
		if err != nil {
			logger.WithError(err).Warn("failed to start kafka consumers, continuing without them")
		}
		for _, c := range consumers {
			if err := c.Start(ctx); err != nil {
				logger.WithError(err).Warn("failed to start kafka consumer")
			}
		}
	}

	healthHandler := healthcheck.NewHandler(version.GetVersion())
	if store := deps.Store(); store != nil {
		healthHandler.RegisterChecker("postgres", healthcheck.NewSimpleChecker("postgres", func() error {
			checkCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return store.Ping(checkCtx)
		}))
	}
	if rdb := deps.Redis(); rdb != nil {
		healthHandler.RegisterChecker("redis", healthcheck.NewSimpleChecker("redis", func() error {
			checkCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return rdb.Ping(checkCtx).Err()
		}))
	}

	metricsSrv := startMetricsServer(cfg.MetricsAddr, logger, healthHandler)

	logger.WithField("version", version.String()).Info("commerce service started")

	<-ctx.Done()
	logger.Info("shutdown signal received, stopping workers")

	stopConsumers(consumers, logger)
	wg.Wait()
	closeKafka(kafkaProducer, logger)
	shutdownHTTP(metricsSrv, logger)

	return ctx.Err()
}

// startMetricsServer запускает HTTP-обработчик /metrics и health probes.
func startMetricsServer(addr string, logger *log.Entry, healthHandler *healthcheck.Handler) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", healthHandler)
	mux.HandleFunc("/livez", healthcheck.LivenessHandler)
	mux.HandleFunc("/readyz", healthHandler.ReadinessHandler)

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		logger.Infof("метрики доступны по адресу %s/metrics", addr)
		logger.Infof("health checks: %s/healthz, %s/livez, %s/readyz", addr, addr, addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Warn("metrics server failed")
		}
	}()

	return srv
}

// shutdownHTTP аккуратно останавливает HTTP-сервер.
func shutdownHTTP(srv *http.Server, logger *log.Entry) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Warn("metrics shutdown with error")
	}
}
