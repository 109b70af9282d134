package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/xela07ax/workshop-oversight-console/internal/audit"
	"github.com/xela07ax/workshop-oversight-console/internal/connectors"
	"github.com/xela07ax/workshop-oversight-console/internal/console/handler"
	"github.com/xela07ax/workshop-oversight-console/internal/console/server"
	"github.com/xela07ax/workshop-oversight-console/internal/console/service"
	"github.com/xela07ax/workshop-oversight-console/internal/engine"
	"github.com/xela07ax/workshop-oversight-console/internal/infra"
	"github.com/xela07ax/workshop-oversight-console/internal/poller"
	"github.com/xela07ax/workshop-oversight-console/internal/repository/postgres"
)

func main() {
	// 1. Конфиг и логгер
	cfg, err := infra.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger, err := infra.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync()

	// Контекст для фоновых горутин, отменяется при остановке
	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Метрики
	reg := prometheus.NewRegistry()
	metrics := engine.NewMetrics(reg)

	// 2. Доступ к бэкенду: транспорт -> надежность (limiter, breaker, retry) -> типизированный клиент
	var transport connectors.Caller = connectors.NewHTTPTransport(cfg.Backend.BaseURL, cfg.Backend.Timeout, logger,
		connectors.WithTraceID(engine.TraceIDFromContext),
	)
	if cfg.Backend.Mock {
		logger.Warn("backend.mock is on, serving built-in demo data")
		transport = connectors.NewMockBackend(cfg.Backend.MonitoringPath, cfg.Backend.APIPath, cfg.Backend.MockLatency)
	}
	caller := engine.NewReliabilityWrapper(transport, engine.ReliabilityConfig{
		Attempts:              cfg.Engine.RetryAttempts,
		CallTimeout:           cfg.Backend.Timeout,
		RateLimit:             cfg.Engine.RateLimit,
		RateBurst:             cfg.Engine.RateBurst,
		CBMaxRequests:         cfg.Engine.CBMaxRequests,
		CBInterval:            cfg.Engine.CBInterval,
		CBTimeout:             cfg.Engine.CBTimeout,
		CBConsecutiveFailures: cfg.Engine.CBConsecutiveFailures,
	}, metrics, logger)
	backend := connectors.NewClient(caller, cfg.Backend.MonitoringPath, cfg.Backend.APIPath)

	// 3. Журнал действий оператора (опционально, Postgres)
	var journal audit.Recorder = audit.Nop{}
	var auditJournal *audit.Journal
	if cfg.Database.URL != "" {
		repo, err := postgres.NewAuditRepo(cfg.Database.URL, postgres.PoolConfig{
			MaxConns: cfg.Database.MaxConns,
			MinConns: cfg.Database.MinConns,
		})
		if err != nil {
			logger.Fatal("failed to open audit database", zap.Error(err))
		}
		defer repo.Close()

		ctx, cancelPing := context.WithTimeout(appCtx, 5*time.Second)
		if err := repo.Ping(ctx); err != nil {
			logger.Fatal("audit database unreachable", zap.Error(err))
		}
		if err := repo.EnsureSchema(ctx); err != nil {
			logger.Fatal("failed to prepare audit schema", zap.Error(err))
		}
		cancelPing()

		auditJournal = audit.NewJournal(repo, logger, audit.Options{
			BufferSize:    cfg.Engine.AuditBufferSize,
			BatchSize:     cfg.Engine.AuditBatchSize,
			FlushInterval: cfg.Engine.AuditFlushInterval,
			Gauge:         metrics.AuditBufferFill,
		})
		auditJournal.Start()
		journal = auditJournal
	} else {
		logger.Info("database.url is empty, operator audit disabled")
	}

	// 4. Redis: алерты эскалаций и сигналы обновления (опционально)
	var rdb *redis.Client
	var publisher service.EscalationPublisher
	if cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()

		ctx, cancelPing := context.WithTimeout(appCtx, 5*time.Second)
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Fatal("redis unreachable", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		}
		cancelPing()

		publisher = engine.NewEscalationNotifier(rdb, infra.RedisChanEscalations, infra.RedisKeyLockEscalation,
			cfg.Redis.EscalationLockTTL, metrics, logger)
	} else {
		logger.Info("redis.addr is empty, escalation alerts disabled")
	}

	// 5. Сервисы и координаторы опроса
	settings := service.PollerSettings{
		Base: poller.Options{
			Timeout:  cfg.Polling.RequestTimeout,
			Logger:   logger,
			Recorder: metrics,
		},
		AgentsInterval:     cfg.Polling.AgentsInterval,
		ApprovalsInterval:  cfg.Polling.ApprovalsInterval,
		EvolutionsInterval: cfg.Polling.EvolutionsInterval,
		StatisticsInterval: cfg.Polling.StatisticsInterval,
		OversightInterval:  cfg.Polling.OversightInterval,
	}

	agentService := service.NewAgentService(backend, settings, cfg.Polling.HealthCheckRefreshDelay, metrics, journal, logger)
	approvalService := service.NewApprovalService(backend, settings, publisher, metrics, journal, logger)
	evolutionService := service.NewEvolutionService(backend, settings, metrics, journal, logger)
	oversightService := service.NewOversightService(backend, settings, journal, logger)

	group := poller.NewGroup()
	for _, resources := range [][]poller.Resource{
		agentService.Resources(),
		approvalService.Resources(),
		evolutionService.Resources(),
		oversightService.Resources(),
	} {
		for _, r := range resources {
			group.Add(r)
		}
	}
	resourceService := service.NewResourceService(group, journal, settings)

	if rdb != nil {
		go engine.ListenRefreshSignals(appCtx, rdb, logger, infra.RedisChanRefresh,
			func() {
				// после переподключения перечитываем все: сигналы за время разрыва потеряны
				for _, st := range group.Statuses() {
					resourceService.Refresh(appCtx, "refresh-signal", st.Resource)
				}
			},
			func(resource string) error {
				return resourceService.Refresh(appCtx, "refresh-signal", resource)
			},
		)
	}

	// 6. HTTP API консоли
	consoleServer := server.NewConsoleServer(
		logger,
		handler.NewDashboardHandler(agentService),
		handler.NewApprovalHandler(approvalService),
		handler.NewEvolutionHandler(evolutionService),
		handler.NewOversightHandler(oversightService),
		handler.NewResourceHandler(resourceService),
		promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	)

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      consoleServer,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	group.StartAll()

	// 7. Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("console API started", zap.String("addr", srv.Addr), zap.String("backend", cfg.Backend.BaseURL))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen failed", zap.Error(err))
		}
	}()

	<-stop
	logger.Info("console stopping...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
	}
	cancel()
	group.StopAll()
	if auditJournal != nil {
		auditJournal.Stop()
	}
	logger.Info("console exited properly")
}
