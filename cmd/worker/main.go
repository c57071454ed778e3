// worker procesa las tareas del fiado: barrido de vencimientos programado y refresco del cupo cacheado.
//
// Uso: go run ./cmd/worker
// Requiere STORE_DRIVER=postgres y REDIS_ADDR.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/jhoicas/Ventas-api/internal/application/credit"
	"github.com/jhoicas/Ventas-api/internal/domain"
	"github.com/jhoicas/Ventas-api/internal/infrastructure/cache"
	"github.com/jhoicas/Ventas-api/internal/infrastructure/jobs"
	"github.com/jhoicas/Ventas-api/internal/infrastructure/postgres"
	"github.com/jhoicas/Ventas-api/pkg/config"
	"github.com/jhoicas/Ventas-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando worker")

	if cfg.Store.Driver != "postgres" {
		log.Fatal().Str("driver", cfg.Store.Driver).Msg("el worker requiere STORE_DRIVER=postgres")
	}
	if cfg.Redis.Addr == "" {
		log.Fatal().Msg("el worker requiere REDIS_ADDR")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	if err := postgres.Migrate(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("migración del esquema")
	}

	redisClient, err := cache.NewClient(ctx, cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a Redis")
	}
	defer redisClient.Close()

	clock := domain.SystemClock{}
	summaryCache := cache.NewCreditSummaryCache(redisClient, cfg.Redis.SummaryTTL)
	txRunner := postgres.NewTxRunner(pool, cfg.Store.MaxAttempts, log)
	repos := postgres.Repos(pool)

	settlementUC := credit.NewSettlementUseCase(txRunner, summaryCache, nil, clock,
		credit.Config{OverpaymentTolerance: cfg.Credit.OverpaymentTolerance}, log)
	summaryUC := credit.NewSummaryUseCase(repos.Customers, repos.Credits, summaryCache, clock, log)

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		},
		OverdueSweepCron: cfg.Credit.OverdueSweepCron,
		Handlers:         jobs.NewCreditHandlers(settlementUC, summaryUC, log),
		Logger:           log,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar worker")
	}

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("worker finalizado con error")
		os.Exit(1)
	}
	log.Info().Msg("worker detenido")
}
