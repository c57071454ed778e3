package jobs

import (
	"context"
	"time"

	"github.com/hibiken/asynq"

	"github.com/jhoicas/Ventas-api/pkg/logger"
)

// WorkerConfig dependencias del worker.
type WorkerConfig struct {
	RedisOpts   asynq.RedisClientOpt
	Concurrency int
	// OverdueSweepCron expresión cron del barrido; vacío = sin scheduler.
	OverdueSweepCron string
	Handlers         *CreditHandlers
	Logger           *logger.Logger
}

// Worker servidor asynq con el scheduler del barrido de vencimientos.
type Worker struct {
	server    *asynq.Server
	mux       *asynq.ServeMux
	scheduler *asynq.Scheduler
	log       *logger.Logger
}

// NewWorker registra los handlers y, si hay cron, la tarea periódica.
func NewWorker(cfg WorkerConfig) (*Worker, error) {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 5
	}
	log := cfg.Logger
	if log == nil {
		log = logger.Nop()
	}
	log = log.Component("jobs")

	srv := asynq.NewServer(cfg.RedisOpts, asynq.Config{
		Concurrency: cfg.Concurrency,
		Queues:      map[string]int{QueueDefault: 1},
		ErrorHandler: asynq.ErrorHandlerFunc(func(_ context.Context, t *asynq.Task, err error) {
			log.Error().Err(err).Str("task", t.Type()).Msg("tarea falló")
		}),
	})
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskOverdueSweep, cfg.Handlers.HandleOverdueSweep)
	mux.HandleFunc(TaskSummaryRefresh, cfg.Handlers.HandleSummaryRefresh)

	var scheduler *asynq.Scheduler
	if cfg.OverdueSweepCron != "" {
		scheduler = asynq.NewScheduler(cfg.RedisOpts, &asynq.SchedulerOpts{Location: time.UTC})
		if _, err := scheduler.Register(cfg.OverdueSweepCron, NewOverdueSweepTask(),
			asynq.Queue(QueueDefault), asynq.MaxRetry(3)); err != nil {
			return nil, err
		}
	}
	return &Worker{server: srv, mux: mux, scheduler: scheduler, log: log}, nil
}

// Run procesa tareas hasta que se cancele ctx.
func (w *Worker) Run(ctx context.Context) error {
	if w.scheduler != nil {
		if err := w.scheduler.Start(); err != nil {
			return err
		}
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- w.server.Run(w.mux)
	}()
	w.log.Info().Msg("worker iniciado")

	select {
	case <-ctx.Done():
		if w.scheduler != nil {
			w.scheduler.Shutdown()
		}
		w.server.Shutdown()
		return ctx.Err()
	case err := <-errCh:
		if w.scheduler != nil {
			w.scheduler.Shutdown()
		}
		return err
	}
}
