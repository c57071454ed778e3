package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/jhoicas/Ventas-api/internal/application/credit"
)

var _ credit.EventPublisher = (*Publisher)(nil)

// Publisher encola tareas del fiado en Redis.
type Publisher struct {
	client *asynq.Client
}

// NewPublisher construye el cliente asynq.
func NewPublisher(opts asynq.RedisClientOpt) *Publisher {
	return &Publisher{client: asynq.NewClient(opts)}
}

// PublishSummaryRefresh encola el recálculo del cupo. Refrescos repetidos del mismo
// cliente dentro de la ventana de unicidad se descartan.
func (p *Publisher) PublishSummaryRefresh(ctx context.Context, customerID string) error {
	task, err := NewSummaryRefreshTask(customerID)
	if err != nil {
		return err
	}
	_, err = p.client.EnqueueContext(ctx, task,
		asynq.Queue(QueueDefault),
		asynq.MaxRetry(3),
		asynq.Unique(30*time.Second),
	)
	if err != nil && !errors.Is(err, asynq.ErrDuplicateTask) {
		return fmt.Errorf("enqueue %s: %w", TaskSummaryRefresh, err)
	}
	return nil
}

// Close libera la conexión.
func (p *Publisher) Close() error {
	return p.client.Close()
}
