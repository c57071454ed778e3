package jobs

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault cola de las tareas del fiado.
	QueueDefault = "default"
	// TaskOverdueSweep marca como vencidas las cuentas con fecha de vencimiento pasada.
	TaskOverdueSweep = "credit:overdue_sweep"
	// TaskSummaryRefresh recalcula el cupo cacheado de un cliente.
	TaskSummaryRefresh = "credit:summary_refresh"
)

// SummaryRefreshPayload cliente cuyo cupo hay que recalcular.
type SummaryRefreshPayload struct {
	CustomerID string `json:"customer_id"`
}

// NewOverdueSweepTask tarea sin payload; la programa el scheduler.
func NewOverdueSweepTask() *asynq.Task {
	return asynq.NewTask(TaskOverdueSweep, nil)
}

// NewSummaryRefreshTask construye la tarea de refresco del cupo.
func NewSummaryRefreshTask(customerID string) (*asynq.Task, error) {
	if customerID == "" {
		return nil, fmt.Errorf("summary refresh: customer_id requerido")
	}
	data, err := json.Marshal(SummaryRefreshPayload{CustomerID: customerID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSummaryRefresh, data), nil
}

func decodeSummaryRefresh(t *asynq.Task) (SummaryRefreshPayload, error) {
	var p SummaryRefreshPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return p, err
	}
	if p.CustomerID == "" {
		return p, fmt.Errorf("customer_id vacío")
	}
	return p, nil
}
