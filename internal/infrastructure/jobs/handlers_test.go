package jobs

import (
	"context"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Ventas-api/internal/domain"
	"github.com/jhoicas/Ventas-api/internal/domain/entity"
)

type fakeOverdue struct {
	calls int
	n     int
	err   error
}

func (f *fakeOverdue) MarkOverdue(context.Context) (int, error) {
	f.calls++
	return f.n, f.err
}

type fakeRefresher struct {
	customers []string
	err       error
}

func (f *fakeRefresher) Refresh(_ context.Context, customerID string) (entity.CreditSummary, error) {
	f.customers = append(f.customers, customerID)
	return entity.CreditSummary{CustomerID: customerID}, f.err
}

func TestNewSummaryRefreshTask(t *testing.T) {
	task, err := NewSummaryRefreshTask("c1")
	require.NoError(t, err)
	assert.Equal(t, TaskSummaryRefresh, task.Type())
	assert.JSONEq(t, `{"customer_id":"c1"}`, string(task.Payload()))

	p, err := decodeSummaryRefresh(task)
	require.NoError(t, err)
	assert.Equal(t, "c1", p.CustomerID)

	_, err = NewSummaryRefreshTask("")
	assert.Error(t, err)
}

func TestHandleOverdueSweep(t *testing.T) {
	overdue := &fakeOverdue{n: 3}
	h := NewCreditHandlers(overdue, &fakeRefresher{}, nil)

	require.NoError(t, h.HandleOverdueSweep(context.Background(), NewOverdueSweepTask()))
	assert.Equal(t, 1, overdue.calls)

	overdue.err = domain.ErrConcurrencyConflict
	err := h.HandleOverdueSweep(context.Background(), NewOverdueSweepTask())
	assert.ErrorIs(t, err, domain.ErrConcurrencyConflict)
}

func TestHandleSummaryRefresh(t *testing.T) {
	t.Run("refresca el cliente del payload", func(t *testing.T) {
		ref := &fakeRefresher{}
		h := NewCreditHandlers(&fakeOverdue{}, ref, nil)
		task, err := NewSummaryRefreshTask("c7")
		require.NoError(t, err)

		require.NoError(t, h.HandleSummaryRefresh(context.Background(), task))
		assert.Equal(t, []string{"c7"}, ref.customers)
	})

	t.Run("payload inválido no se reintenta", func(t *testing.T) {
		ref := &fakeRefresher{}
		h := NewCreditHandlers(&fakeOverdue{}, ref, nil)

		for _, raw := range []string{"{no-json", `{"customer_id":""}`} {
			err := h.HandleSummaryRefresh(context.Background(), asynq.NewTask(TaskSummaryRefresh, []byte(raw)))
			assert.ErrorIs(t, err, asynq.SkipRetry)
		}
		assert.Empty(t, ref.customers)
	})

	t.Run("cliente inexistente no se reintenta", func(t *testing.T) {
		h := NewCreditHandlers(&fakeOverdue{}, &fakeRefresher{err: domain.ErrCustomerNotFound}, nil)
		task, _ := NewSummaryRefreshTask("zz")
		err := h.HandleSummaryRefresh(context.Background(), task)
		assert.ErrorIs(t, err, asynq.SkipRetry)
	})

	t.Run("error transitorio se reintenta", func(t *testing.T) {
		boom := errors.New("conexión rechazada")
		h := NewCreditHandlers(&fakeOverdue{}, &fakeRefresher{err: boom}, nil)
		task, _ := NewSummaryRefreshTask("c1")
		err := h.HandleSummaryRefresh(context.Background(), task)
		assert.ErrorIs(t, err, boom)
		assert.NotErrorIs(t, err, asynq.SkipRetry)
	})
}
