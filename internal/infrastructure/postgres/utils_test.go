package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestPgCode(t *testing.T) {
	assert.Equal(t, "23505", pgCode(&pgconn.PgError{Code: "23505"}))
	assert.Equal(t, "40001", pgCode(fmt.Errorf("commit: %w", &pgconn.PgError{Code: "40001"})))
	assert.Empty(t, pgCode(errors.New("conexión cerrada")))
	assert.Empty(t, pgCode(nil))
}

func TestClasificacionDeErrores(t *testing.T) {
	tests := []struct {
		code      string
		unique    bool
		check     bool
		retryable bool
	}{
		{code: "23505", unique: true},
		{code: "23514", check: true},
		{code: "40001", retryable: true},
		{code: "40P01", retryable: true},
		{code: "23503"},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := fmt.Errorf("insert: %w", &pgconn.PgError{Code: tt.code})
			assert.Equal(t, tt.unique, isUniqueViolation(err))
			assert.Equal(t, tt.check, isCheckViolation(err))
			assert.Equal(t, tt.retryable, isRetryable(err))
		})
	}
}
