package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromViper_Defaults(t *testing.T) {
	cfg, err := fromViper(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, 3, cfg.Store.MaxAttempts)
	assert.Equal(t, "0.01", cfg.Sales.PaymentTolerance.String())
	assert.Equal(t, "0.01", cfg.Credit.OverpaymentTolerance.String())
	assert.Equal(t, 30, cfg.Credit.DefaultTermDays)
	assert.Equal(t, 5*time.Minute, cfg.Redis.SummaryTTL)
	assert.Equal(t, "postgres://postgres:@localhost:5432/ventas?sslmode=disable", cfg.DB.ConnectionString())
}

func TestFromViper_Overrides(t *testing.T) {
	v := viper.New()
	v.Set("STORE_DRIVER", "memory")
	v.Set("TX_MAX_ATTEMPTS", "5")
	v.Set("SALES_PAYMENT_TOLERANCE", "0.5")
	v.Set("CREDIT_SUMMARY_TTL", "90s")
	v.Set("DATABASE_URL", "postgres://u:p@db:5432/x")

	cfg, err := fromViper(v)
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Store.Driver)
	assert.Equal(t, 5, cfg.Store.MaxAttempts)
	assert.Equal(t, "0.5", cfg.Sales.PaymentTolerance.String())
	assert.Equal(t, 90*time.Second, cfg.Redis.SummaryTTL)
	assert.Equal(t, "postgres://u:p@db:5432/x", cfg.DB.ConnectionString())
}

func TestFromViper_Invalidos(t *testing.T) {
	cases := map[string]string{
		"STORE_DRIVER":                 "mysql",
		"SALES_PAYMENT_TOLERANCE":      "un peso",
		"CREDIT_OVERPAYMENT_TOLERANCE": "-1",
		"CREDIT_SUMMARY_TTL":           "pronto",
	}
	for key, val := range cases {
		t.Run(key, func(t *testing.T) {
			v := viper.New()
			v.Set(key, val)
			_, err := fromViper(v)
			assert.Error(t, err)
		})
	}
}
