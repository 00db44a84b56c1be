package config_test

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/training-crm-api/pkg/config"
)

func TestFromViper_ValoresPorDefecto(t *testing.T) {
	cfg, err := config.FromViper(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, "supabase", cfg.Identity.Provider)
	assert.Equal(t, "123456", cfg.Provisioning.DefaultPassword)
	assert.Equal(t, time.Second, cfg.Provisioning.SettleDelay)
	assert.Equal(t, 10, cfg.Provisioning.PauseEvery)
	assert.Equal(t, 2*time.Second, cfg.Provisioning.Pause)
	assert.Equal(t, 20, cfg.Proxy.RatePerMinute)
	assert.Equal(t, "*", cfg.Proxy.AllowedOrigin)
	assert.Equal(t, 10, cfg.Backup.Keep)
	assert.Empty(t, cfg.Redis.Addr, "sin Redis por defecto")
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTP.Addr())
}

func TestFromViper_Sobrescrituras(t *testing.T) {
	v := viper.New()
	v.Set("SUPABASE_URL", "https://abc.supabase.co/")
	v.Set("PROVISIONING_SETTLE_DELAY", "1500")
	v.Set("PROVISIONING_PAUSE", "3s")
	v.Set("PROXY_PORT", "9000")
	v.Set("IDENTITY_PROVIDER", "local")

	cfg, err := config.FromViper(v)
	require.NoError(t, err)
	assert.Equal(t, "https://abc.supabase.co", cfg.Supabase.URL, "sin barra final")
	assert.Equal(t, 1500*time.Millisecond, cfg.Provisioning.SettleDelay, "entero en milisegundos")
	assert.Equal(t, 3*time.Second, cfg.Provisioning.Pause)
	assert.Equal(t, "0.0.0.0:9000", cfg.Proxy.Addr())
	assert.Equal(t, "local", cfg.Identity.Provider)
}

func TestFromViper_ProveedorInvalido(t *testing.T) {
	v := viper.New()
	v.Set("IDENTITY_PROVIDER", "ldap")
	_, err := config.FromViper(v)
	assert.Error(t, err)
}

func TestDSN_EscapaCredenciales(t *testing.T) {
	c := config.DBConfig{Host: "db", Port: 5432, User: "app", Password: "p@ss/word", DBName: "crm", SSLMode: "require"}
	assert.Equal(t, "postgres://app:p%40ss%2Fword@db:5432/crm?sslmode=require", c.DSN())

	c.DatabaseURL = "postgresql://x@y/z"
	assert.Equal(t, "postgresql://x@y/z", c.ConnectionString())
}
