package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromViper_ValoresPorDefecto(t *testing.T) {
	cfg, err := fromViper(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Env)
	assert.True(t, cfg.App.IsDevelopment())
	assert.Equal(t, "info", cfg.App.LogLevel)
	assert.Equal(t, 25, cfg.DB.MaxConns)
	assert.Equal(t, 20, cfg.Ledger.DefaultPageSize)
	assert.Equal(t, 100, cfg.Ledger.MaxPageSize)
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTP.Addr())
}

func TestFromViper_LeeValoresComoTexto(t *testing.T) {
	v := viper.New()
	v.Set("DB_PORT", "6543")
	v.Set("LEDGER_DEFAULT_PAGE_SIZE", "50")
	v.Set("LEDGER_MAX_PAGE_SIZE", "40")
	v.Set("LOG_LEVEL", "debug")

	cfg, err := fromViper(v)
	require.NoError(t, err)

	assert.Equal(t, 6543, cfg.DB.Port)
	assert.Equal(t, 40, cfg.Ledger.MaxPageSize)
	assert.Equal(t, 40, cfg.Ledger.DefaultPageSize, "el default no puede superar el máximo")
	assert.Equal(t, "debug", cfg.App.LogLevel)
}

func TestFromViper_RechazaPaginaNoPositiva(t *testing.T) {
	v := viper.New()
	v.Set("LEDGER_MAX_PAGE_SIZE", 0)

	_, err := fromViper(v)
	assert.Error(t, err)
}

func TestDBConfig_ConnectionString(t *testing.T) {
	c := DBConfig{Host: "db", Port: 5432, User: "u", Password: "p@ss", DBName: "ledger", SSLMode: "disable"}
	assert.Equal(t, "postgres://u:p%40ss@db:5432/ledger?sslmode=disable", c.ConnectionString())

	c.DatabaseURL = "postgres://x@y/z"
	assert.Equal(t, "postgres://x@y/z", c.ConnectionString())
}
