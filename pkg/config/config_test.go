package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir cambia el directorio de trabajo y lo restaura al terminar el test
// (equivalente a testing.T.Chdir, no disponible antes de Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}

func TestLoad_ValoresPorDefecto(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, "postgres", cfg.DB.Driver)
	assert.Equal(t, 60, cfg.JWT.Expiration)
	assert.Equal(t, time.Hour, cfg.JWT.TTL())
	assert.Equal(t, 10*time.Minute, cfg.OTP.TTL())
	assert.Equal(t, "local", cfg.Uploads.Backend)
	assert.Equal(t, "uploads", cfg.Uploads.Dir)
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTP.Addr())
	assert.Empty(t, cfg.Redis.Addr)

	err = cfg.Validate()
	assert.ErrorContains(t, err, "JWT_SECRET")
}

func TestLoad_DesdeEntorno(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("JWT_SECRET", "s3cr3t")
	t.Setenv("JWT_EXPIRATION_MINUTES", "15")
	t.Setenv("HTTP_PORT", "9050")
	t.Setenv("DB_DRIVER", "memory")
	t.Setenv("OTP_TTL_MINUTES", "5")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("REDIS_ADDR", "localhost:6379")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "s3cr3t", cfg.JWT.Secret)
	assert.Equal(t, 15*time.Minute, cfg.JWT.TTL())
	assert.Equal(t, 9050, cfg.HTTP.Port)
	assert.Equal(t, 5*time.Minute, cfg.OTP.TTL())
	assert.InDelta(t, 2.5, cfg.RateLimit.RPS, 0.0001)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.NoError(t, cfg.Validate())
}

func TestValidate_S3SinBucket(t *testing.T) {
	cfg := &Config{
		JWT:     JWTConfig{Secret: "x", Expiration: 60},
		OTP:     OTPConfig{TTLMinutes: 10},
		DB:      DBConfig{Driver: "postgres"},
		Uploads: UploadsConfig{Backend: "s3"},
	}
	assert.ErrorContains(t, cfg.Validate(), "S3_BUCKET")
}

func TestDBConfig_DSN(t *testing.T) {
	c := DBConfig{Host: "db", Port: 5432, User: "geo", Password: "p@ss:word", DBName: "geofix", SSLMode: "disable"}
	assert.Equal(t, "postgres://geo:p%40ss%3Aword@db:5432/geofix?sslmode=disable", c.DSN())
	assert.Equal(t, c.DSN(), c.ConnectionString())

	c.DatabaseURL = "postgres://u:p@h:1/d"
	assert.Equal(t, "postgres://u:p@h:1/d", c.ConnectionString())
}
