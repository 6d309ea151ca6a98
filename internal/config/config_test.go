package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("RECONCILE_TIMEOUT", "")
	t.Setenv("RECONCILE_LOCK_TTL", "")
	t.Setenv("RECONCILE_MAX_ATTEMPTS", "")

	cfg := Load()

	assert.Equal(t, 5, cfg.Reconcile.MaxAttempts)
	assert.Equal(t, 2*time.Minute, cfg.Reconcile.Timeout)
	assert.Equal(t, 4*time.Minute, cfg.Reconcile.LockTTL)
	assert.Equal(t, 2, cfg.Reconcile.Concurrency)
	assert.Equal(t, 3, cfg.Merge.MaxOverrideExamples)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("RECONCILE_TIMEOUT", "30s")
	t.Setenv("RECONCILE_MAX_ATTEMPTS", "2")
	t.Setenv("MAIL_PROVIDER", "outlook")
	t.Setenv("GO_ENV", "production")

	cfg := Load()

	assert.Equal(t, 30*time.Second, cfg.Reconcile.Timeout)
	assert.Equal(t, time.Minute, cfg.Reconcile.LockTTL)
	assert.Equal(t, 2, cfg.Reconcile.MaxAttempts)
	assert.Equal(t, "outlook", cfg.Provider.DefaultKind)
	assert.True(t, cfg.IsProduction())
}

func TestDurationFallbackOnGarbage(t *testing.T) {
	t.Setenv("RECONCILE_MAX_BACKOFF", "soon")
	assert.Equal(t, 8*time.Second, getEnvAsDuration("RECONCILE_MAX_BACKOFF", 8*time.Second))
}

func TestTracingConfig(t *testing.T) {
	t.Setenv("OTEL_ENABLED", "true")
	t.Setenv("OTEL_SAMPLE_RATIO", "0.25")

	cfg := Load()

	assert.True(t, cfg.Tracing.Enabled)
	assert.Equal(t, 0.25, cfg.Tracing.SampleRatio)
}

func TestAlertsNeedHostAndRecipient(t *testing.T) {
	t.Setenv("SMTP_HOST", "smtp.example.com")
	t.Setenv("DEPLOYMENT_ALERT_EMAIL", "")
	assert.False(t, Load().AlertsEnabled())

	t.Setenv("DEPLOYMENT_ALERT_EMAIL", "ops@example.com")
	cfg := Load()
	assert.True(t, cfg.AlertsEnabled())
	assert.Equal(t, 587, cfg.SMTP.Port)
}
