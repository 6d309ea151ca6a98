package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Auth      AuthConfig
	Provider  ProviderConfig
	Reconcile ReconcileConfig
	Merge     MergeConfig
	Tracing   TracingConfig
	SMTP      SMTPConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	AuditLogFilePath   string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	SchemaDir          string // optional override directory for business-type schemas
	TemplatePath       string // optional workflow template replacing the embedded default
	DeployTopic        string
}

type DatabaseConfig struct {
	Connection string
}

type AuthConfig struct {
	JwtSecret string
}

type ProviderConfig struct {
	DefaultKind  string // "gmail" or "outlook"
	GmailBaseURL string
	GraphBaseURL string
}

type ReconcileConfig struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Concurrency    int
	Timeout        time.Duration
	LockTTL        time.Duration
}

type MergeConfig struct {
	MaxToneDescriptors  int
	MaxOverrideExamples int
}

// SMTPConfig enables failure alerts when Host and AlertEmail are both set.
type SMTPConfig struct {
	Host       string
	Port       int
	Email      string
	Password   string
	SenderName string
	AlertEmail string
}

type TracingConfig struct {
	Enabled     bool
	Endpoint    string // OTLP/HTTP host:port
	SampleRatio float64
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	timeout := getEnvAsDuration("RECONCILE_TIMEOUT", 2*time.Minute)

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			AuditLogFilePath:   getEnv("AUDIT_LOG_FILE_PATH", "logs/reconcile.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", ""),
			RedisURL:           getEnv("REDIS_URL", ""),
			SchemaDir:          getEnv("SCHEMA_DIR", ""),
			TemplatePath:       getEnv("WORKFLOW_TEMPLATE_PATH", ""),
			DeployTopic:        getEnv("DEPLOY_TOPIC_NAME", "deployments.requested"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Auth: AuthConfig{
			JwtSecret: getEnv("JWT_SECRET", ""),
		},
		Provider: ProviderConfig{
			DefaultKind:  getEnv("MAIL_PROVIDER", "gmail"),
			GmailBaseURL: getEnv("GMAIL_API_BASE_URL", ""),
			GraphBaseURL: getEnv("GRAPH_API_BASE_URL", ""),
		},
		Reconcile: ReconcileConfig{
			MaxAttempts:    getEnvAsInt("RECONCILE_MAX_ATTEMPTS", 5),
			InitialBackoff: getEnvAsDuration("RECONCILE_INITIAL_BACKOFF", 500*time.Millisecond),
			MaxBackoff:     getEnvAsDuration("RECONCILE_MAX_BACKOFF", 8*time.Second),
			Concurrency:    getEnvAsInt("RECONCILE_CONCURRENCY", 2),
			Timeout:        timeout,
			LockTTL:        getEnvAsDuration("RECONCILE_LOCK_TTL", 2*timeout),
		},
		Merge: MergeConfig{
			MaxToneDescriptors:  getEnvAsInt("MERGE_MAX_TONE_DESCRIPTORS", 4),
			MaxOverrideExamples: getEnvAsInt("MERGE_MAX_OVERRIDE_EXAMPLES", 3),
		},
		Tracing: TracingConfig{
			Enabled:     getEnv("OTEL_ENABLED", "false") == "true",
			Endpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
			SampleRatio: getEnvAsFloat("OTEL_SAMPLE_RATIO", 1.0),
		},
		SMTP: SMTPConfig{
			Host:       getEnv("SMTP_HOST", ""),
			Port:       getEnvAsInt("SMTP_PORT", 587),
			Email:      getEnv("SMTP_EMAIL", ""),
			Password:   getEnv("SMTP_PASSWORD", ""),
			SenderName: getEnv("SMTP_SENDER_NAME", "Email Onboarding"),
			AlertEmail: getEnv("DEPLOYMENT_ALERT_EMAIL", ""),
		},
	}
}

func (c *Config) AlertsEnabled() bool {
	return c.SMTP.Host != "" && c.SMTP.AlertEmail != ""
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}

// getEnvAsDuration accepts Go duration strings ("750ms", "2m").
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil && value > 0 {
		return value
	}
	return fallback
}
