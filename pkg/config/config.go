package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App            AppConfig
	Service        ServiceConfig
	DB             DBConfig
	Redis          RedisConfig
	FeatureFlags   FeatureFlagsConfig
	Eventing       EventingConfig
	GCP            GCPConfig
	PubSub         PubSubConfig
	Reconciliation ReconciliationConfig
	Ingest         IngestConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"SUPPLYPULSE_APP_ENV" required:"true"`
	Port         string `envconfig:"SUPPLYPULSE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"SUPPLYPULSE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SUPPLYPULSE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"SUPPLYPULSE_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"SUPPLYPULSE_DB_DSN"`
	Driver string `envconfig:"SUPPLYPULSE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"SUPPLYPULSE_DB_HOST"`
	LegacyPort     int    `envconfig:"SUPPLYPULSE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"SUPPLYPULSE_DB_USER"`
	LegacyPassword string `envconfig:"SUPPLYPULSE_DB_PASSWORD"`
	LegacyName     string `envconfig:"SUPPLYPULSE_DB_NAME"`
	LegacySSLMode  string `envconfig:"SUPPLYPULSE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SUPPLYPULSE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SUPPLYPULSE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SUPPLYPULSE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SUPPLYPULSE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SUPPLYPULSE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"SUPPLYPULSE_REDIS_ADDR"`
	Password     string        `envconfig:"SUPPLYPULSE_REDIS_PASSWORD"`
	DB           int           `envconfig:"SUPPLYPULSE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SUPPLYPULSE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SUPPLYPULSE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SUPPLYPULSE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SUPPLYPULSE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SUPPLYPULSE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"SUPPLYPULSE_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"SUPPLYPULSE_AUTO_MIGRATE" default:"false"`
}

type EventingConfig struct {
	IdempotencyTTL time.Duration `envconfig:"SUPPLYPULSE_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"SUPPLYPULSE_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"SUPPLYPULSE_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"SUPPLYPULSE_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	BatchTopic        string `envconfig:"SUPPLYPULSE_PUBSUB_BATCH_TOPIC" default:"sp-transaction-batches"`
	BatchSubscription string `envconfig:"SUPPLYPULSE_PUBSUB_BATCH_SUBSCRIPTION" required:"true"`
	AlertTopic        string `envconfig:"SUPPLYPULSE_PUBSUB_ALERT_TOPIC" default:"sp-recon-alerts"`
}

// ReconciliationConfig holds the engine thresholds. The materiality and
// recoverability values default to the documented policy figures but stay
// configurable per deployment.
type ReconciliationConfig struct {
	VarianceReportPct      float64 `envconfig:"SUPPLYPULSE_RECON_VARIANCE_REPORT_PCT" default:"5"`
	VarianceCompromisedPct float64 `envconfig:"SUPPLYPULSE_RECON_VARIANCE_COMPROMISED_PCT" default:"10"`
	VarianceHighPct        float64 `envconfig:"SUPPLYPULSE_RECON_VARIANCE_HIGH_PCT" default:"20"`
	QuantityTolerancePct   float64 `envconfig:"SUPPLYPULSE_RECON_QUANTITY_TOLERANCE_PCT" default:"5"`
	DelayedAfterDays       int     `envconfig:"SUPPLYPULSE_RECON_DELAYED_AFTER_DAYS" default:"45"`

	RecoveryMateriality         float64 `envconfig:"SUPPLYPULSE_RECON_RECOVERY_MATERIALITY" default:"10000"`
	CostOptimizationMateriality float64 `envconfig:"SUPPLYPULSE_RECON_COST_OPT_MATERIALITY" default:"5000"`
	SavingsRecoverability       float64 `envconfig:"SUPPLYPULSE_RECON_SAVINGS_RECOVERABILITY" default:"0.5"`

	WorkerPoolSize   int           `envconfig:"SUPPLYPULSE_RECON_WORKER_POOL_SIZE" default:"8"`
	PartitionTimeout time.Duration `envconfig:"SUPPLYPULSE_RECON_PARTITION_TIMEOUT" default:"30s"`
	RunTimeout       time.Duration `envconfig:"SUPPLYPULSE_RECON_RUN_TIMEOUT" default:"10m"`
}

type IngestConfig struct {
	ConfidenceFloor float64 `envconfig:"SUPPLYPULSE_INGEST_CONFIDENCE_FLOOR" default:"0.5"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
