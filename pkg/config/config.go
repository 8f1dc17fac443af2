package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	Cache        CacheConfig
	Scoring      ScoringConfig
	Rules        RulesConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
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
	Env          string `envconfig:"CHAINSCORE_APP_ENV" required:"true"`
	Port         string `envconfig:"CHAINSCORE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"CHAINSCORE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"CHAINSCORE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"CHAINSCORE_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"CHAINSCORE_DB_DSN"`
	Driver string `envconfig:"CHAINSCORE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"CHAINSCORE_DB_HOST"`
	LegacyPort     int    `envconfig:"CHAINSCORE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"CHAINSCORE_DB_USER"`
	LegacyPassword string `envconfig:"CHAINSCORE_DB_PASSWORD"`
	LegacyName     string `envconfig:"CHAINSCORE_DB_NAME"`
	LegacySSLMode  string `envconfig:"CHAINSCORE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"CHAINSCORE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"CHAINSCORE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"CHAINSCORE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"CHAINSCORE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(db.Driver, DriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"CHAINSCORE_REDIS_URL"`
	Address      string        `envconfig:"CHAINSCORE_REDIS_ADDR"`
	Password     string        `envconfig:"CHAINSCORE_REDIS_PASSWORD"`
	DB           int           `envconfig:"CHAINSCORE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"CHAINSCORE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"CHAINSCORE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"CHAINSCORE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"CHAINSCORE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"CHAINSCORE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// CacheConfig controls the feature result cache shared by the scoring pipeline.
type CacheConfig struct {
	TTL        time.Duration `envconfig:"CHAINSCORE_CACHE_TTL" default:"5m"`
	UseRedis   bool          `envconfig:"CHAINSCORE_CACHE_USE_REDIS" default:"false"`
	PruneEvery time.Duration `envconfig:"CHAINSCORE_CACHE_PRUNE_EVERY" default:"1m"`
}

// ScoringConfig carries the engine tunables surfaced to operators.
type ScoringConfig struct {
	ScorecardVersion  string        `envconfig:"CHAINSCORE_SCORECARD_VERSION" default:"active"`
	TraversalMaxDepth int           `envconfig:"CHAINSCORE_TRAVERSAL_MAX_DEPTH" default:"5"`
	ExtractionTimeout time.Duration `envconfig:"CHAINSCORE_EXTRACTION_TIMEOUT" default:"30s"`
	BatchWorkers      int           `envconfig:"CHAINSCORE_BATCH_WORKERS" default:"4"`
}

type RulesConfig struct {
	DefaultAction string `envconfig:"CHAINSCORE_RULES_DEFAULT_ACTION" default:"manual_review"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"CHAINSCORE_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"CHAINSCORE_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"CHAINSCORE_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"CHAINSCORE_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"CHAINSCORE_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	Enabled           bool          `envconfig:"CHAINSCORE_PUBSUB_ENABLED" default:"false"`
	ScoreTopic        string        `envconfig:"CHAINSCORE_PUBSUB_SCORE_TOPIC" default:"cs-score-events"`
	ScoreSubscription string        `envconfig:"CHAINSCORE_PUBSUB_SCORE_SUBSCRIPTION"`
	BatchTopic        string        `envconfig:"CHAINSCORE_PUBSUB_BATCH_TOPIC" default:"cs-batch-events"`
	BatchSubscription string        `envconfig:"CHAINSCORE_PUBSUB_BATCH_SUBSCRIPTION"`
	PublishTimeout    time.Duration `envconfig:"CHAINSCORE_PUBSUB_PUBLISH_TIMEOUT" default:"10s"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.IsSQLite() {
		db.DSN = "file::memory:?cache=shared"
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
