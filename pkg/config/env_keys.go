package config

// EnvPrefix is passed to envconfig; individual fields carry explicit
// envconfig tags so the prefix stays empty.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

const (
	EnvDBDSN  = "CHAINSCORE_DB_DSN"
	EnvDBHost = "CHAINSCORE_DB_HOST"
	EnvDBUser = "CHAINSCORE_DB_USER"
	EnvDBName = "CHAINSCORE_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
