package config

const (
	// EnvPrefix scopes every environment variable the service reads.
	EnvPrefix = "supplypulse"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "SUPPLYPULSE_DB_DSN"
	EnvDBHost = "SUPPLYPULSE_DB_HOST"
	EnvDBUser = "SUPPLYPULSE_DB_USER"
	EnvDBName = "SUPPLYPULSE_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
