package config

// EnvPrefix scopes every environment variable the service reads.
const EnvPrefix = "VEOX"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "VEOX_DB_DSN"
	EnvDBHost = "VEOX_DB_HOST"
	EnvDBUser = "VEOX_DB_USER"
	EnvDBName = "VEOX_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
