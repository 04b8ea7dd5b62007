package config

// EnvPrefix namespaces every configuration variable the service reads.
const EnvPrefix = "BOOKMARKET"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "BOOKMARKET_DB_DSN"
	EnvDBHost = "BOOKMARKET_DB_HOST"
	EnvDBUser = "BOOKMARKET_DB_USER"
	EnvDBName = "BOOKMARKET_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
