package config

// EnvPrefix scopes every envconfig lookup; individual fields carry the full
// variable name in their tags so the prefix stays empty.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "GLOWMART_DB_DSN"
	EnvDBHost = "GLOWMART_DB_HOST"
	EnvDBUser = "GLOWMART_DB_USER"
	EnvDBName = "GLOWMART_DB_NAME"
)

var requiredDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
