package config

type Config interface {
	EnvConfig
	SupabaseConfig
	OIDCConfig
	ScorerConfig
	SecurityConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetSiteURL() string
	GetEnv() string
}

type mainConfig struct {
	EnvVars
	Supabase
	OIDC
	Scorer
	Security
}

func New() Config {
	return mainConfig{}
}
