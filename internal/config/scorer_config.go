package config

type ScorerConfig interface {
	GetScorerAPIURL() string
	GetScorerAPIKey() string
}

type Scorer struct{}

var _ ScorerConfig = Scorer{}

func (Scorer) GetScorerAPIURL() string {
	return GetEnv("SCORER_API_URL", "")
}

func (Scorer) GetScorerAPIKey() string {
	return GetEnv("SCORER_API_KEY", "")
}
