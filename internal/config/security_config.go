package config

import "time"

type SecurityConfig interface {
	GetMaxSessionAge() time.Duration
	GetRedisAddr() string
	GetEnableRateLimiting() bool
}

type Security struct{}

var _ SecurityConfig = Security{}

// GetMaxSessionAge bounds how long an idle browser session is remembered
// before its state is evicted.
func (Security) GetMaxSessionAge() time.Duration {
	return 12 * time.Hour
}

func (Security) GetRedisAddr() string {
	return GetEnv("REDIS_ADDR", "")
}

func (s Security) GetEnableRateLimiting() bool {
	return s.GetRedisAddr() != ""
}
