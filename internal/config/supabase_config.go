package config

import "time"

type SupabaseConfig interface {
	GetSupabaseURL() string
	GetSupabaseAnonKey() string
	GetAuthRedirectURL() string
	GetAuthCallTimeout() time.Duration
	GetOAuthProvider() string
}

type Supabase struct{}

var _ SupabaseConfig = Supabase{}

func (Supabase) GetSupabaseURL() string {
	return GetEnv("SUPABASE_URL", "")
}

func (Supabase) GetSupabaseAnonKey() string {
	return GetEnv("SUPABASE_ANON_KEY", "")
}

// GetAuthRedirectURL is where the auth backend sends the browser back to
// after email verification, password recovery and OAuth sign-in.
func (s Supabase) GetAuthRedirectURL() string {
	return GetEnv("AUTH_REDIRECT_URL", EnvVars{}.GetSiteURL()+"/auth/callback")
}

func (Supabase) GetAuthCallTimeout() time.Duration {
	return 10 * time.Second
}

func (Supabase) GetOAuthProvider() string {
	return GetEnv("OAUTH_PROVIDER", "google")
}
