package server

import (
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/Vissonabe/personal-task-prioritizer/authflow"
	"github.com/Vissonabe/personal-task-prioritizer/backend"
	"github.com/Vissonabe/personal-task-prioritizer/backend/oidcprovider"
	"github.com/Vissonabe/personal-task-prioritizer/backend/supabase"
	"github.com/Vissonabe/personal-task-prioritizer/internal/config"
	"github.com/Vissonabe/personal-task-prioritizer/prioritizer"
	"github.com/Vissonabe/personal-task-prioritizer/ratelimit"
	"github.com/Vissonabe/personal-task-prioritizer/sessions"
	"github.com/Vissonabe/personal-task-prioritizer/tasks"
)

type Server struct {
	env         string
	mux         *http.ServeMux
	routes      []string
	config      config.Config
	client      backend.Client
	machine     *authflow.Machine
	registry    *sessions.Registry
	limiter     *ratelimit.LoginLimiter
	redisClient *redis.Client
	closeOnce   sync.Once
	tasks       *tasks.Client
	prioritizer *prioritizer.Client
}

// Option customizes a Server before its routes are wired.
type Option func(*Server)

// WithBackendClient replaces the auth backend client (primarily for testing).
func WithBackendClient(client backend.Client) Option {
	return func(s *Server) { s.client = client }
}

// WithTaskClient replaces the task storage client (primarily for testing).
func WithTaskClient(client *tasks.Client) Option {
	return func(s *Server) { s.tasks = client }
}

func New(cfg config.Config, options ...Option) *Server {
	s := &Server{
		mux:         http.NewServeMux(),
		config:      cfg,
		registry:    sessions.NewRegistry(cfg.GetMaxSessionAge()),
		prioritizer: prioritizer.NewClient(cfg.GetScorerAPIURL(), cfg.GetScorerAPIKey()),
	}
	s.limiter, s.redisClient = newLoginLimiter(cfg)
	s.env = cfg.GetEnv()

	for _, opt := range options {
		opt(s)
	}
	if s.client == nil {
		s.client = newAuthClient(cfg)
	}
	if s.tasks == nil {
		s.tasks = tasks.NewClient(cfg.GetSupabaseURL(), cfg.GetSupabaseAnonKey())
	}
	s.machine = authflow.New(s.client, authflow.WithCallTimeout(cfg.GetAuthCallTimeout()))

	s.initRoutes()
	s.logRoutes()

	return s
}

// newAuthClient wires the auth backend client. When an OIDC issuer is
// configured the delegated login path talks to the identity provider
// directly; otherwise the backend's own authorize endpoint handles it.
func newAuthClient(cfg config.Config) backend.Client {
	options := []supabase.Option{}
	if cfg.GetOIDCEnabled() {
		driver := oidcprovider.New(map[string]oidcprovider.ProviderConfig{
			cfg.GetOAuthProvider(): {
				Issuer:       cfg.GetOIDCIssuer(),
				ClientID:     cfg.GetOIDCClientID(),
				ClientSecret: cfg.GetOIDCClientSecret(),
				RedirectURL:  cfg.GetAuthRedirectURL(),
			},
		})
		options = append(options, supabase.WithOAuthDriver(driver))
	}
	return supabase.New(cfg.GetSupabaseURL(), cfg.GetSupabaseAnonKey(), cfg.GetAuthRedirectURL(), options...)
}

func newLoginLimiter(cfg config.Config) (*ratelimit.LoginLimiter, *redis.Client) {
	if !cfg.GetEnableRateLimiting() {
		return ratelimit.New(nil, ratelimit.DefaultConfig()), nil
	}
	rdb := redis.NewClient(&redis.Options{Addr: cfg.GetRedisAddr()})
	return ratelimit.New(rdb, ratelimit.DefaultConfig()), rdb
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Close releases background resources held by the server. Safe to call more
// than once.
func (s *Server) Close() {
	s.closeOnce.Do(func() {
		s.registry.Stop()
		if s.redisClient != nil {
			if err := s.redisClient.Close(); err != nil {
				log.Printf("closing redis client: %v", err)
			}
		}
	})
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)
		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	var displayMethod string
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		displayMethod = color + paddedMethod + ResetColor
	} else {
		displayMethod = Gray + paddedMethod + ResetColor
	}
	log.Printf("[%-19s] %s\n", displayMethod, path)
}

// Helper function to determine the scheme (http/https)
func getScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if scheme := r.Header.Get("X-Forwarded-Proto"); scheme != "" {
		return scheme
	}
	return "http"
}
