package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	// Auth Routes - Login & Logout
	RouteAuthLogin   = "/auth/login"
	RouteAuthSignup  = "/auth/signup"
	RouteAuthLogout  = "/auth/logout"
	RouteAuthSession = "/auth/session"
	RouteCallback    = "/auth/callback"

	// Auth Routes - Password Management
	RouteResetRequest  = "/auth/reset-request"
	RouteResetComplete = "/auth/reset-complete"

	// Auth Routes - Delegated Login
	RouteOAuthStart = "/auth/oauth/{provider}"

	// API Routes - Tasks
	RouteAPITasks       = "/api/tasks"
	RouteAPITask        = "/api/tasks/{id}"
	RouteAPITaskToggle  = "/api/tasks/{id}/toggle"
	RouteAPIPrioritize  = "/api/prioritize"
	RouteAPIStats       = "/api/stats"
	RouteAPIPreferences = "/api/preferences"

	RouteHealth = "/health"
)
