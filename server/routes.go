package server

func (s *Server) initRoutes() {
	// LOGIN
	s.RegisterRouteFunc("POST "+RouteAuthLogin, s.APIHandler(s.LoginHandler()))
	s.RegisterRouteFunc("POST "+RouteAuthSignup, s.APIHandler(s.SignupHandler()))
	s.RegisterRouteFunc("POST "+RouteAuthLogout, s.APIHandler(s.LogoutHandler()))
	s.RegisterRouteFunc("GET "+RouteAuthSession, s.APIHandler(s.SessionHandler()))

	// PASSWORD RESET
	s.RegisterRouteFunc("POST "+RouteResetRequest, s.APIHandler(s.ResetRequestHandler()))
	s.RegisterRouteFunc("POST "+RouteResetComplete, s.APIHandler(s.ResetCompleteHandler()))

	// DELEGATED LOGIN
	s.RegisterRouteFunc("POST "+RouteOAuthStart, s.APIHandler(s.OAuthStartHandler()))
	s.RegisterRouteFunc("GET "+RouteCallback, s.APIHandler(s.CallbackHandler()))
	s.RegisterRouteFunc("POST "+RouteCallback, s.APIHandler(s.CallbackHandler())) // For forwarded fragment params

	// TASKS
	s.RegisterRouteFunc("POST "+RouteAPITasks, s.APIHandler(s.RequireAuth(s.CreateTaskHandler())))
	s.RegisterRouteFunc("GET "+RouteAPITasks, s.APIHandler(s.RequireAuth(s.ListTasksHandler())))
	s.RegisterRouteFunc("DELETE "+RouteAPITasks, s.APIHandler(s.RequireAuth(s.ClearTasksHandler())))
	s.RegisterRouteFunc("GET "+RouteAPITask, s.APIHandler(s.RequireAuth(s.GetTaskHandler())))
	s.RegisterRouteFunc("PATCH "+RouteAPITask, s.APIHandler(s.RequireAuth(s.UpdateTaskHandler())))
	s.RegisterRouteFunc("DELETE "+RouteAPITask, s.APIHandler(s.RequireAuth(s.DeleteTaskHandler())))
	s.RegisterRouteFunc("POST "+RouteAPITaskToggle, s.APIHandler(s.RequireAuth(s.ToggleTaskHandler())))

	// PRIORITIZATION AND STATS
	s.RegisterRouteFunc("POST "+RouteAPIPrioritize, s.APIHandler(s.RequireAuth(s.PrioritizeHandler())))
	s.RegisterRouteFunc("GET "+RouteAPIStats, s.APIHandler(s.RequireAuth(s.StatsHandler())))
	s.RegisterRouteFunc("GET "+RouteAPIPreferences, s.APIHandler(s.RequireAuth(s.GetPreferencesHandler())))
	s.RegisterRouteFunc("PUT "+RouteAPIPreferences, s.APIHandler(s.RequireAuth(s.UpdatePreferencesHandler())))

	s.RegisterRouteFunc("GET "+RouteHealth, s.HealthHandler())
}
