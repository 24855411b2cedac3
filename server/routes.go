package server

func (s *Server) initRoutes() {
	s.RegisterRouteFunc("GET "+RouteHealth, ChainMiddleware(s.HealthHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteMetrics, s.MetricsHandler())

	// AUTH
	s.RegisterRouteFunc("POST "+RouteAuthManual, ChainMiddleware(s.ManualAuthHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("POST "+RouteAuthRefresh, ChainMiddleware(s.RefreshHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("POST "+RouteAuthLogout, ChainMiddleware(s.LogoutHandler(), s.APIMiddleware(s.RequireAuth())...))
	s.RegisterRouteFunc("GET "+RouteAuthMe, ChainMiddleware(s.MeHandler(), s.APIMiddleware(s.RequireAuth())...))

	// ANALYSIS
	s.RegisterRouteFunc("POST "+RoutePredict, ChainMiddleware(s.PredictHandler(), s.APIMiddleware(s.RequireAuth())...))
	s.RegisterRouteFunc("GET "+RoutePredictionHistory, ChainMiddleware(s.PredictionHistoryHandler(), s.APIMiddleware(s.RequireAuth())...))
	s.RegisterRouteFunc("GET "+RouteSensorHistory, ChainMiddleware(s.SensorHistoryHandler(), s.APIMiddleware(s.RequireAuth())...))

	// KNOWLEDGE BASE
	s.RegisterRouteFunc("GET "+RoutePlants, ChainMiddleware(s.PlantsHandler(), s.APIMiddleware(s.RequireAuth())...))
	s.RegisterRouteFunc("GET "+RoutePlant, ChainMiddleware(s.PlantHandler(), s.APIMiddleware(s.RequireAuth())...))

	s.RegisterRouteFunc("/", ChainMiddleware(s.NotFoundHandler(), s.APIMiddleware()...))
}
