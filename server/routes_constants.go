package server

// Route path constants
const (
	RouteHealth  = "/health"
	RouteMetrics = "/metrics"

	// Auth routes
	RouteAuthManual  = "/api/auth/manual"
	RouteAuthRefresh = "/api/auth/refresh"
	RouteAuthLogout  = "/api/auth/logout"
	RouteAuthMe      = "/api/auth/me"

	// Analysis routes
	RoutePredict           = "/api/predict"
	RoutePredictionHistory = "/api/predict/history"
	RouteSensorHistory     = "/api/sensor/history"

	// Knowledge base routes
	RoutePlants = "/api/plant"
	RoutePlant  = "/api/plant/{species}"
)
