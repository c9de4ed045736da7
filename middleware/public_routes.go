package middleware

// IsPublicRoute reports whether path is reachable while the session is locked.
func IsPublicRoute(path string) bool {
	publicRoutes := []string{
		"/login",
		"/health",
	}

	for _, route := range publicRoutes {
		if path == route {
			return true
		}
	}
	return false
}

// IsStatelessRoute reports whether path is served without a session, so a
// request without a cookie does not start one.
func IsStatelessRoute(path string) bool {
	return path == "/health"
}
