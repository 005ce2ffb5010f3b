// Package guard admits or redirects navigation based on the session.
package guard

// Route names a navigable view.
type Route string

const (
	RouteLogin   Route = "login"
	RouteHome    Route = "home"
	RouteList    Route = "list"
	RouteDetail  Route = "detail"
	RouteForm    Route = "form"
	RouteHistory Route = "history"
	RouteHelp    Route = "help"
)

// public routes are reachable without a session.
var public = map[Route]bool{
	RouteLogin: true,
	RouteHelp:  true,
}

// Authenticator reports whether a session is held. *session.Store
// satisfies it.
type Authenticator interface {
	IsAuthenticated() bool
}

// Guard checks every navigation against the session. Nothing is cached:
// each call asks the authenticator again.
type Guard struct {
	auth Authenticator
}

// New creates a Guard.
func New(auth Authenticator) *Guard {
	return &Guard{auth: auth}
}

// CanEnter reports whether protected views may be shown.
func (g *Guard) CanEnter() bool {
	return g.auth.IsAuthenticated()
}

// IsProtected reports whether r requires a session.
func IsProtected(r Route) bool {
	return !public[r]
}

// Resolve returns the route to show when navigating to r: r itself when it
// is public or the session is valid, the login route otherwise.
func (g *Guard) Resolve(r Route) Route {
	if !IsProtected(r) || g.CanEnter() {
		return r
	}
	return RouteLogin
}
