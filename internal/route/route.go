// Package route decides which screens a user may reach and tracks the
// current location.
package route

import (
	"LexAI/internal/auth"
)

// Route describes one screen.
type Route struct {
	Path      string
	Private   bool
	AdminOnly bool
}

// Application paths.
const (
	PathLanding        = "/"
	PathLogin          = "/login"
	PathRegister       = "/register"
	PathHome           = "/home"
	PathChat           = "/chat"
	PathSimilar        = "/similar"
	PathAdmin          = "/admin"
	PathAdminUsers     = "/admin/users"
	PathAdminFeedbacks = "/admin/feedbacks"
)

// Routes is the route table.
var Routes = []Route{
	{Path: PathLanding},
	{Path: PathLogin},
	{Path: PathRegister},
	{Path: PathHome, Private: true},
	{Path: PathChat, Private: true},
	{Path: PathSimilar, Private: true},
	{Path: PathAdmin, Private: true, AdminOnly: true},
	{Path: PathAdminUsers, Private: true, AdminOnly: true},
	{Path: PathAdminFeedbacks, Private: true, AdminOnly: true},
}

// Lookup returns the route registered for path.
func Lookup(path string) (Route, bool) {
	for _, r := range Routes {
		if r.Path == path {
			return r, true
		}
	}
	return Route{}, false
}

// Decision is the outcome of Guard. When Allow is false, Redirect names the
// path to go to instead.
type Decision struct {
	Allow    bool
	Redirect string
}

// Guard decides whether state may view r. Public routes are always allowed.
// Admin-only routes are also private.
func Guard(state auth.State, r Route) Decision {
	if !r.Private && !r.AdminOnly {
		return Decision{Allow: true}
	}
	if !state.LoggedIn() {
		return Decision{Redirect: PathLogin}
	}
	if r.AdminOnly && !state.IsAdmin() {
		return Decision{Redirect: PathHome}
	}
	return Decision{Allow: true}
}
