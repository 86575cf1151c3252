// Package views holds the page-level logic of the client: route guards,
// form validation, the dashboard and the text renderers used by the CLI.
package views

import (
	"strings"

	"github.com/isdelr/mantis-client/internal/session"
)

// Routes known to the client.
const (
	RouteRoot       = "/"
	RouteLogin      = "/login"
	RouteRegister   = "/register"
	RouteDashboard  = "/dashboard"
	RouteIssues     = "/issues"
	RouteNewIssue   = "/issues/new"
	RouteLabels     = "/labels"
	RouteMilestones = "/milestones"
)

// Access is the guard applied to a route.
type Access int

const (
	AccessProtected Access = iota
	AccessPublic
)

// Outcome is what a guard decided for the current state.
type Outcome int

const (
	// Render shows the page.
	Render Outcome = iota
	// Wait shows a loading indicator; the session check is still pending.
	Wait
	// Redirect sends the user to Decision.Target.
	Redirect
)

func (o Outcome) String() string {
	switch o {
	case Render:
		return "render"
	case Wait:
		return "wait"
	default:
		return "redirect"
	}
}

// Decision is the result of resolving a route.
type Decision struct {
	Outcome Outcome
	Target  string
}

// AccessFor returns the guard for path. Only the login and register pages
// are public.
func AccessFor(path string) Access {
	switch path {
	case RouteLogin, RouteRegister:
		return AccessPublic
	}
	return AccessProtected
}

// Resolve applies the route guards to path under s. The root path always
// forwards to the dashboard.
func Resolve(path string, s session.State) Decision {
	path = normalize(path)
	if path == RouteRoot {
		return Decision{Outcome: Redirect, Target: RouteDashboard}
	}

	switch s.Status() {
	case session.StatusChecking:
		return Decision{Outcome: Wait}
	case session.StatusAuthenticated:
		if AccessFor(path) == AccessPublic {
			return Decision{Outcome: Redirect, Target: RouteDashboard}
		}
	default:
		if AccessFor(path) == AccessProtected {
			return Decision{Outcome: Redirect, Target: RouteLogin}
		}
	}
	return Decision{Outcome: Render}
}

func normalize(path string) string {
	if path == "" {
		return RouteRoot
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return path
}
