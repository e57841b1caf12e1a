// Package routes decides which surfaces a session may see. Both frontends
// (CLI subcommands, bot commands) resolve a route through Resolve before
// rendering anything, so protected content never flashes while the session
// is still restoring.
package routes

import "macromate-client/internal/session"

// Route names a renderable surface.
type Route string

const (
	RouteHome         Route = "/"
	RouteLogin        Route = "/login"
	RouteSignup       Route = "/signup"
	RouteDashboard    Route = "/dashboard"
	RouteMacroSetup   Route = "/macro-setup"
	RouteMealPlan     Route = "/meal-plan"
	RouteShoppingList Route = "/shopping-list"
	RouteMyMeals      Route = "/my-meals"
)

// SurfaceKind classifies who may see a route.
type SurfaceKind int

const (
	// Protected surfaces require an authenticated session.
	Protected SurfaceKind = iota
	// Public surfaces are for signed-out users only; an authenticated
	// session is redirected to the dashboard instead.
	Public
	// Smart surfaces render for signed-out users and redirect
	// authenticated ones (the homepage).
	Smart
)

var table = map[Route]SurfaceKind{
	RouteHome:         Smart,
	RouteLogin:        Public,
	RouteSignup:       Public,
	RouteDashboard:    Protected,
	RouteMacroSetup:   Protected,
	RouteMealPlan:     Protected,
	RouteShoppingList: Protected,
	RouteMyMeals:      Protected,
}

// Action says what the caller should do with a route.
type Action int

const (
	// ActionWait means the session is still resolving; render a
	// placeholder, never the wrapped content.
	ActionWait Action = iota
	ActionRender
	ActionRedirect
)

// Decision is the outcome of resolving a route against a session snapshot.
type Decision struct {
	Action Action
	Target Route // set when Action is ActionRedirect
}

// Resolve gates a navigation target. Unknown routes fall back to the root
// entry point.
func Resolve(route Route, snap session.Snapshot) Decision {
	kind, ok := table[route]
	if !ok {
		return Decision{Action: ActionRedirect, Target: RouteHome}
	}

	if snap.Loading {
		return Decision{Action: ActionWait}
	}

	authenticated := snap.Status == session.StatusAuthenticated
	switch kind {
	case Protected:
		if authenticated {
			return Decision{Action: ActionRender}
		}
		return Decision{Action: ActionRedirect, Target: RouteLogin}
	case Public:
		if authenticated {
			return Decision{Action: ActionRedirect, Target: RouteDashboard}
		}
		return Decision{Action: ActionRender}
	default: // Smart
		if authenticated {
			return Decision{Action: ActionRedirect, Target: RouteDashboard}
		}
		return Decision{Action: ActionRender}
	}
}
