package auth

import "strings"

// SessionState is the only thing the decider observes about authentication.
// Underlying failure causes are deliberately invisible here.
type SessionState int

const (
	NoSession SessionState = iota
	ValidSession
	InvalidSession
)

func (s SessionState) String() string {
	switch s {
	case NoSession:
		return "none"
	case ValidSession:
		return "valid"
	case InvalidSession:
		return "invalid"
	}
	return "unknown"
}

// PathClass classifies a requested path for authorization purposes.
type PathClass int

const (
	// PathUnclassified passes through untouched (static assets and such).
	PathUnclassified PathClass = iota
	// PathPublic covers login, join and provisioning pages plus the root.
	PathPublic
	// PathProtected requires an organization; some protected paths further
	// require the Administrator role.
	PathProtected
)

// Redirect targets. The login redirect for a role failure carries a query
// indicator the login page turns into an "access denied" message.
const (
	LoginPath            = "/login"
	JoinPath             = "/join"
	DashboardPath        = "/dashboard"
	UnauthorizedLoginURL = "/login?error=unauthorized"
)

var protectedPrefixes = []string{
	DashboardPath,
	"/assets",
	"/staff",
	"/reports",
	"/settings",
}

// Administrator-only page prefixes.
var adminPrefixes = []string{
	"/settings",
}

var publicPrefixes = []string{
	LoginPath,
	JoinPath,
	"/create-organization",
}

// provisioningPrefixes are the public paths an authenticated subject without
// an organization is allowed to stay on.
var provisioningPrefixes = []string{
	JoinPath,
	"/create-organization",
}

// ClassifyPath maps a request path onto the decision table's path classes.
func ClassifyPath(path string) PathClass {
	if path == "/" {
		return PathPublic
	}
	if hasAnyPrefix(path, protectedPrefixes) {
		return PathProtected
	}
	if hasAnyPrefix(path, publicPrefixes) {
		return PathPublic
	}
	return PathUnclassified
}

// RequiresAdministrator reports whether the path is role-gated beyond mere
// membership.
func RequiresAdministrator(path string) bool {
	return hasAnyPrefix(path, adminPrefixes)
}

// Decision is the decider's terminal action for one request.
type Decision struct {
	// Allow lets the request proceed. Mutually exclusive with RedirectTo.
	Allow bool
	// RedirectTo intercepts the request with a redirect when non-empty.
	RedirectTo string
	// ClearSession orders the cookie cleared before responding.
	ClearSession bool
}

func (d Decision) String() string {
	switch {
	case d.Allow && d.ClearSession:
		return "allow_clear"
	case d.Allow:
		return "allow"
	case d.ClearSession:
		return "redirect_clear"
	default:
		return "redirect"
	}
}

// Decide is the route authorization decision function. It is pure: the same
// (path, state, claims) triple always yields the same decision, and the table
// below is the single source of truth.
//
//	NoSession      × Protected             → redirect login
//	NoSession      × Public/Unclassified   → allow
//	InvalidSession × Protected             → clear, redirect login
//	InvalidSession × Public/Unclassified   → clear, allow
//	Valid, no org  × join/provisioning     → allow
//	Valid, no org  × other classified path → redirect join
//	Valid, org     × login/join/create     → redirect dashboard
//	Valid, org     × admin path, not admin → clear, redirect login?error=unauthorized
//	Valid, org     × Protected, role ok    → allow
//
// Unclassified paths pass through untouched for every session state.
func Decide(path string, state SessionState, claims Claims) Decision {
	class := ClassifyPath(path)

	switch state {
	case NoSession:
		if class == PathProtected {
			return Decision{RedirectTo: LoginPath}
		}
		return Decision{Allow: true}

	case InvalidSession:
		// Fail closed and drop the unusable artifact either way.
		if class == PathProtected {
			return Decision{RedirectTo: LoginPath, ClearSession: true}
		}
		return Decision{Allow: true, ClearSession: true}

	case ValidSession:
		if !claims.HasOrganization() {
			if class == PathUnclassified || hasAnyPrefix(path, provisioningPrefixes) {
				return Decision{Allow: true}
			}
			return Decision{RedirectTo: JoinPath}
		}
		if class == PathPublic && path != "/" {
			return Decision{RedirectTo: DashboardPath}
		}
		if class == PathProtected && RequiresAdministrator(path) && claims.Role != RoleAdministrator {
			return Decision{RedirectTo: UnauthorizedLoginURL, ClearSession: true}
		}
		return Decision{Allow: true}
	}

	// Unknown states fail closed.
	return Decision{RedirectTo: LoginPath, ClearSession: true}
}

func hasAnyPrefix(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}
