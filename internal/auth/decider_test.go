package auth

import "testing"

func TestClassifyPath(t *testing.T) {
	cases := []struct {
		path string
		want PathClass
	}{
		{"/", PathPublic},
		{"/login", PathPublic},
		{"/join", PathPublic},
		{"/create-organization", PathPublic},
		{"/dashboard", PathProtected},
		{"/dashboard/overview", PathProtected},
		{"/assets", PathProtected},
		{"/staff", PathProtected},
		{"/reports", PathProtected},
		{"/settings", PathProtected},
		{"/static/app.js", PathUnclassified},
		{"/favicon.ico", PathUnclassified},
	}
	for _, tc := range cases {
		if got := ClassifyPath(tc.path); got != tc.want {
			t.Errorf("ClassifyPath(%q) = %v, want %v", tc.path, got, tc.want)
		}
	}
}

func TestDecide(t *testing.T) {
	member := Claims{OrganizationID: "org-1", Role: RoleMember}
	admin := Claims{OrganizationID: "org-1", Role: RoleAdministrator}

	cases := []struct {
		name   string
		path   string
		state  SessionState
		claims Claims
		want   Decision
	}{
		{"no session protected", "/dashboard", NoSession, Claims{}, Decision{RedirectTo: LoginPath}},
		{"no session login", "/login", NoSession, Claims{}, Decision{Allow: true}},
		{"no session root", "/", NoSession, Claims{}, Decision{Allow: true}},
		{"no session unclassified", "/static/app.js", NoSession, Claims{}, Decision{Allow: true}},

		{"invalid session protected", "/assets", InvalidSession, Claims{}, Decision{RedirectTo: LoginPath, ClearSession: true}},
		{"invalid session public", "/login", InvalidSession, Claims{}, Decision{Allow: true, ClearSession: true}},
		{"invalid session unclassified", "/static/app.js", InvalidSession, Claims{}, Decision{Allow: true, ClearSession: true}},

		{"valid no org protected", "/dashboard", ValidSession, Claims{}, Decision{RedirectTo: JoinPath}},
		{"valid no org login", "/login", ValidSession, Claims{}, Decision{RedirectTo: JoinPath}},
		{"valid no org join", "/join", ValidSession, Claims{}, Decision{Allow: true}},
		{"valid no org create", "/create-organization", ValidSession, Claims{}, Decision{Allow: true}},
		{"valid no org unclassified", "/static/app.js", ValidSession, Claims{}, Decision{Allow: true}},

		{"member dashboard", "/dashboard", ValidSession, member, Decision{Allow: true}},
		{"member root", "/", ValidSession, member, Decision{Allow: true}},
		{"member login bounces", "/login", ValidSession, member, Decision{RedirectTo: DashboardPath}},
		{"member join bounces", "/join", ValidSession, member, Decision{RedirectTo: DashboardPath}},
		{"member settings denied", "/settings", ValidSession, member, Decision{RedirectTo: UnauthorizedLoginURL, ClearSession: true}},
		{"admin settings", "/settings", ValidSession, admin, Decision{Allow: true}},
		{"admin login bounces", "/login", ValidSession, admin, Decision{RedirectTo: DashboardPath}},

		{"unknown role on admin path denied", "/settings", ValidSession, Claims{OrganizationID: "org-1", Role: "ICT Manager"}, Decision{RedirectTo: UnauthorizedLoginURL, ClearSession: true}},
		{"unknown role on member path allowed", "/dashboard", ValidSession, Claims{OrganizationID: "org-1", Role: "ICT Manager"}, Decision{Allow: true}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Decide(tc.path, tc.state, tc.claims)
			if got != tc.want {
				t.Fatalf("Decide(%q, %v, %+v) = %+v, want %+v", tc.path, tc.state, tc.claims, got, tc.want)
			}
		})
	}
}

func TestDecideIsPure(t *testing.T) {
	claims := Claims{OrganizationID: "org-1", Role: RoleMember}
	first := Decide("/dashboard", ValidSession, claims)
	for i := 0; i < 100; i++ {
		if got := Decide("/dashboard", ValidSession, claims); got != first {
			t.Fatalf("decision changed between calls: %+v vs %+v", got, first)
		}
	}
}

func TestDecideUnknownStateFailsClosed(t *testing.T) {
	got := Decide("/dashboard", SessionState(42), Claims{})
	if got.Allow {
		t.Fatalf("unknown session state allowed: %+v", got)
	}
	if !got.ClearSession || got.RedirectTo != LoginPath {
		t.Fatalf("unknown session state should clear and bounce to login, got %+v", got)
	}
}

func TestDecisionString(t *testing.T) {
	cases := []struct {
		d    Decision
		want string
	}{
		{Decision{Allow: true}, "allow"},
		{Decision{Allow: true, ClearSession: true}, "allow_clear"},
		{Decision{RedirectTo: LoginPath}, "redirect"},
		{Decision{RedirectTo: LoginPath, ClearSession: true}, "redirect_clear"},
	}
	for _, tc := range cases {
		if got := tc.d.String(); got != tc.want {
			t.Errorf("Decision%+v.String() = %q, want %q", tc.d, got, tc.want)
		}
	}
}
