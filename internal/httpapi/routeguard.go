package httpapi

import (
	"context"
	"net/http"
	"strings"

	"cdash.org/internal/auth"
	"cdash.org/internal/obs"
)

// guardSkipPrefixes are request prefixes the route guard never touches: API
// routes carry their own checks and static assets are served as-is.
var guardSkipPrefixes = []string{
	"/api/",
	"/auth/",
	"/static/",
	"/_assets/",
}

// routeGuard applies the route authorization decision function to page
// navigations. It observes only {no session, valid session, invalid session};
// verification failures of any cause collapse into InvalidSession, and a
// verification timeout is treated the same way. The guard never allows
// implicitly on error.
func (a *API) routeGuard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		for _, prefix := range guardSkipPrefixes {
			if strings.HasPrefix(path, prefix) {
				next.ServeHTTP(w, r)
				return
			}
		}
		if path == "/favicon.ico" {
			next.ServeHTTP(w, r)
			return
		}

		state := auth.NoSession
		var claims auth.Claims
		req := r

		if artifact, ok := auth.ReadSessionCookie(r); ok {
			ctx, cancel := context.WithTimeout(r.Context(), a.verifyTimeout)
			ident, err := a.provider.VerifySession(ctx, artifact)
			cancel()
			if err != nil {
				state = auth.InvalidSession
			} else {
				state = auth.ValidSession
				claims = ident.Claims
				req = r.WithContext(auth.ContextWithIdentity(r.Context(), *ident))
			}
		}

		decision := auth.Decide(path, state, claims)
		obs.CountRouteDecision(decision.String())

		if decision.ClearSession {
			a.cookies.Revoke(w)
		}
		if decision.RedirectTo != "" {
			http.Redirect(w, req, decision.RedirectTo, http.StatusFound)
			return
		}
		next.ServeHTTP(w, req)
	})
}

// requireSession authenticates a request by its session cookie. Used by the
// JSON endpoints, which respond with statuses instead of redirects.
func (a *API) requireSession(w http.ResponseWriter, r *http.Request) (auth.Identity, bool) {
	artifact, ok := auth.ReadSessionCookie(r)
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return auth.Identity{}, false
	}
	ctx, cancel := context.WithTimeout(r.Context(), a.verifyTimeout)
	defer cancel()
	ident, err := a.provider.VerifySession(ctx, artifact)
	if err != nil {
		a.cookies.Revoke(w)
		writeError(w, r, http.StatusUnauthorized, "invalid session")
		return auth.Identity{}, false
	}
	return *ident, true
}

// requireMember additionally demands resolved organization claims.
func (a *API) requireMember(w http.ResponseWriter, r *http.Request) (auth.Identity, bool) {
	ident, ok := a.requireSession(w, r)
	if !ok {
		return auth.Identity{}, false
	}
	if !ident.Claims.HasOrganization() {
		writeError(w, r, http.StatusForbidden, "no organization")
		return auth.Identity{}, false
	}
	return ident, true
}
