package auth

import (
	"net/http"
	"time"
)

// SessionCookieName is the wire name of the session artifact cookie.
const SessionCookieName = "session"

// CookieManager owns the session artifact's wire representation. It never
// inspects or trusts artifact contents; verification happens on the next
// request.
type CookieManager struct {
	// Secure may be disabled for plain-HTTP local development only.
	Secure bool
}

// NewCookieManager returns a production cookie manager (secure on).
func NewCookieManager() CookieManager {
	return CookieManager{Secure: true}
}

// Issue sets the session cookie with the given lifetime.
func (m CookieManager) Issue(w http.ResponseWriter, artifact string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    artifact,
		Path:     "/",
		MaxAge:   int(ttl / time.Second),
		HttpOnly: true,
		Secure:   m.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Revoke clears the cookie immediately, regardless of remaining TTL.
func (m CookieManager) Revoke(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ReadSessionCookie extracts the raw session artifact from a request.
func ReadSessionCookie(r *http.Request) (string, bool) {
	c, err := r.Cookie(SessionCookieName)
	if err != nil || c.Value == "" {
		return "", false
	}
	return c.Value, true
}
