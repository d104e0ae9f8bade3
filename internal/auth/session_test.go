package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestCookieIssueAttributes(t *testing.T) {
	rec := httptest.NewRecorder()
	NewCookieManager().Issue(rec, "artifact-123", DefaultSessionTTL)

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("got %d cookies, want 1", len(cookies))
	}
	c := cookies[0]
	if c.Name != SessionCookieName || c.Value != "artifact-123" {
		t.Fatalf("cookie = %s=%s", c.Name, c.Value)
	}
	if c.Path != "/" {
		t.Fatalf("path = %q, want /", c.Path)
	}
	if !c.HttpOnly || !c.Secure {
		t.Fatalf("HttpOnly=%v Secure=%v, both must hold", c.HttpOnly, c.Secure)
	}
	if c.SameSite != http.SameSiteLaxMode {
		t.Fatalf("SameSite = %v, want Lax", c.SameSite)
	}
	if want := int(DefaultSessionTTL / time.Second); c.MaxAge != want {
		t.Fatalf("MaxAge = %d, want %d", c.MaxAge, want)
	}
}

func TestCookieRevoke(t *testing.T) {
	rec := httptest.NewRecorder()
	NewCookieManager().Revoke(rec)

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("got %d cookies, want 1", len(cookies))
	}
	c := cookies[0]
	if c.Value != "" || c.MaxAge >= 0 {
		t.Fatalf("revoke cookie = %q MaxAge=%d, want empty and negative", c.Value, c.MaxAge)
	}
}

func TestReadSessionCookie(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	if _, ok := ReadSessionCookie(r); ok {
		t.Fatal("read cookie from bare request")
	}

	r.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "artifact-123"})
	artifact, ok := ReadSessionCookie(r)
	if !ok || artifact != "artifact-123" {
		t.Fatalf("got %q/%v", artifact, ok)
	}
}

func TestReadSessionCookieEmptyValue(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Cookie", SessionCookieName+"=")
	if _, ok := ReadSessionCookie(r); ok {
		t.Fatal("empty cookie value treated as present")
	}
}
