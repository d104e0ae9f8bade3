package httpapi

import (
	"net/http"
	"testing"
	"time"

	"cdash.org/internal/auth"
	"cdash.org/internal/directory"
)

func TestAssetsListScopedToOrganization(t *testing.T) {
	e := newEnv(t)
	cookie := e.member(t, "u-1", "org-1", auth.RoleMember)
	e.assets.assets = []*directory.Asset{
		{ID: "a-1", OrganizationID: "org-1", Name: "Laptop"},
		{ID: "a-2", OrganizationID: "org-2", Name: "Router"},
	}

	rec := e.do(t, http.MethodGet, "/api/assets", nil, cookie, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	list, ok := body["assets"].([]any)
	if !ok {
		t.Fatalf("body = %v", body)
	}
	if len(list) != 1 {
		t.Fatalf("got %d assets, want 1 (other tenant's asset leaked)", len(list))
	}
}

func TestAssetsListEmpty(t *testing.T) {
	e := newEnv(t)
	cookie := e.member(t, "u-1", "org-1", auth.RoleMember)

	rec := e.do(t, http.MethodGet, "/api/assets", nil, cookie, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if list, ok := body["assets"].([]any); !ok || len(list) != 0 {
		t.Fatalf("body = %v, want empty list not null", body)
	}
}

func TestAssetCreate(t *testing.T) {
	e := newEnv(t)
	cookie := e.member(t, "u-1", "org-1", auth.RoleMember)

	rec := e.do(t, http.MethodPost, "/api/assets", map[string]any{
		"name":     "Dell Latitude",
		"type":     "Hardware",
		"cost":     850000,
		"acquired": time.Now().UTC().Format(time.RFC3339),
	}, cookie, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if len(e.assets.assets) != 1 {
		t.Fatalf("stored %d assets", len(e.assets.assets))
	}
	// The organization comes from the session claims, never the body.
	if e.assets.assets[0].OrganizationID != "org-1" {
		t.Fatalf("organization = %q", e.assets.assets[0].OrganizationID)
	}
}

func TestAssetCreateRequiresName(t *testing.T) {
	e := newEnv(t)
	cookie := e.member(t, "u-1", "org-1", auth.RoleMember)

	rec := e.do(t, http.MethodPost, "/api/assets", map[string]any{"type": "Hardware"}, cookie, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestStaffList(t *testing.T) {
	e := newEnv(t)
	cookie := e.member(t, "u-1", "org-1", auth.RoleMember)

	rec := e.do(t, http.MethodGet, "/api/staff", nil, cookie, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	list, ok := body["staff"].([]any)
	if !ok || len(list) != 1 {
		t.Fatalf("body = %v", body)
	}
}

func TestStaffCreateRequiresAdministrator(t *testing.T) {
	e := newEnv(t)
	cookie := e.member(t, "u-1", "org-1", auth.RoleMember)

	rec := e.do(t, http.MethodPost, "/api/staff", map[string]string{
		"subjectId": "u-9", "name": "Grace",
	}, cookie, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestStaffCreateByAdministrator(t *testing.T) {
	e := newEnv(t)
	cookie := e.member(t, "u-1", "org-1", auth.RoleAdministrator)

	rec := e.do(t, http.MethodPost, "/api/staff", map[string]string{
		"subjectId": "u-9", "name": "Grace", "position": "Engineer",
	}, cookie, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	// Role defaults to Member when unspecified.
	if body["role"] != "Member" {
		t.Fatalf("role = %v", body["role"])
	}
}

func TestOrganizationGet(t *testing.T) {
	e := newEnv(t)
	cookie := e.member(t, "u-1", "org-1", auth.RoleMember)

	rec := e.do(t, http.MethodGet, "/api/organization", nil, cookie, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["id"] != "org-1" {
		t.Fatalf("body = %v", body)
	}
}

func TestOrganizationRename(t *testing.T) {
	e := newEnv(t)
	cookie := e.member(t, "u-1", "org-1", auth.RoleAdministrator)

	rec := e.do(t, http.MethodPut, "/api/organization", map[string]string{"name": "New Name"}, cookie, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["name"] != "New Name" {
		t.Fatalf("body = %v", body)
	}
}

func TestOrganizationRenameRequiresAdministrator(t *testing.T) {
	e := newEnv(t)
	cookie := e.member(t, "u-1", "org-1", auth.RoleMember)

	rec := e.do(t, http.MethodPut, "/api/organization", map[string]string{"name": "New Name"}, cookie, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestOrganizationRequiresMembership(t *testing.T) {
	e := newEnv(t)
	cookie := e.sessionCookie(t, "u-1", auth.Claims{})

	rec := e.do(t, http.MethodGet, "/api/organization", nil, cookie, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d", rec.Code)
	}
}
