package httpapi

import (
	"context"
	"errors"
	"net/http"

	"cdash.org/internal/audit"
	"cdash.org/internal/auth"
)

type sessionResponse struct {
	Status         string `json:"status"`
	OrganizationID string `json:"organizationId,omitempty"`
	Role           string `json:"role,omitempty"`
}

func (a *API) handleSession(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		a.handleSessionCreate(w, r)
	case http.MethodDelete:
		a.handleSessionDelete(w, r)
	default:
		methodNotAllowed(w, r, http.MethodPost, http.MethodDelete)
	}
}

// handleSessionCreate exchanges a bearer ID token for a session cookie.
// Verification happens before resolution, and claims are persisted before the
// session artifact is minted.
func (a *API) handleSessionCreate(w http.ResponseWriter, r *http.Request) {
	token, err := extractBearerToken(r.Header.Get("Authorization"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), a.verifyTimeout)
	defer cancel()
	ident, err := a.provider.VerifyIDToken(ctx, token)
	if err != nil {
		writeError(w, r, http.StatusUnauthorized, "invalid token")
		return
	}

	session, err := a.sync.Synchronize(r.Context(), ident.SubjectID)
	switch {
	case err == nil:
		a.cookies.Issue(w, session.Artifact, a.sync.SessionTTL())
		_ = audit.LogEvent(r.Context(), "session.created", map[string]any{
			"subject_id":      ident.SubjectID,
			"organization_id": session.Claims.OrganizationID,
			"role":            string(session.Claims.Role),
		})
		writeJSON(w, http.StatusOK, sessionResponse{
			Status:         "success",
			OrganizationID: session.Claims.OrganizationID,
		})
	case errors.Is(err, auth.ErrNoOrganization):
		// Authenticated but unprovisioned: issue a claims-free session so the
		// join flow is reachable, and let the client route to it.
		session, err = a.sync.IssueUnclaimed(r.Context(), ident.SubjectID)
		if err != nil {
			writeError(w, r, http.StatusInternalServerError, "session could not be established")
			return
		}
		a.cookies.Issue(w, session.Artifact, a.sync.SessionTTL())
		_ = audit.LogEvent(r.Context(), "session.created", map[string]any{
			"subject_id":    ident.SubjectID,
			"unprovisioned": true,
		})
		writeJSON(w, http.StatusOK, sessionResponse{Status: "success"})
	case errors.Is(err, auth.ErrResolutionFailed):
		writeError(w, r, http.StatusInternalServerError, "membership resolution failed, retry")
	case errors.Is(err, auth.ErrClaimsWriteFailed):
		writeError(w, r, http.StatusInternalServerError, "session could not be established")
	default:
		writeError(w, r, http.StatusInternalServerError, "session could not be established")
	}
}

// handleSessionDelete clears the cookie unconditionally. Clearing an absent
// cookie is a no-op, so no authentication is required.
func (a *API) handleSessionDelete(w http.ResponseWriter, r *http.Request) {
	a.cookies.Revoke(w)
	_ = audit.LogEvent(r.Context(), "session.revoked", nil)
	writeJSON(w, http.StatusOK, sessionResponse{Status: "success"})
}

type joinRequest struct {
	InviteCode string `json:"inviteCode"`
}

// handleJoin runs the one-time membership workflow for an authenticated
// subject. Invalid invite codes are surfaced as inline form errors; a
// duplicate join settles on the existing membership.
func (a *API) handleJoin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	ident, ok := a.requireSession(w, r)
	if !ok {
		return
	}

	var req joinRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	result, err := a.provisioner.Join(r.Context(), ident, req.InviteCode)
	switch {
	case err == nil:
		a.cookies.Issue(w, result.Session.Artifact, a.sync.SessionTTL())
		_ = audit.LogEvent(r.Context(), "organization.joined", map[string]any{
			"subject_id":      ident.SubjectID,
			"organization_id": result.Membership.OrganizationID,
			"role":            string(result.Membership.Role),
			"created":         result.Created,
		})
		writeJSON(w, http.StatusOK, sessionResponse{
			Status:         "success",
			OrganizationID: result.Membership.OrganizationID,
			Role:           string(result.Membership.Role),
		})
	case errors.Is(err, auth.ErrInvalidInviteCode):
		writeError(w, r, http.StatusBadRequest, "invalid invite code")
	case errors.Is(err, auth.ErrResolutionFailed):
		writeError(w, r, http.StatusInternalServerError, "membership resolution failed, retry")
	default:
		writeError(w, r, http.StatusInternalServerError, "join failed")
	}
}

type createOrganizationRequest struct {
	Name string `json:"name"`
}

// handleCreateOrganization registers a new tenant and joins the creator as
// its first administrator.
func (a *API) handleCreateOrganization(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	ident, ok := a.requireSession(w, r)
	if !ok {
		return
	}

	var req createOrganizationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.Name == "" {
		writeError(w, r, http.StatusBadRequest, "organization name is required")
		return
	}

	org, result, err := a.provisioner.CreateOrganization(r.Context(), ident, req.Name)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "organization could not be created")
		return
	}
	a.cookies.Issue(w, result.Session.Artifact, a.sync.SessionTTL())
	_ = audit.LogEvent(r.Context(), "organization.created", map[string]any{
		"subject_id":      ident.SubjectID,
		"organization_id": org.ID,
	})
	writeJSON(w, http.StatusCreated, sessionResponse{
		Status:         "success",
		OrganizationID: org.ID,
		Role:           string(result.Membership.Role),
	})
}
