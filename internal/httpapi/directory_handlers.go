package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"cdash.org/internal/audit"
	"cdash.org/internal/auth"
	"cdash.org/internal/directory"
)

func (a *API) handleAssets(w http.ResponseWriter, r *http.Request) {
	ident, ok := a.requireMember(w, r)
	if !ok {
		return
	}
	switch r.Method {
	case http.MethodGet:
		assets, err := a.assets.ListAssets(r.Context(), ident.Claims.OrganizationID)
		if err != nil {
			writeError(w, r, http.StatusInternalServerError, "could not list assets")
			return
		}
		if assets == nil {
			assets = []*directory.Asset{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"assets": assets})
	case http.MethodPost:
		var asset directory.Asset
		if err := decodeJSON(r, &asset); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		if strings.TrimSpace(asset.Name) == "" {
			writeError(w, r, http.StatusBadRequest, "asset name is required")
			return
		}
		asset.OrganizationID = ident.Claims.OrganizationID
		if err := a.assets.CreateAsset(r.Context(), &asset); err != nil {
			writeError(w, r, http.StatusInternalServerError, "could not create asset")
			return
		}
		_ = audit.LogEvent(r.Context(), "asset.created", map[string]any{
			"asset_id":        asset.ID,
			"organization_id": asset.OrganizationID,
		})
		writeJSON(w, http.StatusCreated, asset)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

type staffResponse struct {
	SubjectID string    `json:"subjectId"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Position  string    `json:"position"`
	Role      string    `json:"role"`
	Joined    time.Time `json:"joined"`
	AvatarURL string    `json:"avatarUrl,omitempty"`
	Bio       string    `json:"bio,omitempty"`
}

type createStaffRequest struct {
	SubjectID string `json:"subjectId"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Position  string `json:"position"`
	Role      string `json:"role"`
	AvatarURL string `json:"avatarUrl"`
	Bio       string `json:"bio"`
}

func (a *API) handleStaff(w http.ResponseWriter, r *http.Request) {
	ident, ok := a.requireMember(w, r)
	if !ok {
		return
	}
	switch r.Method {
	case http.MethodGet:
		records, err := a.store.Staff(r.Context()).ListByOrg(r.Context(), ident.Claims.OrganizationID)
		if err != nil {
			writeError(w, r, http.StatusInternalServerError, "could not list staff")
			return
		}
		out := make([]staffResponse, 0, len(records))
		for _, rec := range records {
			out = append(out, staffResponse{
				SubjectID: rec.SubjectID,
				Name:      rec.Name,
				Email:     rec.Email,
				Position:  rec.Position,
				Role:      string(rec.Role),
				Joined:    rec.Joined,
				AvatarURL: rec.AvatarURL,
				Bio:       rec.Bio,
			})
		}
		writeJSON(w, http.StatusOK, map[string]any{"staff": out})
	case http.MethodPost:
		// Direct staff creation is a management action, not the join flow.
		if ident.Claims.Role != auth.RoleAdministrator {
			writeError(w, r, http.StatusForbidden, "administrator role required")
			return
		}
		var req createStaffRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		if strings.TrimSpace(req.Name) == "" {
			writeError(w, r, http.StatusBadRequest, "staff name is required")
			return
		}
		rec := &auth.StaffRecord{
			OrganizationID: ident.Claims.OrganizationID,
			SubjectID:      req.SubjectID,
			Name:           req.Name,
			Email:          req.Email,
			Position:       req.Position,
			Role:           auth.Role(req.Role),
			Joined:         time.Now().UTC(),
			AvatarURL:      req.AvatarURL,
			Bio:            req.Bio,
		}
		if rec.Role == "" {
			rec.Role = auth.RoleMember
		}
		if err := a.store.Staff(r.Context()).Create(r.Context(), rec); err != nil {
			writeError(w, r, http.StatusInternalServerError, "could not create staff record")
			return
		}
		_ = audit.LogEvent(r.Context(), "staff.created", map[string]any{
			"organization_id":  rec.OrganizationID,
			"staff_subject_id": rec.SubjectID,
			"role":             string(rec.Role),
		})
		writeJSON(w, http.StatusCreated, staffResponse{
			SubjectID: rec.SubjectID,
			Name:      rec.Name,
			Email:     rec.Email,
			Position:  rec.Position,
			Role:      string(rec.Role),
			Joined:    rec.Joined,
			AvatarURL: rec.AvatarURL,
			Bio:       rec.Bio,
		})
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

type renameOrganizationRequest struct {
	Name string `json:"name"`
}

func (a *API) handleOrganization(w http.ResponseWriter, r *http.Request) {
	ident, ok := a.requireMember(w, r)
	if !ok {
		return
	}
	orgs := a.store.Organizations(r.Context())

	switch r.Method {
	case http.MethodGet:
	case http.MethodPut:
		if ident.Claims.Role != auth.RoleAdministrator {
			writeError(w, r, http.StatusForbidden, "administrator role required")
			return
		}
		var req renameOrganizationRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		if strings.TrimSpace(req.Name) == "" {
			writeError(w, r, http.StatusBadRequest, "organization name is required")
			return
		}
		if err := orgs.Rename(r.Context(), ident.Claims.OrganizationID, strings.TrimSpace(req.Name)); err != nil {
			writeError(w, r, http.StatusInternalServerError, "could not update organization")
			return
		}
		_ = audit.LogEvent(r.Context(), "organization.renamed", map[string]any{
			"organization_id": ident.Claims.OrganizationID,
		})
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPut)
		return
	}

	org, err := orgs.Find(r.Context(), ident.Claims.OrganizationID)
	if errors.Is(err, auth.ErrNotFound) {
		writeError(w, r, http.StatusNotFound, "organization not found")
		return
	}
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "could not load organization")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":        org.ID,
		"name":      org.Name,
		"createdAt": org.CreatedAt,
	})
}
