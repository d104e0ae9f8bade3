package httpapi

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"cdash.org/internal/audit"
	"cdash.org/internal/auth"
	"cdash.org/internal/directory"
	"cdash.org/internal/obs"
)

const defaultVerifyTimeout = 3 * time.Second

// ReadyProbe reports whether downstream dependencies answer.
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// Config wires the HTTP layer. Every dependency is injected; nothing is
// initialized lazily.
type Config struct {
	Version      string
	ReadyProbe   ReadyProbe
	Provider     auth.IdentityProvider
	Store        auth.Store
	Assets       directory.Store
	Synchronizer *auth.Synchronizer
	Provisioner  *auth.Provisioner
	Cookies      auth.CookieManager

	// VerifyTimeout bounds every session/token verification call. On expiry
	// the request is treated as unauthenticated (fail closed).
	VerifyTimeout time.Duration
}

// API is the HTTP layer.
type API struct {
	mux           *http.ServeMux
	readyProbe    ReadyProbe
	version       string
	provider      auth.IdentityProvider
	store         auth.Store
	assets        directory.Store
	sync          *auth.Synchronizer
	provisioner   *auth.Provisioner
	cookies       auth.CookieManager
	verifyTimeout time.Duration
}

// New wires all routes.
func New(cfg Config) *API {
	a := &API{
		mux:           http.NewServeMux(),
		readyProbe:    cfg.ReadyProbe,
		version:       cfg.Version,
		provider:      cfg.Provider,
		store:         cfg.Store,
		assets:        cfg.Assets,
		sync:          cfg.Synchronizer,
		provisioner:   cfg.Provisioner,
		cookies:       cfg.Cookies,
		verifyTimeout: cfg.VerifyTimeout,
	}
	if a.verifyTimeout <= 0 {
		a.verifyTimeout = defaultVerifyTimeout
	}

	// Operational endpoints.
	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)
	a.mux.HandleFunc("/v1/info", a.Info)
	a.mux.Handle("/metrics", obs.Handler())

	// Session lifecycle and provisioning.
	a.mux.HandleFunc("/auth/session", a.handleSession)
	a.mux.HandleFunc("/auth/join", a.handleJoin)
	a.mux.HandleFunc("/auth/organizations", a.handleCreateOrganization)

	// Org-scoped CRUD consumed by the frontend.
	a.mux.HandleFunc("/api/assets", a.handleAssets)
	a.mux.HandleFunc("/api/staff", a.handleStaff)
	a.mux.HandleFunc("/api/organization", a.handleOrganization)

	// Everything else is a page navigation and goes through the route guard.
	a.mux.Handle("/", a.routeGuard(http.HandlerFunc(a.appShell)))

	return a
}

// Handler returns the fully wrapped handler for the server.
func (a *API) Handler() http.Handler {
	h := obs.Instrument(a.mux)
	h = LoggingJSON(h)
	h = RateLimit(h, 40, 20)
	h = MaxBodyBytes(h, 1<<20)
	h = CORS(h)
	h = SecurityHeaders(h)
	return RequestID(h)
}

// --- Operational handlers ---

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "cdash-api",
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		obs.SetReady(false)
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	obs.SetReady(true)
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}

func (a *API) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "cdash-api",
		"time":    time.Now().UTC().Format(time.RFC3339),
		"version": a.version,
	})
}

// appShell serves the application shell for classified page paths. The
// frontend owns everything past this point.
func (a *API) appShell(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" && auth.ClassifyPath(r.URL.Path) == auth.PathUnclassified {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte("<!doctype html><html><head><title>CDASH</title></head><body><div id=\"root\"></div></body></html>"))
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	body := map[string]any{"error": msg}
	if rid := audit.RequestIDFromContext(r.Context()); rid != "" {
		body["request_id"] = rid
	}
	writeJSON(w, code, body)
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.New("invalid JSON body")
	}
	return nil
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
}

func extractBearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", errors.New("missing bearer token")
	}
	const bearer = "Bearer "
	if !strings.HasPrefix(strings.ToLower(header), strings.ToLower(bearer)) {
		return "", errors.New("invalid authorization scheme")
	}
	token := strings.TrimSpace(header[len(bearer):])
	if token == "" {
		return "", errors.New("missing bearer token")
	}
	return token, nil
}
