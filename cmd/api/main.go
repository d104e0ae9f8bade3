package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"cdash.org/internal/auth"
	"cdash.org/internal/directory"
	"cdash.org/internal/httpapi"
	"cdash.org/internal/idp"
	"cdash.org/internal/obs"
)

var (
	version = "0.3.1"
	commit  = "dev"
)

func main() {
	obs.Init()
	obs.InitBuildInfo(version, commit)

	dsn := os.Getenv("CDASH_PG_DSN")
	if dsn == "" {
		log.Fatal("missing CDASH_PG_DSN")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	provider, err := buildProvider(db)
	if err != nil {
		log.Fatalf("identity provider: %v", err)
	}

	store := auth.NewPGStore(db)
	resolver := auth.NewResolver(store)
	synchronizer := auth.NewSynchronizer(provider, resolver)
	provisioner := auth.NewProvisioner(store, synchronizer)

	api := httpapi.New(httpapi.Config{
		Version:      version,
		ReadyProbe:   httpapi.ReadyProbe{DB: db},
		Provider:     provider,
		Store:        store,
		Assets:       directory.NewPGStore(db),
		Synchronizer: synchronizer,
		Provisioner:  provisioner,
		Cookies:      auth.NewCookieManager(),
	})

	addr := os.Getenv("CDASH_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting cdash-api %s on %s", version, srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	_ = db.Close()
	log.Println("Stopped")
}

// buildProvider prefers the service-account credential; without one the
// process falls back to degraded HS256 signing so local development still
// works against the same flows.
func buildProvider(db *sql.DB) (*idp.Service, error) {
	claims := idp.NewPGClaimsStore(db)

	if raw := os.Getenv("CDASH_IDP_CREDENTIAL_B64"); raw != "" {
		cred, err := idp.ParseCredential(raw)
		if err != nil {
			return nil, err
		}
		return idp.New(cred, claims)
	}

	secret := os.Getenv("CDASH_IDP_DEV_SECRET")
	svc, err := idp.NewDegraded("cdash-dev", secret, claims)
	if err != nil {
		return nil, err
	}
	obs.Warn("identity provider running in degraded mode", map[string]any{
		"issuer": "cdash-dev",
	})
	return svc, nil
}
