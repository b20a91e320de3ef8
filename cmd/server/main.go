package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	oauth2lib "golang.org/x/oauth2"

	"github.com/panyam/secrets"
	"github.com/panyam/secrets/metrics"
	googleoauth "github.com/panyam/secrets/oauth2"
	fsstore "github.com/panyam/secrets/stores/fs"
	gormstore "github.com/panyam/secrets/stores/gorm"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := LoadConfig()
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	var store secrets.CredentialStore
	if cfg.DatabaseURL != "" {
		db, err := gormstore.Open(cfg.DatabaseURL)
		if err != nil {
			slog.Error("failed to open database", "err", err)
			os.Exit(1)
		}
		store = gormstore.NewCredentialStore(db)
	} else {
		slog.Info("DATABASE_URL not set, using file store", "dir", cfg.DataDir)
		store = fsstore.NewUserStore(cfg.DataDir)
	}

	sessions := secrets.NewSessionManager(cfg.SecureCookies())

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	gateway := &secrets.Gateway{
		Local:        &secrets.LocalStrategy{Store: store, Hasher: &secrets.BcryptHasher{}},
		Federated:    &secrets.FederatedStrategy{Store: store},
		Sessions:     sessions,
		Metrics:      collector,
		JWTSecretKey: cfg.JWTSecretKey,
		JWTIssuer:    "secrets",
	}

	google := googleoauth.NewGoogleOAuth2(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleCallbackURL,
		func(assertion secrets.Assertion, token *oauth2lib.Token, w http.ResponseWriter, r *http.Request) {
			gateway.Login(w, r, secrets.StrategyFederated, secrets.Credentials{Assertion: &assertion})
		})

	srv := &server{gateway: gateway, google: google}

	// Scrape and liveness endpoints stay outside the session middleware
	// so probes never allocate sessions.
	outer := http.NewServeMux()
	outer.Handle("/metrics", metrics.Handler(registry))
	outer.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	outer.Handle("/", sessions.Middleware(srv.routes()))

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           outer,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("server starting", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "err", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
