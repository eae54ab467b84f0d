package main

import (
	"context"
	"database/sql"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	_ "modernc.org/sqlite"

	"etag/internal/adapters/claimsapi"
	emailPkg "etag/internal/adapters/email"
	"etag/internal/adapters/geocode"
	web "etag/internal/adapters/http"
	"etag/internal/adapters/storage"
	auditStore "etag/internal/adapters/storage/audit"
	noticeStore "etag/internal/adapters/storage/notice"
	sessionStore "etag/internal/adapters/storage/session"
	"etag/internal/config"
	"etag/internal/domain/location"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	setupLogging(cfg.LogLevel)

	// Initialize database with WAL mode, foreign keys, and busy timeout
	dsn := cfg.DBPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	// Connection pool settings for WAL mode
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)

	if err := db.Ping(); err != nil {
		log.Fatalf("database unreachable: %v", err)
	}

	if err := storage.InitDB(db); err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}

	timedDB := storage.NewTimedDB(db, cfg.SlowQueryMs)

	sessions := sessionStore.NewSQLiteStore(timedDB)
	notices := noticeStore.NewSQLiteStore(timedDB)
	audits := auditStore.NewSQLiteStore(timedDB)

	// Sweep expired sessions hourly
	stopSweep := make(chan struct{})
	go sweepSessions(sessions, stopSweep)
	defer close(stopSweep)

	api := claimsapi.New(cfg.APIBaseURL, &http.Client{Timeout: 15 * time.Second})

	var geocoder location.Geocoder
	if cfg.GeocodeAPIKey != "" {
		geocoder = geocode.NewGoogle(cfg.GeocodeBaseURL, cfg.GeocodeAPIKey, &http.Client{Timeout: 10 * time.Second})
		slog.Info("geocoder configured", "provider", "google")
	} else {
		geocoder = geocode.Static{Address: "1 Development Lane"}
		slog.Warn("geocoder configured (static fake, set geocode_api_key for real lookups)")
	}

	var sender emailPkg.Sender
	if cfg.ResendAPIKey != "" {
		sender = emailPkg.NewResendSender(cfg.ResendAPIKey, cfg.EmailFrom)
		slog.Info("email sender configured", "provider", "resend")
	} else {
		sender = emailPkg.NewNoopSender()
		if cfg.IsProd() {
			slog.Warn("resend_api_key is not set, email delivery is DISABLED in production")
		} else {
			slog.Info("email sender configured", "provider", "noop")
		}
	}

	mux := web.NewMux(*cfg, &web.Deps{
		API:      api,
		Geocoder: geocoder,
		Sessions: sessions,
		Notices:  notices,
		Audit:    audits,
		Email:    sender,
	})

	slog.Info("server starting", "version", version, "addr", cfg.Addr, "env", cfg.Env, "api", cfg.APIBaseURL)
	if err := http.ListenAndServe(cfg.Addr, mux); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}

// setupLogging installs a text slog handler at the configured level.
func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
}

// sweepSessions removes expired session rows until stop is closed.
func sweepSessions(sessions sessionStore.Store, stop <-chan struct{}) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			n, err := sessions.DeleteExpired(ctx, time.Now())
			cancel()
			if err != nil {
				slog.Error("session_sweep_failed", "error", err)
			} else if n > 0 {
				slog.Info("session_sweep", "deleted", n)
			}
		case <-stop:
			return
		}
	}
}
