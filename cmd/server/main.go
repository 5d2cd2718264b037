package main

import (
	"context"
	"crypto/sha256"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"neurofleet-console/internal/access"
	"neurofleet-console/internal/config"
	"neurofleet-console/internal/gateway"
	"neurofleet-console/internal/handlers"
	"neurofleet-console/internal/session"
	"neurofleet-console/internal/websocket"
)

func fatal(title string, err error, hints ...string) {
	log.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	log.Printf("❌ FATAL ERROR: %s", title)
	log.Printf("   Error: %v", err)
	for _, h := range hints {
		log.Printf("   %s", h)
	}
	log.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	log.Fatal(err)
}

// sessionProvider builds the configured session backend. The returned
// closer releases its connections.
func sessionProvider(ctx context.Context, cfg config.SessionConfig) (session.Provider, func(), error) {
	switch cfg.Backend {
	case config.SessionRedis:
		log.Println("🔌 Connecting to Redis for sessions...")
		client, err := session.ConnectRedis(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		log.Println("✅ Redis session store ready")
		return session.NewRedisProvider(client, cfg.IdleTTL, cfg.SecureOnly), func() { client.Close() }, nil

	case config.SessionPostgres:
		log.Println("🔌 Connecting to Postgres for sessions...")
		db, err := session.ConnectPostgres(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		log.Println("🔄 Running session migrations...")
		if err := session.MigratePostgres(db); err != nil {
			db.Close()
			return nil, nil, err
		}
		log.Println("✅ Postgres session store ready")
		return session.NewPostgresProvider(db, cfg.SecureOnly), func() { db.Close() }, nil

	default:
		// Separate signing and encryption keys derived from the one secret.
		hashKey := sha256.Sum256([]byte("sign:" + cfg.Secret))
		blockKey := sha256.Sum256([]byte("encrypt:" + cfg.Secret))
		log.Println("✅ Cookie session store ready")
		return session.NewCookieProvider(hashKey[:], blockKey[:], cfg.SecureOnly), func() {}, nil
	}
}

func main() {
	log.Println("═══════════════════════════════════════════════════════════════════")
	log.Println("🚀 NEUROFLEET CONSOLE STARTING")
	log.Println("═══════════════════════════════════════════════════════════════════")

	log.Println("📂 Loading configuration...")
	cfg, err := config.Load()
	if err != nil {
		fatal("Invalid configuration", err, "Check your .env file or environment variables")
	}
	log.Printf("✅ Backend API: %s (timeout %s)", cfg.APIBaseURL, cfg.APITimeout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sessions, closeSessions, err := sessionProvider(ctx, cfg.Session)
	if err != nil {
		fatal("Session store unavailable", err,
			"This is usually caused by:",
			"1. Wrong REDIS_URL or DATABASE_URL",
			"2. The session service is down",
			"3. Network connectivity issue")
	}
	defer closeSessions()
	log.Printf("✅ Session backend: %s", cfg.Session.Backend)

	bus := gateway.NewInvalidationBus()
	apiCfg := gateway.DefaultConfig(cfg.APIBaseURL)
	apiCfg.Timeout = cfg.APITimeout
	// The root client is only a template; every request binds its own store.
	api, err := gateway.New(apiCfg, session.NewMemoryStore(), bus)
	if err != nil {
		fatal("Gateway client setup failed", err)
	}

	wsHub := websocket.NewHub()
	wsHub.Subscribe(bus, access.LoginPath)
	if !(len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*") {
		allowed := make(map[string]bool, len(cfg.AllowedOrigins))
		for _, o := range cfg.AllowedOrigins {
			allowed[o] = true
		}
		websocket.SetCheckOrigin(func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || allowed[origin]
		})
	}
	log.Println("✅ WebSocket hub started")

	bus.Subscribe(func(ev gateway.InvalidationEvent) {
		log.Printf("🔐 Invalidation: user %q (session %s) after %s %s", ev.UserID, ev.SessionID, ev.Method, ev.URL)
	})

	router := handlers.NewRouter(handlers.Options{
		API:               api,
		Sessions:          sessions,
		Hub:               wsHub,
		TelemetryInterval: cfg.TelemetryInterval,
		AllowedOrigins:    cfg.AllowedOrigins,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		log.Println("🛑 Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Println("═══════════════════════════════════════════════════════════════════")
	log.Println("✅ ALL INITIALIZATION COMPLETE")
	log.Printf("🚀 Console starting on http://localhost:%s", cfg.Port)
	log.Println("🔌 Ready to accept requests!")
	log.Println("═══════════════════════════════════════════════════════════════════")

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		fatal("Server failed to start", err, "Port: "+cfg.Port)
	}
}
