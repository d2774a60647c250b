package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"notevault/internal/alerts"
	"notevault/internal/audit"
	"notevault/internal/auth"
	"notevault/internal/config"
	"notevault/internal/db"
	"notevault/internal/httpserver"
	"notevault/internal/logging"
	"notevault/internal/notes"
)

const accessTokenTTL = 15 * time.Minute

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	logger := logging.New()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	dbConn, err := db.Open(ctx, cfg.DBDSN)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer dbConn.Close()

	if err := db.RunMigrations(ctx, dbConn, "sql"); err != nil {
		log.Fatalf("run migrations: %v", err)
	}

	var sessionStore auth.SessionStore
	switch cfg.SessionBackend {
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			log.Fatalf("ping redis: %v", err)
		}
		sessionStore = auth.NewRedisStore(client)
	default:
		sessionStore = auth.NewMemoryStore()
	}

	userStore := auth.NewPostgresStore(dbConn)
	hasher := auth.NewHasher()
	signer := auth.NewSigner(cfg.SessionSecret)
	tokens := auth.NewTokenIssuer(cfg.SessionSecret, accessTokenTTL)
	authSvc := auth.NewService(userStore, sessionStore, hasher, signer, tokens, cfg.SessionTTL, logger)

	if err := authSvc.SeedFromFile(ctx, cfg.UsersPath); err != nil {
		log.Fatalf("seed users: %v", err)
	}

	auditStore := audit.NewStore(dbConn)
	alertStore := alerts.NewStore(dbConn)
	rules, err := alerts.LoadRules(cfg.AlertRulesPath)
	if err != nil {
		log.Fatalf("load alert rules: %v", err)
	}
	detector := alerts.NewDetector(rules, alertStore, auditStore, logger)
	recorder := audit.NewRecorder(auditStore, detector, logger)

	noteStore := notes.NewStore(dbConn)

	handler := httpserver.NewRouter(httpserver.RouterDeps{
		Logger:       logger,
		AuthService:  authSvc,
		AuthHandler:  auth.NewHandler(authSvc, recorder, logger, cfg.Production()),
		NoteHandler:  notes.NewHandler(noteStore, logger),
		NoteFinder:   noteStore,
		AuditHandler: &audit.QueryHandler{Store: auditStore, Logger: logger},
		AlertHandler: &alerts.Handler{Store: alertStore, Logger: logger},
	})
	server := httpserver.New(cfg.HTTPAddr, handler, logger)

	go auth.RunSweeper(ctx, sessionStore, cfg.SweepInterval, logger)

	go func() {
		if err := server.Start(); err != nil {
			log.Fatalf("http server: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	cancel()

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := server.Shutdown(ctxShutdown); err != nil {
		logger.Error("shutdown", "err", err)
	}
}
