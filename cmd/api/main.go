package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/kcexn/collaborate-core/internal/application/account"
	"github.com/kcexn/collaborate-core/internal/application/auth"
	"github.com/kcexn/collaborate-core/internal/application/document"
	"github.com/kcexn/collaborate-core/internal/config"
	jwtinfra "github.com/kcexn/collaborate-core/internal/infrastructure/jwt"
	"github.com/kcexn/collaborate-core/internal/infrastructure/postgres"
	"github.com/kcexn/collaborate-core/internal/infrastructure/scylla"
	"github.com/kcexn/collaborate-core/internal/pkg/logger"
	transporthttp "github.com/kcexn/collaborate-core/internal/transport/http"
	"github.com/kcexn/collaborate-core/internal/transport/ws"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()

	zlog, err := logger.Init(logger.Config{Level: cfg.LogLevel, Dev: cfg.LogDev})
	if err != nil {
		log.Fatalf("logger init: %v", err)
	}
	defer zlog.Sync() //nolint:errcheck

	ctx := context.Background()

	// Account store: connects, creates the keyspace and tables if missing.
	session, err := scylla.Connect(cfg.ScyllaNodes, cfg.ScyllaKeyspace)
	if err != nil {
		zlog.Fatal("scylla connect", zap.Error(err))
	}
	defer session.Close()
	if err := scylla.Bootstrap(ctx, session, zlog); err != nil {
		zlog.Fatal("scylla bootstrap", zap.Error(err))
	}
	userRepo := scylla.NewUserRepo(session)

	// Document store.
	pool, err := postgres.Connect(ctx, postgres.Config{
		Host:     cfg.DocDBHost,
		Port:     cfg.DocDBPort,
		User:     cfg.DocDBUser,
		Password: cfg.DocDBPassword,
		DBName:   cfg.DocDBName,
		SSLMode:  cfg.DocDBSSLMode,
	})
	if err != nil {
		zlog.Fatal("document db connect", zap.Error(err))
	}
	defer pool.Close()
	docRepo := postgres.NewDocumentRepo(pool)
	if err := docRepo.EnsureSchema(ctx); err != nil {
		zlog.Fatal("document db schema", zap.Error(err))
	}

	// JWT provider (optional — graceful fallback if keys are missing).
	var jwtProvider *jwtinfra.Provider
	if p, err := jwtinfra.NewProvider(cfg); err == nil {
		jwtProvider = p
	} else {
		zlog.Warn("JWT provider not available", zap.Error(err))
	}

	accountSvc := account.NewService(account.ServiceDeps{Store: userRepo, Gateway: session})
	authSvc := auth.NewService(accountSvc, jwtProvider)
	docSvc := document.NewService(docRepo, nil)

	hub := ws.NewHub(zlog)
	go hub.Run()
	wsHandler := ws.NewHandler(hub, docSvc, jwtProvider, cfg.AllowedOrigins, zlog)

	router := transporthttp.NewRouter(cfg, &transporthttp.Deps{
		Accounts:    accountSvc,
		Auth:        authSvc,
		Documents:   docSvc,
		JWTProvider: jwtProvider,
		WSHandler:   wsHandler,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		zlog.Info("server starting", zap.String("port", cfg.AppPort), zap.String("env", cfg.AppEnv))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zlog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Fatal("forced shutdown", zap.Error(err))
	}
	zlog.Info("server stopped")
}
