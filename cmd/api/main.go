package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/teamdesk-hq/teamdesk-backend/config"
	"github.com/teamdesk-hq/teamdesk-backend/internal/auth"
	"github.com/teamdesk-hq/teamdesk-backend/internal/bootstrap"
	"github.com/teamdesk-hq/teamdesk-backend/internal/database"
	"github.com/teamdesk-hq/teamdesk-backend/internal/stream"
	"github.com/teamdesk-hq/teamdesk-backend/internal/stream/sweep"
)

const serviceName = "teamdesk-backend"

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("failed to load config")
	}

	if level, err := logrus.ParseLevel(cfg.App.LogLevel); err == nil {
		log.SetLevel(level)
	}

	bootstrap.SetGinMode(cfg.App.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	firebaseAuth, err := auth.InitializeFirebase(ctx, &cfg.Firebase)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize firebase")
	}

	if err := database.Migrate(&cfg.Database); err != nil {
		log.WithError(err).Fatal("failed to run migrations")
	}

	db, err := bootstrap.OpenDB(ctx, &cfg.Database)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to postgres")
	}
	defer db.Close()

	rdb, err := bootstrap.OpenRedis(ctx, &cfg.Redis)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to redis")
	}
	defer rdb.Close()

	streamClient := stream.NewClient(cfg.Stream.APIKey, cfg.Stream.APISecret, cfg.Stream.BaseURL)
	if !streamClient.Configured() {
		log.Warn("stream credentials missing, video endpoints will reject requests")
	}

	router, services := bootstrap.BuildRouter(bootstrap.RouterDeps{
		ServiceName:        serviceName,
		Version:            cfg.App.Version,
		AdminSecretCode:    cfg.Admin.SecretCode,
		RateLimitPerMinute: cfg.Admin.RateLimitPerMinute,
		DB:                 db,
		Redis:              rdb,
		FirebaseAuth:       firebaseAuth,
		StreamClient:       streamClient,
		Log:                log,
	})

	sweeper := sweep.NewSweeper(services.Stream, cfg.App.SweepInterval, cfg.App.SweepMinAge, log)
	if err := sweeper.Start(); err != nil {
		log.WithError(err).Fatal("failed to start orphan sweep")
	}
	defer sweeper.Stop()

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		log.WithField("port", cfg.Server.Port).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("server error")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("forced shutdown")
		os.Exit(1)
	}
}
