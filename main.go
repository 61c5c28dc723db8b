package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/isdelr/socialquest-be/internal/api"
	"github.com/isdelr/socialquest-be/internal/auth"
	"github.com/isdelr/socialquest-be/internal/config"
	"github.com/isdelr/socialquest-be/internal/database"
	"github.com/isdelr/socialquest-be/internal/logger"
	"github.com/isdelr/socialquest-be/internal/monitoring"
	"github.com/isdelr/socialquest-be/internal/repository"
	"github.com/isdelr/socialquest-be/internal/services"
	"github.com/isdelr/socialquest-be/internal/websocket"
	"github.com/rs/zerolog/log"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logger.Init(cfg.LogLevel, cfg.IsProduction())

	// Set up database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	if err := database.Migrate(context.Background(), db); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply database migrations")
	}

	// Set up WebSocket Hub
	hub := websocket.NewHub()
	go hub.Run()

	// Set up services
	store := repository.NewStore(db)
	issuer := auth.NewTokenIssuer(cfg.AccessSecret, cfg.RefreshSecret, cfg.AccessTTL, cfg.RefreshTTL)
	challengeService := services.NewChallengeService(store, hub)
	svc := api.Services{
		Auth:       services.NewAuthService(store, issuer, challengeService, cfg.StreakLocation),
		Users:      services.NewUserService(store, hub),
		Posts:      services.NewPostService(store, challengeService),
		Challenges: challengeService,
		Events:     services.NewEventService(store),
	}

	// Set up and run the optional challenge sweep
	var scheduler *monitoring.Scheduler
	if cfg.ChallengeSweepSchedule != "" {
		scheduler, err = monitoring.NewScheduler(cfg.ChallengeSweepSchedule, challengeService)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to set up challenge sweep")
		}
		scheduler.Run()
	}

	// Set up router
	router := api.NewRouter(cfg, issuer, hub, svc)

	// Set up server
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.ServerPort).Str("env", cfg.AppEnv).Msg("Server starting")
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	exitCode := 0
	select {
	case <-quit:
		log.Info().Msg("Shutting down server...")
	case err := <-serverErr:
		log.Error().Err(err).Msg("Server failed")
		exitCode = 1
	}

	if scheduler != nil {
		scheduler.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
		exitCode = 1
	}
	hub.Stop()

	log.Info().Msg("Server exiting")
	if exitCode != 0 {
		db.Close()
		os.Exit(exitCode)
	}
}
