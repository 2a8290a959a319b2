package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"ffarena/announcer"
	"ffarena/api"
	"ffarena/config"
	"ffarena/database"
	"ffarena/events"
	"ffarena/repository"
	"ffarena/scheduler"
	"ffarena/service"
)

// Run initializes and starts the application
func Run(ctx context.Context) error {
	log.Info("Starting tournament platform...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize database connection
	log.Info("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	// Initialize event bus and unit of work factory
	eventBus := events.NewBus()
	uowFactory := repository.NewUnitOfWorkFactory(db, eventBus)

	// Initialize services
	registrationService := service.NewRegistrationService(uowFactory)
	lifecycleService := service.NewLifecycleService(uowFactory)
	walletService := service.NewWalletService(uowFactory)
	tournamentService := service.NewTournamentService(uowFactory)

	// Discord announcements are optional
	if cfg.DiscordToken != "" {
		log.Info("Initializing Discord announcer...")
		ann, err := announcer.New(announcer.Config{
			Token:     cfg.DiscordToken,
			ChannelID: cfg.DiscordChannelID,
		}, eventBus)
		if err != nil {
			return fmt.Errorf("failed to initialize Discord announcer: %w", err)
		}
		defer ann.Close()
	}

	// Periodic lifecycle sweep
	if cfg.SchedulerEnabled {
		sched, err := scheduler.New(lifecycleService, time.Duration(cfg.SweepIntervalSecs)*time.Second)
		if err != nil {
			return fmt.Errorf("failed to create scheduler: %w", err)
		}
		if err := sched.Start(ctx); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
		defer func() {
			if err := sched.Stop(); err != nil {
				log.WithError(err).Warn("Error stopping scheduler")
			}
		}()
	}

	// HTTP server
	router := api.NewRouter(registrationService, lifecycleService, walletService, tournamentService)
	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: router,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.HTTPAddr).Infof("HTTP server listening in %s mode", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	}

	log.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("HTTP server shutdown did not finish cleanly")
	}

	log.Info("Shutdown completed")
	return nil
}
