package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"stakechat/api"
	"stakechat/bot"
	"stakechat/config"
	"stakechat/database"
	"stakechat/events"
	"stakechat/infrastructure"
	"stakechat/repository"
	"stakechat/service"
	"stakechat/worker"
)

// Run initializes and starts the application
func Run(ctx context.Context) error {
	cfg := config.Get()
	cfg.ConfigureLogging()
	log.WithField("environment", cfg.Environment).Info("Starting stakechat...")

	// Initialize database connection
	log.Info("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.GetDatabaseURL(), cfg.TickConcurrency)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()
	log.Info("Database connection established successfully")

	eventBus := events.NewBus()
	uowFactory := repository.NewUnitOfWorkFactory(db, eventBus)

	// Initialize services
	accountService := service.NewAccountService(uowFactory, cfg.StartingBalance)
	transferService := service.NewTransferService(uowFactory)
	wagerService := service.NewWagerService(uowFactory, service.SystemClock{}, cfg)
	log.Info("Services initialized successfully")

	// Forward committed events to NATS
	if cfg.NATSEnabled() {
		natsClient := infrastructure.NewNATSClient(cfg.NATSServers)
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		err := natsClient.Connect(connectCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("failed to initialize NATS: %w", err)
		}
		defer natsClient.Close()

		mapper := infrastructure.NewEventSubjectMapper()
		if err := natsClient.EnsureStream(infrastructure.DomainEventStream, mapper.GetAllSubjects()); err != nil {
			log.WithError(err).Warn("Failed to ensure domain event stream")
		}
		infrastructure.NewEventForwarder(natsClient, mapper).Register(eventBus)
		log.Info("NATS event forwarder enabled")
	}

	// Announce wager outcomes on Discord
	if cfg.DiscordEnabled() {
		notifier, err := bot.New(bot.Config{
			Token:     cfg.DiscordToken,
			ChannelID: cfg.DiscordChannelID,
		}, eventBus)
		if err != nil {
			return fmt.Errorf("failed to initialize Discord notifier: %w", err)
		}
		defer func() {
			if err := notifier.Close(); err != nil {
				log.WithError(err).Error("Error closing Discord notifier")
			}
		}()
	}

	stopWorker := worker.NewSettlementWorker(wagerService, cfg.TickInterval).Start(ctx)
	defer stopWorker()

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.NewServer(accountService, transferService, wagerService).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	serverErr := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.HTTPAddr).Info("HTTP API listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	// Wait for context cancellation or a server failure
	select {
	case <-ctx.Done():
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
	}

	log.Info("Shutting down...")

	// Give in-flight requests time to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("HTTP server shutdown incomplete")
	}

	log.Info("Shutdown completed")
	return nil
}
