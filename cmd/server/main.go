package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"railcal-service/internal/domain/repository"
	"railcal-service/internal/infrastructure/config"
	"railcal-service/internal/infrastructure/oauth"
	"railcal-service/internal/interface/imap"
	ifaceRepo "railcal-service/internal/interface/repository"
	"railcal-service/internal/interface/web"
	"railcal-service/internal/usecase"
	"railcal-service/pkg/extractor"
	"railcal-service/pkg/logger"
	"railcal-service/pkg/metrics"
)

func main() {
	// Create logger
	log := logger.NewLogger()
	log.Info("Starting Railcal Service")

	// Load configuration; missing credentials are a startup failure
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config", "error", err)
	}

	// Set up context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	location, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		log.Fatal("Failed to load timezone", "timezone", cfg.Timezone, "error", err)
	}

	m := metrics.NewMetrics("railcal")

	// Set up file-backed stores
	processedRepo := ifaceRepo.NewFileProcessedSetRepository(cfg.ProcessedSet, log)
	if err := processedRepo.Load(ctx); err != nil {
		// Reprocessing is safe (at-least-once); keep running.
		log.Error("Failed to load processed set, starting empty", "error", err)
	}

	calendarRepo := ifaceRepo.NewICSCalendarRepository(
		filepath.Join(cfg.CalendarDir, cfg.CalendarFile), log)

	// Arrival-time lookup via headless Chromium
	scheduleRepo := ifaceRepo.NewChromedpScheduleRepository(log)

	// Optional remote calendar sink
	var sinkRepo repository.CalendarSinkRepository
	if cfg.SinkEnabled() {
		googleOAuth := oauth.NewGoogleOAuth(
			cfg.GcalClientID,
			cfg.GcalClientSecret,
			cfg.GcalRefreshToken,
			log,
		)
		sinkRepo, err = ifaceRepo.NewGoogleCalendarRepository(
			ctx, googleOAuth.GetTokenSource(ctx), cfg.GcalCalendarID, cfg.Timezone, log)
		if err != nil {
			log.Error("Failed to set up calendar sink, continuing without it", "error", err)
			sinkRepo = nil
		} else {
			log.Info("Remote calendar sink enabled", "calendarId", cfg.GcalCalendarID)
		}
	}

	// Set up the pipeline
	ticketExtractor := extractor.NewExtractor(log)
	resolver := usecase.NewArrivalResolver(scheduleRepo, cfg.LookupTimeout, m, log)
	synthesizer := usecase.NewCalendarSynthesizer(location, log)
	processor := usecase.NewTicketProcessor(
		ticketExtractor, resolver, synthesizer,
		processedRepo, calendarRepo, sinkRepo, m, log)

	// Start the mailbox watcher in a goroutine
	watcher := imap.NewIMAPService(cfg, processor, log)
	go watcher.Run(ctx)

	// Set up HTTP server for calendar distribution and metrics
	webServer := web.NewServer(cfg.CalendarDir, log)
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      webServer.Handler(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	go func() {
		log.Info("Starting HTTP server", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error", "error", err)
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	log.Info("Received signal", "signal", sig)

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", "error", err)
	}

	cancel() // Stop the watcher between passes

	log.Info("Railcal Service stopped")
}
