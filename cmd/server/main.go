package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/shopledger/internal/app"
	"github.com/mamadbah2/shopledger/internal/config"
	"github.com/mamadbah2/shopledger/internal/events/kafka"
	"github.com/mamadbah2/shopledger/internal/scheduler"
	"github.com/mamadbah2/shopledger/internal/server/handlers"
	"github.com/mamadbah2/shopledger/internal/server/router"
	commandsvc "github.com/mamadbah2/shopledger/internal/service/commands"
	exportsvc "github.com/mamadbah2/shopledger/internal/service/export"
	ledgersvc "github.com/mamadbah2/shopledger/internal/service/ledger"
	reportingsvc "github.com/mamadbah2/shopledger/internal/service/reporting"
	whatsappsvc "github.com/mamadbah2/shopledger/internal/service/whatsapp"
	"github.com/mamadbah2/shopledger/pkg/clients/gotenberg"
	"github.com/mamadbah2/shopledger/pkg/clients/whatsapp"
	"github.com/mamadbah2/shopledger/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New())
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	storage, err := app.OpenStorage(ctx, cfg, true, baseLogger)
	if err != nil {
		baseLogger.Fatal("failed to init storage", zap.Error(err))
	}
	defer func() {
		if err := storage.Close(context.Background()); err != nil {
			baseLogger.Error("failed to close storage", zap.Error(err))
		}
	}()

	loc := cfg.Location()
	opts := []ledgersvc.Option{}
	if len(cfg.Kafka.Brokers) > 0 {
		publisher := kafka.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, baseLogger.Named("events.kafka"))
		defer func() {
			if err := publisher.Close(); err != nil {
				baseLogger.Error("failed to flush kafka publisher", zap.Error(err))
			}
		}()
		opts = append(opts, ledgersvc.WithPublisher(publisher))
		baseLogger.Info("kafka transaction events enabled", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))
	}

	ledgerSvc := ledgersvc.NewService(storage.Gateway.LoadState(ctx), storage.Gateway, baseLogger.Named("svc.ledger"), opts...)
	if problems := ledgerSvc.Verify(); len(problems) > 0 {
		baseLogger.Warn("stored quantities disagree with the transaction log", zap.Int("discrepancies", len(problems)), zap.Any("details", problems))
	}

	var renderer gotenberg.Client
	if cfg.Reporting.GotenbergURL != "" {
		renderer = gotenberg.NewClient(cfg.Reporting.GotenbergURL)
		if err := renderer.Ping(ctx); err != nil {
			baseLogger.Warn("gotenberg not reachable, pdf exports may fail", zap.Error(err))
		}
	} else {
		baseLogger.Warn("gotenberg url missing, pdf exports disabled")
	}

	reportingSvc := reportingsvc.NewService(ledgerSvc, loc, baseLogger.Named("svc.reporting"))
	exporter := exportsvc.NewExporter(ledgerSvc, renderer, cfg.Reporting.Currency, loc, baseLogger.Named("svc.export"))
	commandDispatcher := commandsvc.NewService(ledgerSvc, loc, baseLogger.Named("svc.commands"))

	ledgerHandler := handlers.NewLedgerHandler(ledgerSvc, commandDispatcher, exporter, loc, baseLogger.Named("handlers.ledger"))

	var webhookHandler *handlers.WebhookHandler
	if cfg.WhatsApp.Enabled() {
		chat := whatsappsvc.NewCommandService(cfg.WhatsApp, whatsapp.NewClient(cfg.WhatsApp), commandDispatcher, baseLogger.Named("svc.whatsapp"))
		webhookHandler = handlers.NewWebhookHandler(chat, baseLogger.Named("handlers.webhook"))
	}
	engine := router.New(ledgerHandler, webhookHandler, baseLogger.Named("router"))

	sched := scheduler.NewScheduler(cfg.Reporting.CronSchedule, loc, reportingSvc, storage.Archives, baseLogger.Named("scheduler"))
	if err := sched.Start(); err != nil {
		baseLogger.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port), zap.String("storage", cfg.Storage.Backend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}
