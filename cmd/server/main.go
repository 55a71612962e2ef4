package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/herdbook/internal/config"
	"github.com/mamadbah2/herdbook/internal/repository/mongodb"
	"github.com/mamadbah2/herdbook/internal/repository/sheets"
	"github.com/mamadbah2/herdbook/internal/scheduler"
	"github.com/mamadbah2/herdbook/internal/server/handlers"
	"github.com/mamadbah2/herdbook/internal/server/router"
	exportsvc "github.com/mamadbah2/herdbook/internal/service/export"
	"github.com/mamadbah2/herdbook/internal/service/herd"
	reportingsvc "github.com/mamadbah2/herdbook/internal/service/reporting"
	whatsappsvc "github.com/mamadbah2/herdbook/internal/service/whatsapp"
	whatsappclient "github.com/mamadbah2/herdbook/pkg/clients/whatsapp"
	"github.com/mamadbah2/herdbook/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.Log.Level))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	mongoRepo, err := mongodb.NewMongoDBRepository(context.Background(), cfg.MongoDB.URI, cfg.MongoDB.DBName, logger.Named(baseLogger, "repo.mongodb"))
	if err != nil {
		baseLogger.Fatal("failed to init mongodb repository", zap.Error(err))
	}
	defer func() {
		if err := mongoRepo.Close(context.Background()); err != nil {
			baseLogger.Error("failed to close mongodb connection", zap.Error(err))
		}
	}()

	indexCtx, cancelIndexes := context.WithTimeout(context.Background(), 30*time.Second)
	if err := mongoRepo.EnsureIndexes(indexCtx); err != nil {
		baseLogger.Fatal("failed to ensure mongodb indexes", zap.Error(err))
	}
	cancelIndexes()

	herdSvc := herd.NewService(mongoRepo, logger.Named(baseLogger, "svc.herd"), herd.WithLocation(cfg.Scheduler.Location()))

	var notifier whatsappsvc.Notifier
	if cfg.WhatsApp.Enabled() {
		whatsClient := whatsappclient.NewClient(cfg.WhatsApp)
		notifier = whatsappsvc.NewMetaWhatsAppService(whatsClient, logger.Named(baseLogger, "svc.whatsapp"))
		baseLogger.Info("whatsapp digest delivery enabled")
	} else {
		baseLogger.Warn("whatsapp credentials missing, digest delivery disabled")
	}
	reportingSvc := reportingsvc.NewService(herdSvc, notifier, logger.Named(baseLogger, "svc.reporting"))

	var exporter handlers.ExportService
	if cfg.Sheets.Enabled() {
		sheetsRepo, err := sheets.NewGoogleSheetRepository(context.Background(), cfg.Sheets, logger.Named(baseLogger, "repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets repository", zap.Error(err))
		}
		exporter = exportsvc.NewService(herdSvc, sheetsRepo, logger.Named(baseLogger, "svc.export"))
		baseLogger.Info("google sheets export enabled")
	} else {
		baseLogger.Warn("google sheets settings missing, milestone export disabled")
	}

	gin.SetMode(gin.ReleaseMode)
	herdHandler := handlers.NewHerdHandler(herdSvc, reportingSvc, exporter, logger.Named(baseLogger, "handlers.herd"))
	engine := router.New(herdHandler, logger.Named(baseLogger, "router"))

	var digests scheduler.DigestSender
	if notifier != nil {
		digests = reportingSvc
	}
	sched := scheduler.NewScheduler(cfg.Scheduler, herdSvc, digests, logger.Named(baseLogger, "scheduler"))
	if err := sched.Start(); err != nil {
		baseLogger.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port))
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
