package main

import (
	"github.com/callsight/backend/internal/config"
	"github.com/callsight/backend/internal/dialer"
	"github.com/callsight/backend/internal/models"
	"github.com/callsight/backend/internal/services"
	"github.com/callsight/backend/pkg/logger"
)

// appServices holds all initialized services needed by the application.
type appServices struct {
	reportService   *services.ReportService
	snapshotService *services.SnapshotService
	scheduler       *services.SnapshotScheduler
	taskQueue       services.TaskQueue
	worker          *services.Worker
	cache           *services.ReportCache
}

// bootstrap initializes all application dependencies: database, upstream
// client, cache, services and schedulers.
func bootstrap(cfg *config.Config) *appServices {
	if err := models.InitDB(&cfg.Database); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	if err := models.AutoMigrate(); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}

	if err := models.SeedDefaultData(); err != nil {
		logger.Warn().Err(err).Msg("Failed to seed default data")
	}

	// Upstream dialer API client and fetcher
	client := dialer.NewClient(&cfg.Dialer)
	fetcher := dialer.NewFetcher(client, &cfg.Dialer)

	// Report cache with background sweep
	cache := services.NewReportCache(&cfg.Cache)
	cache.StartSweeper()

	reportService := services.NewReportService(fetcher, cache)
	snapshotService := services.NewSnapshotService(models.GetDB(), reportService)

	// Nightly snapshot scheduler
	scheduler := services.NewSnapshotScheduler(models.GetDB(), snapshotService, &cfg.Scheduler)
	scheduler.StartScheduler()

	// Report task queue (uses Redis if enabled, otherwise sync mode)
	taskQueue := services.InitTaskQueue(cfg)
	if syncQueue, ok := taskQueue.(*services.SyncQueue); ok {
		syncQueue.SetProcessor(snapshotService.ProcessReportTask)
	}

	// Start async worker if Redis is enabled
	var worker *services.Worker
	if cfg.Redis.Enabled {
		worker = services.InitWorker(&cfg.Redis)
		if worker != nil {
			worker.SetProcessor(snapshotService.ProcessReportTask)
			if err := worker.Start(); err != nil {
				logger.Errorf("Failed to start async worker: %v", err)
			}
		}
	}

	return &appServices{
		reportService:   reportService,
		snapshotService: snapshotService,
		scheduler:       scheduler,
		taskQueue:       taskQueue,
		worker:          worker,
		cache:           cache,
	}
}

// shutdown gracefully stops all services.
func (s *appServices) shutdown() {
	s.scheduler.StopScheduler()
	s.cache.StopSweeper()
	logger.Info().Msg("Schedulers stopped")

	if s.worker != nil {
		s.worker.Stop()
	}
	if s.taskQueue != nil {
		s.taskQueue.Close()
	}
}
