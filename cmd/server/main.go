package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/aristath/tankintel/internal/adapters"
	"github.com/aristath/tankintel/internal/artifacts"
	"github.com/aristath/tankintel/internal/config"
	"github.com/aristath/tankintel/internal/database"
	"github.com/aristath/tankintel/internal/inference"
	"github.com/aristath/tankintel/internal/reliability"
	"github.com/aristath/tankintel/internal/scheduler"
	"github.com/aristath/tankintel/internal/server"
	"github.com/aristath/tankintel/internal/training"
	"github.com/aristath/tankintel/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		l := logger.New(logger.Config{Level: "info", Pretty: true})
		l.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})

	log.Info().Msg("Starting TankIntel")

	countries, err := config.LoadRegistry(cfg.ConfigsDir)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load country configurations")
	}
	log.Info().Strs("countries", countries.Countries()).Msg("Country configurations loaded")

	adapterReg, err := adapters.NewRegistry(countries)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build schema adapters")
	}

	store := artifacts.NewStore(cfg.ModelsDir)

	db, err := database.New(filepath.Join(cfg.DataDir, "tankintel.db"))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	ledger, err := database.NewLedger(db)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize training ledger")
	}

	events := server.NewEventsHub(log)

	trainer := training.NewTrainer(countries, adapterReg, store, cfg.DataDir, log,
		training.WithPublisher(events),
		training.WithRecorder(ledger),
	)

	svc := inference.NewService(countries, store, log)

	var backup *reliability.BackupService
	if cfg.Backup.Enabled() {
		s3Client, err := reliability.NewS3Client(context.Background(),
			cfg.Backup.Endpoint, cfg.Backup.Region, cfg.Backup.Bucket,
			cfg.Backup.AccessKeyID, cfg.Backup.SecretAccessKey, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize S3 client")
		}
		backup = reliability.NewBackupService(s3Client, cfg.ModelsDir, cfg.Backup.Prefix, log)
		log.Info().Str("bucket", cfg.Backup.Bucket).Msg("Artifact backups enabled")
	}

	sched := scheduler.New(log)
	if err := registerJobs(sched, cfg, trainer, backup); err != nil {
		log.Fatal().Err(err).Msg("Failed to register jobs")
	}
	sched.Start()
	defer sched.Stop()

	srv := server.New(server.Config{
		Port:      cfg.Port,
		Log:       log,
		DevMode:   cfg.DevMode,
		Inference: svc,
		Trainer:   trainer,
		Ledger:    ledger,
		Events:    events,
		Backup:    backup,
	})

	go func() {
		if err := srv.Start(); err != nil {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}

func registerJobs(sched *scheduler.Scheduler, cfg *config.Config, trainer *training.Trainer, backup *reliability.BackupService) error {
	if cfg.RetrainCron != "" {
		if err := sched.AddJob(cfg.RetrainCron, &scheduler.RetrainJob{Trainer: trainer}); err != nil {
			return err
		}
	}
	if backup != nil {
		if err := sched.AddJob("@daily", &scheduler.BackupJob{Backup: backup, Retention: cfg.Backup.Retention}); err != nil {
			return err
		}
	}
	return nil
}
