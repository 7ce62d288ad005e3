package scheduler

import (
	"context"
	"time"

	"github.com/aristath/tankintel/internal/reliability"
	"github.com/aristath/tankintel/internal/training"
)

// RetrainJob retrains every configured country from its latest dataset.
type RetrainJob struct {
	Trainer *training.Trainer
}

func (j *RetrainJob) Name() string { return "retrain" }

func (j *RetrainJob) Timeout() time.Duration { return 2 * time.Hour }

func (j *RetrainJob) Run(ctx context.Context) error {
	j.Trainer.TrainAllCountries(ctx)
	return nil
}

// BackupJob archives model artifacts to remote storage and prunes old backups.
type BackupJob struct {
	Backup    *reliability.BackupService
	Retention int
}

func (j *BackupJob) Name() string { return "backup" }

func (j *BackupJob) Timeout() time.Duration { return 30 * time.Minute }

func (j *BackupJob) Run(ctx context.Context) error {
	if err := j.Backup.CreateAndUploadBackup(ctx); err != nil {
		return err
	}
	return j.Backup.RotateOldBackups(ctx, j.Retention)
}
