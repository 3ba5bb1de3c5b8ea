package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// backupTimeout bounds a single backup run including the upload.
const backupTimeout = 10 * time.Minute

// BackupRunner creates a backup archive and uploads it.
// Satisfied by the reliability backup service.
type BackupRunner interface {
	CreateAndUploadBackup(ctx context.Context) error
}

// BackupJob uploads nightly database backups to object storage
type BackupJob struct {
	backups BackupRunner
	log     zerolog.Logger
}

// NewBackupJob creates a new backup job
func NewBackupJob(backups BackupRunner, log zerolog.Logger) *BackupJob {
	return &BackupJob{
		backups: backups,
		log:     log.With().Str("job", "backup").Logger(),
	}
}

// Name returns the job name
func (j *BackupJob) Name() string {
	return "backup"
}

// Run creates and uploads a backup archive
func (j *BackupJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), backupTimeout)
	defer cancel()

	if err := j.backups.CreateAndUploadBackup(ctx); err != nil {
		return fmt.Errorf("backup failed: %w", err)
	}

	return nil
}
