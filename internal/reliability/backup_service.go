package reliability

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/glongrais/Portfolio-Balancer-sub000/internal/events"
	"github.com/rs/zerolog"
)

const (
	archivePrefix = "portfolio-backup-"
	archiveSuffix = ".tar.gz"

	// minBackupsToKeep backups are retained regardless of age
	minBackupsToKeep = 3
)

// BackupService creates snapshots of the SQLite databases, archives them
// and uploads the archive to object storage
type BackupService struct {
	s3            *S3Client
	databases     map[string]*sql.DB
	dataDir       string
	retentionDays int
	hub           *events.Hub
	log           zerolog.Logger
}

// BackupMetadata describes the contents of a backup archive
type BackupMetadata struct {
	Timestamp time.Time          `json:"timestamp"`
	Databases []DatabaseMetadata `json:"databases"`
}

// DatabaseMetadata describes a single database file in the backup
type DatabaseMetadata struct {
	Name      string `json:"name"`
	Filename  string `json:"filename"`
	SizeBytes int64  `json:"size_bytes"`
	Checksum  string `json:"checksum"`
}

// BackupInfo describes a backup archive stored in the bucket
type BackupInfo struct {
	Filename  string    `json:"filename"`
	Timestamp time.Time `json:"timestamp"`
	SizeBytes int64     `json:"size_bytes"`
	AgeHours  int64     `json:"age_hours"`
}

// NewBackupService creates a new backup service. The databases map holds
// the live connections to snapshot, keyed by database name.
func NewBackupService(
	s3 *S3Client,
	databases map[string]*sql.DB,
	dataDir string,
	retentionDays int,
	hub *events.Hub,
	log zerolog.Logger,
) *BackupService {
	return &BackupService{
		s3:            s3,
		databases:     databases,
		dataDir:       dataDir,
		retentionDays: retentionDays,
		hub:           hub,
		log:           log.With().Str("service", "backup").Logger(),
	}
}

// CreateAndUploadBackup snapshots every database, archives the snapshots
// and uploads the archive. Old archives beyond the retention period are
// rotated out afterwards.
func (s *BackupService) CreateAndUploadBackup(ctx context.Context) error {
	s.log.Info().Msg("Starting backup")
	startTime := time.Now()

	stagingDir := filepath.Join(s.dataDir, "backup-staging")
	if err := os.MkdirAll(stagingDir, 0755); err != nil {
		return fmt.Errorf("failed to create staging directory: %w", err)
	}
	defer os.RemoveAll(stagingDir)

	metadata := BackupMetadata{
		Timestamp: time.Now().UTC(),
		Databases: make([]DatabaseMetadata, 0, len(s.databases)),
	}

	names := make([]string, 0, len(s.databases))
	for name := range s.databases {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		dbPath := filepath.Join(stagingDir, name+".db")

		s.log.Debug().Str("database", name).Msg("Snapshotting database")

		if err := s.snapshotDatabase(s.databases[name], dbPath); err != nil {
			return fmt.Errorf("failed to snapshot %s: %w", name, err)
		}

		info, err := os.Stat(dbPath)
		if err != nil {
			return fmt.Errorf("failed to stat %s snapshot: %w", name, err)
		}

		checksum, err := s.calculateChecksum(dbPath)
		if err != nil {
			return fmt.Errorf("failed to calculate checksum for %s: %w", name, err)
		}

		metadata.Databases = append(metadata.Databases, DatabaseMetadata{
			Name:      name,
			Filename:  name + ".db",
			SizeBytes: info.Size(),
			Checksum:  checksum,
		})
	}

	metadataPath := filepath.Join(stagingDir, "backup-metadata.json")
	if err := s.writeMetadata(metadataPath, metadata); err != nil {
		return fmt.Errorf("failed to write metadata: %w", err)
	}

	timestamp := time.Now().UTC().Format("2006-01-02-150405")
	archiveName := archivePrefix + timestamp + archiveSuffix
	archivePath := filepath.Join(stagingDir, archiveName)

	archiveFiles := make([]string, 0, len(names)+1)
	for _, name := range names {
		archiveFiles = append(archiveFiles, name+".db")
	}
	archiveFiles = append(archiveFiles, "backup-metadata.json")

	if err := s.createArchive(archivePath, stagingDir, archiveFiles); err != nil {
		return fmt.Errorf("failed to create archive: %w", err)
	}

	archiveInfo, err := os.Stat(archivePath)
	if err != nil {
		return fmt.Errorf("failed to stat archive: %w", err)
	}

	archiveFile, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer archiveFile.Close()

	if err := s.s3.Upload(ctx, archiveName, archiveFile); err != nil {
		return fmt.Errorf("failed to upload archive: %w", err)
	}

	if s.hub != nil {
		s.hub.Publish(&events.BackupCompletedData{
			Key:       archiveName,
			SizeBytes: archiveInfo.Size(),
		})
	}

	s.log.Info().
		Dur("duration", time.Since(startTime)).
		Str("archive", archiveName).
		Int64("size_bytes", archiveInfo.Size()).
		Msg("Backup completed")

	if err := s.rotateOldBackups(ctx); err != nil {
		// Rotation failure leaves extra archives behind but the backup
		// itself succeeded
		s.log.Warn().Err(err).Msg("Backup rotation failed")
	}

	return nil
}

// ListBackups lists all backup archives stored in the bucket, newest first
func (s *BackupService) ListBackups(ctx context.Context) ([]BackupInfo, error) {
	objects, err := s.s3.List(ctx, archivePrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list backups: %w", err)
	}

	backups := make([]BackupInfo, 0, len(objects))
	now := time.Now()

	for _, obj := range objects {
		if obj.Key == nil {
			continue
		}

		// Keys carry the configured prefix; the archive name is the last segment
		filename := *obj.Key
		if idx := strings.LastIndex(filename, "/"); idx >= 0 {
			filename = filename[idx+1:]
		}
		if !strings.HasPrefix(filename, archivePrefix) || !strings.HasSuffix(filename, archiveSuffix) {
			continue
		}

		timestampStr := strings.TrimPrefix(filename, archivePrefix)
		timestampStr = strings.TrimSuffix(timestampStr, archiveSuffix)

		timestamp, err := time.Parse("2006-01-02-150405", timestampStr)
		if err != nil {
			s.log.Warn().Str("filename", filename).Msg("Failed to parse timestamp from filename")
			continue
		}

		var sizeBytes int64
		if obj.Size != nil {
			sizeBytes = *obj.Size
		}

		backups = append(backups, BackupInfo{
			Filename:  filename,
			Timestamp: timestamp,
			SizeBytes: sizeBytes,
			AgeHours:  int64(now.Sub(timestamp).Hours()),
		})
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].Timestamp.After(backups[j].Timestamp)
	})

	return backups, nil
}

// rotateOldBackups deletes archives older than the retention period,
// always keeping the newest minBackupsToKeep
func (s *BackupService) rotateOldBackups(ctx context.Context) error {
	if s.retentionDays <= 0 {
		return nil
	}

	backups, err := s.ListBackups(ctx)
	if err != nil {
		return err
	}

	if len(backups) <= minBackupsToKeep {
		return nil
	}

	cutoff := time.Now().AddDate(0, 0, -s.retentionDays)
	deleted := 0

	for i, backup := range backups {
		if i < minBackupsToKeep {
			continue
		}
		if backup.Timestamp.Before(cutoff) {
			if err := s.s3.Delete(ctx, backup.Filename); err != nil {
				s.log.Error().Err(err).Str("filename", backup.Filename).Msg("Failed to delete old backup")
				continue
			}
			s.log.Info().Str("filename", backup.Filename).Msg("Deleted old backup")
			deleted++
		}
	}

	if deleted > 0 {
		s.log.Info().
			Int("deleted", deleted).
			Int("remaining", len(backups)-deleted).
			Msg("Backup rotation completed")
	}

	return nil
}

// snapshotDatabase writes a consistent copy of a live database to path.
// VACUUM INTO produces a compact snapshot without blocking writers.
func (s *BackupService) snapshotDatabase(db *sql.DB, path string) error {
	if _, err := db.Exec("VACUUM INTO ?", path); err != nil {
		return fmt.Errorf("vacuum into failed: %w", err)
	}
	return nil
}

// calculateChecksum calculates the SHA256 checksum of a file
func (s *BackupService) calculateChecksum(filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}

	return fmt.Sprintf("sha256:%x", hash.Sum(nil)), nil
}

// writeMetadata writes backup metadata to a JSON file
func (s *BackupService) writeMetadata(path string, metadata BackupMetadata) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	return encoder.Encode(metadata)
}

// createArchive creates a tar.gz archive of the given files
func (s *BackupService) createArchive(archivePath, sourceDir string, filenames []string) error {
	archiveFile, err := os.Create(archivePath)
	if err != nil {
		return fmt.Errorf("failed to create archive file: %w", err)
	}
	defer archiveFile.Close()

	gzipWriter := gzip.NewWriter(archiveFile)
	defer gzipWriter.Close()

	tarWriter := tar.NewWriter(gzipWriter)
	defer tarWriter.Close()

	for _, filename := range filenames {
		filePath := filepath.Join(sourceDir, filename)
		if err := s.addFileToArchive(tarWriter, filePath, filename); err != nil {
			return fmt.Errorf("failed to add %s to archive: %w", filename, err)
		}
	}

	return nil
}

// addFileToArchive adds a single file to a tar archive
func (s *BackupService) addFileToArchive(tarWriter *tar.Writer, filePath, nameInArchive string) error {
	file, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return err
	}

	header := &tar.Header{
		Name:    nameInArchive,
		Size:    info.Size(),
		Mode:    int64(info.Mode()),
		ModTime: info.ModTime(),
	}

	if err := tarWriter.WriteHeader(header); err != nil {
		return err
	}

	if _, err := io.Copy(tarWriter, file); err != nil {
		return err
	}

	return nil
}
