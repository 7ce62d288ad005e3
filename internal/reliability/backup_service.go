package reliability

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const backupPrefix = "tankintel-backup-"

// BackupService archives the model artifact tree and uploads it to object
// storage. Archives are self-describing: a manifest with per-file checksums
// rides inside each one.
type BackupService struct {
	client    *S3Client
	modelsDir string
	keyPrefix string
	log       zerolog.Logger
}

// BackupMetadata describes one backup archive.
type BackupMetadata struct {
	Timestamp time.Time          `json:"timestamp"`
	Artifacts []ArtifactMetadata `json:"artifacts"`
}

// ArtifactMetadata describes one artifact file inside a backup.
type ArtifactMetadata struct {
	Path      string `json:"path"`
	SizeBytes int64  `json:"size_bytes"`
	Checksum  string `json:"checksum"`
}

// BackupInfo describes one backup stored remotely.
type BackupInfo struct {
	Key       string    `json:"key"`
	Timestamp time.Time `json:"timestamp"`
	SizeBytes int64     `json:"size_bytes"`
}

// NewBackupService creates the backup service.
func NewBackupService(client *S3Client, modelsDir, keyPrefix string, log zerolog.Logger) *BackupService {
	return &BackupService{
		client:    client,
		modelsDir: modelsDir,
		keyPrefix: keyPrefix,
		log:       log.With().Str("service", "backup").Logger(),
	}
}

// CreateAndUploadBackup archives every artifact under the models directory
// and uploads the archive.
func (s *BackupService) CreateAndUploadBackup(ctx context.Context) error {
	s.log.Info().Msg("Starting artifact backup")
	startTime := time.Now()

	files, err := s.collectArtifacts()
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no artifacts found under %s", s.modelsDir)
	}

	metadata := BackupMetadata{
		Timestamp: time.Now().UTC(),
		Artifacts: make([]ArtifactMetadata, 0, len(files)),
	}
	for _, rel := range files {
		full := filepath.Join(s.modelsDir, rel)
		info, err := os.Stat(full)
		if err != nil {
			return fmt.Errorf("failed to stat artifact %s: %w", rel, err)
		}
		checksum, err := calculateChecksum(full)
		if err != nil {
			return fmt.Errorf("failed to checksum artifact %s: %w", rel, err)
		}
		metadata.Artifacts = append(metadata.Artifacts, ArtifactMetadata{
			Path:      rel,
			SizeBytes: info.Size(),
			Checksum:  checksum,
		})
	}

	archiveName := fmt.Sprintf("%s%s.tar.gz", backupPrefix, time.Now().Format("2006-01-02-150405"))
	archivePath := filepath.Join(os.TempDir(), archiveName)
	defer os.Remove(archivePath)

	if err := s.createArchive(archivePath, files, metadata); err != nil {
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

	key := s.key(archiveName)
	if err := s.client.Upload(ctx, key, archiveFile, archiveInfo.Size()); err != nil {
		return fmt.Errorf("failed to upload backup: %w", err)
	}

	s.log.Info().
		Dur("duration_ms", time.Since(startTime)).
		Str("archive", key).
		Int("artifacts", len(files)).
		Int64("size_bytes", archiveInfo.Size()).
		Msg("Artifact backup completed")
	return nil
}

// ListBackups lists stored backups, newest first.
func (s *BackupService) ListBackups(ctx context.Context) ([]BackupInfo, error) {
	objects, err := s.client.List(ctx, s.key(backupPrefix))
	if err != nil {
		return nil, err
	}

	backups := make([]BackupInfo, 0, len(objects))
	for _, obj := range objects {
		if obj.Key == nil {
			continue
		}
		name := filepath.Base(*obj.Key)
		if !strings.HasPrefix(name, backupPrefix) || !strings.HasSuffix(name, ".tar.gz") {
			continue
		}
		stamp := strings.TrimSuffix(strings.TrimPrefix(name, backupPrefix), ".tar.gz")
		timestamp, err := time.Parse("2006-01-02-150405", stamp)
		if err != nil {
			s.log.Warn().Str("key", *obj.Key).Msg("Failed to parse timestamp from backup key")
			continue
		}
		var size int64
		if obj.Size != nil {
			size = *obj.Size
		}
		backups = append(backups, BackupInfo{Key: *obj.Key, Timestamp: timestamp, SizeBytes: size})
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].Timestamp.After(backups[j].Timestamp)
	})
	return backups, nil
}

// RotateOldBackups deletes the oldest backups beyond the retention count.
// A minimum of 3 backups is always kept.
func (s *BackupService) RotateOldBackups(ctx context.Context, retention int) error {
	const minBackupsToKeep = 3
	if retention < minBackupsToKeep {
		retention = minBackupsToKeep
	}

	backups, err := s.ListBackups(ctx)
	if err != nil {
		return err
	}
	if len(backups) <= retention {
		return nil
	}

	deleted := 0
	for _, backup := range backups[retention:] {
		if err := s.client.Delete(ctx, backup.Key); err != nil {
			s.log.Error().Err(err).Str("key", backup.Key).Msg("Failed to delete old backup")
			continue
		}
		s.log.Info().Str("key", backup.Key).Time("timestamp", backup.Timestamp).Msg("Deleted old backup")
		deleted++
	}
	s.log.Info().Int("deleted", deleted).Int("remaining", len(backups)-deleted).Msg("Backup rotation completed")
	return nil
}

func (s *BackupService) key(name string) string {
	if s.keyPrefix == "" {
		return name
	}
	return strings.TrimSuffix(s.keyPrefix, "/") + "/" + name
}

// collectArtifacts walks the models directory and returns relative paths of
// every regular file.
func (s *BackupService) collectArtifacts() ([]string, error) {
	var files []string
	err := filepath.WalkDir(s.modelsDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		rel, err := filepath.Rel(s.modelsDir, path)
		if err != nil {
			return err
		}
		files = append(files, rel)
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to walk models directory: %w", err)
	}
	sort.Strings(files)
	return files, nil
}

// createArchive writes a tar.gz with the manifest first, then every
// artifact file under its relative path.
func (s *BackupService) createArchive(archivePath string, files []string, metadata BackupMetadata) error {
	archiveFile, err := os.Create(archivePath)
	if err != nil {
		return fmt.Errorf("failed to create archive file: %w", err)
	}
	defer archiveFile.Close()

	gzipWriter := gzip.NewWriter(archiveFile)
	defer gzipWriter.Close()

	tarWriter := tar.NewWriter(gzipWriter)
	defer tarWriter.Close()

	manifest, err := json.MarshalIndent(metadata, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	header := &tar.Header{
		Name:    "backup-metadata.json",
		Size:    int64(len(manifest)),
		Mode:    0644,
		ModTime: metadata.Timestamp,
	}
	if err := tarWriter.WriteHeader(header); err != nil {
		return err
	}
	if _, err := tarWriter.Write(manifest); err != nil {
		return err
	}

	for _, rel := range files {
		if err := addFileToArchive(tarWriter, filepath.Join(s.modelsDir, rel), rel); err != nil {
			return fmt.Errorf("failed to add %s to archive: %w", rel, err)
		}
	}
	return nil
}

func addFileToArchive(tarWriter *tar.Writer, filePath, nameInArchive string) error {
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
	_, err = io.Copy(tarWriter, file)
	return err
}

// calculateChecksum calculates the SHA256 checksum of a file.
func calculateChecksum(filePath string) (string, error) {
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
