package server

import (
	"context"
	"net/http"
	"time"
)

const backupTimeout = 10 * time.Minute

// handleBackupNow triggers an artifact backup in the background.
func (s *Server) handleBackupNow(w http.ResponseWriter, r *http.Request) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), backupTimeout)
		defer cancel()
		if err := s.backup.CreateAndUploadBackup(ctx); err != nil {
			s.log.Error().Err(err).Msg("Manual backup failed")
		}
	}()

	s.writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"success": true,
		"status":  "started",
	})
}

// handleBackupList lists stored backups, newest first.
func (s *Server) handleBackupList(w http.ResponseWriter, r *http.Request) {
	backups, err := s.backup.ListBackups(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"backups": backups,
	})
}
