package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/ramonehamilton/deck-binder/internal/api/response"
	"github.com/ramonehamilton/deck-binder/internal/storage"
)

// BackupService creates and lists database backups.
type BackupService interface {
	Backup(ctx context.Context) (*storage.BackupInfo, error)
	List() ([]storage.BackupInfo, error)
}

// BackupHandler handles backup requests.
type BackupHandler struct {
	backups BackupService
}

// NewBackupHandler creates a new BackupHandler. backups may be nil when the
// daemon runs without a database file.
func NewBackupHandler(backups BackupService) *BackupHandler {
	return &BackupHandler{backups: backups}
}

var errNoBackups = errors.New("backups are not configured")

// ListBackups returns existing backups, newest first.
func (h *BackupHandler) ListBackups(w http.ResponseWriter, r *http.Request) {
	if h.backups == nil {
		response.ServiceUnavailable(w, errNoBackups)
		return
	}
	backups, err := h.backups.List()
	if err != nil {
		response.InternalError(w, err)
		return
	}
	response.Success(w, backups)
}

// CreateBackup writes a backup now.
func (h *BackupHandler) CreateBackup(w http.ResponseWriter, r *http.Request) {
	if h.backups == nil {
		response.ServiceUnavailable(w, errNoBackups)
		return
	}
	info, err := h.backups.Backup(r.Context())
	if err != nil {
		response.InternalError(w, err)
		return
	}
	response.Created(w, info)
}
