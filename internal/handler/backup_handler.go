package handler

import (
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"taskvault/internal/backup"
	"taskvault/internal/model"
	"taskvault/internal/service/board"
)

type BackupHandler struct {
	job    *backup.Job
	board  *board.Service
	logger *zap.Logger
}

func NewBackupHandler(job *backup.Job, svc *board.Service, logger *zap.Logger) *BackupHandler {
	return &BackupHandler{job: job, board: svc, logger: logger}
}

// List handles GET /backups
func (h *BackupHandler) List(c *gin.Context) {
	names, err := h.job.List()
	if err != nil {
		respondError(c, h.logger, "list backups", err)
		return
	}
	if names == nil {
		names = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"backups": names})
}

// Create handles POST /backups
func (h *BackupHandler) Create(c *gin.Context) {
	path, err := h.job.Run(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, "create backup", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "name": filepath.Base(path)})
}

// Restore handles POST /backups/:name/restore?strategy=replace|merge|keep-existing
// 默认 replace，与整份恢复一致
func (h *BackupHandler) Restore(c *gin.Context) {
	raw, err := h.job.Open(c.Param("name"))
	if err != nil {
		respondError(c, h.logger, "open backup", err)
		return
	}

	sess := sessionFrom(c)
	strategy := model.MergeStrategy(c.DefaultQuery("strategy", string(model.MergeReplace)))
	res, err := h.board.Import(c.Request.Context(), storeFrom(c), sess.Email, raw, strategy)
	if err != nil {
		respondError(c, h.logger, "restore backup", err)
		return
	}

	status := http.StatusOK
	if res.Imported == nil {
		status = http.StatusBadRequest
	}
	c.JSON(status, res)
}
