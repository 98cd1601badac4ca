package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"taskvault/internal/model"
	"taskvault/internal/service/board"
)

type AdminHandler struct {
	board  *board.Service
	logger *zap.Logger
}

func NewAdminHandler(svc *board.Service, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{board: svc, logger: logger}
}

// InitDB 初始化表结构 / 索引，可重复调用
// POST|GET /db/init
func (h *AdminHandler) InitDB(c *gin.Context) {
	if err := storeFrom(c).Init(c.Request.Context()); err != nil {
		h.logger.Error("database init failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Database initialization failed",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Database initialized successfully",
	})
}

// Ready handles GET /readyz
func (h *AdminHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 1*time.Second)
	defer cancel()

	if err := storeFrom(c).Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "store_not_ready"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// Export handles GET /export
func (h *AdminHandler) Export(c *gin.Context) {
	sess := sessionFrom(c)
	data, err := h.board.Export(c.Request.Context(), storeFrom(c), sess.Email)
	if err != nil {
		respondError(c, h.logger, "export", err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="taskvault-export-`+data.ExportDate.Format("2006-01-02")+`.json"`)
	c.JSON(http.StatusOK, data)
}

// Import handles POST /import?strategy=replace|merge|keep-existing
func (h *AdminHandler) Import(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		badRequest(c, "invalid request")
		return
	}

	sess := sessionFrom(c)
	strategy := model.MergeStrategy(c.DefaultQuery("strategy", string(model.MergeCombine)))
	res, err := h.board.Import(c.Request.Context(), storeFrom(c), sess.Email, raw, strategy)
	if err != nil {
		respondError(c, h.logger, "import", err)
		return
	}

	// 校验失败时没有写入任何数据
	status := http.StatusOK
	if res.Imported == nil {
		status = http.StatusBadRequest
	}
	c.JSON(status, res)
}
