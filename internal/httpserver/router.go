package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"taskvault/internal/backup"
	"taskvault/internal/handler"
	"taskvault/internal/service/auth"
	"taskvault/internal/service/board"
	"taskvault/internal/store"
)

type Router struct {
	Engine *gin.Engine
}

// Deps is everything the router wires into handlers.
type Deps struct {
	Auth          *auth.Service
	Board         *board.Service
	Store         *store.Handle
	Backups       *backup.Job // nil 时不注册 /backups
	SecureCookies bool
	Logger        *zap.Logger
}

func NewRouter(d Deps) *Router {
	r := gin.New()
	r.Use(gin.Recovery(), TraceMiddleware(), RequestLogMiddleware(d.Logger))

	authHandler := handler.NewAuthHandler(d.Auth, d.SecureCookies, d.Logger)
	categoryHandler := handler.NewCategoryHandler(d.Board, d.Logger)
	taskHandler := handler.NewTaskHandler(d.Board, d.Logger)
	adminHandler := handler.NewAdminHandler(d.Board, d.Logger)

	// Health endpoints (放在最前面)
	// 只报告连接状态，不触发打开
	health := func(c *gin.Context) {
		state := "idle"
		if d.Store != nil && d.Store.Opened() {
			state = "open"
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "store": state})
	}
	r.GET("/healthz", health)
	r.HEAD("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/health", health)
	r.HEAD("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	withStore := StoreMiddleware(d.Store, d.Logger)
	r.GET("/readyz", withStore, adminHandler.Ready)

	// Public
	r.POST("/auth/login", authHandler.Login)
	r.GET("/auth/session", authHandler.Session)
	r.POST("/auth/logout", authHandler.Logout)
	r.POST("/db/init", withStore, adminHandler.InitDB)
	r.GET("/db/init", withStore, adminHandler.InitDB)

	// Protected
	protected := r.Group("/")
	protected.Use(withStore, AuthMiddleware(d.Auth, d.Logger))
	{
		protected.GET("/categories", categoryHandler.List)
		protected.POST("/categories", categoryHandler.Create)
		protected.DELETE("/categories", categoryHandler.Delete)
		protected.GET("/categories/:categoryId", categoryHandler.Get)
		protected.PATCH("/categories/:categoryId", categoryHandler.Update)
		protected.DELETE("/categories/:categoryId", categoryHandler.Delete)

		protected.GET("/categories/:categoryId/todos", taskHandler.List)
		protected.POST("/categories/:categoryId/todos", taskHandler.Create)
		protected.PATCH("/categories/:categoryId/todos", taskHandler.Update)
		protected.DELETE("/categories/:categoryId/todos", taskHandler.Delete)
		protected.PATCH("/categories/:categoryId/todos/:todoId", taskHandler.Update)
		protected.DELETE("/categories/:categoryId/todos/:todoId", taskHandler.Delete)
		protected.POST("/categories/:categoryId/todos/:todoId/archive", taskHandler.Archive)

		protected.GET("/export", adminHandler.Export)
		protected.POST("/import", adminHandler.Import)

		if d.Backups != nil {
			backupHandler := handler.NewBackupHandler(d.Backups, d.Board, d.Logger)
			protected.GET("/backups", backupHandler.List)
			protected.POST("/backups", backupHandler.Create)
			protected.POST("/backups/:name/restore", backupHandler.Restore)
		}
	}

	return &Router{Engine: r}
}
