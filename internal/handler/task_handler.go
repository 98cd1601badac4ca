package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"taskvault/internal/service/board"
	"taskvault/internal/store"
)

type TaskHandler struct {
	board  *board.Service
	logger *zap.Logger
}

func NewTaskHandler(svc *board.Service, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{board: svc, logger: logger}
}

// taskPatchRequest accepts "text" as an alias for "title".
type taskPatchRequest struct {
	TodoID string  `json:"todoId"`
	Text   *string `json:"text"`
	store.TaskPatch
}

func (r taskPatchRequest) patch() store.TaskPatch {
	p := r.TaskPatch
	if p.Title == nil && r.Text != nil {
		p.Title = r.Text
	}
	return p
}

// List handles GET /categories/:categoryId/todos
func (h *TaskHandler) List(c *gin.Context) {
	sess := sessionFrom(c)
	tasks, err := h.board.ListTasks(c.Request.Context(), storeFrom(c), sess.Email, c.Param("categoryId"), listOptions(c))
	if err != nil {
		respondError(c, h.logger, "list todos", err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

// Create handles POST /categories/:categoryId/todos
func (h *TaskHandler) Create(c *gin.Context) {
	var in board.TaskInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid request")
		return
	}

	sess := sessionFrom(c)
	task, err := h.board.CreateTask(c.Request.Context(), storeFrom(c), sess.Email, c.Param("categoryId"), in)
	if err != nil {
		respondError(c, h.logger, "create todo", err)
		return
	}
	c.JSON(http.StatusCreated, task)
}

// Update handles PATCH /categories/:categoryId/todos/:todoId and
// PATCH /categories/:categoryId/todos with todoId in the body.
func (h *TaskHandler) Update(c *gin.Context) {
	var req taskPatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	todoID := c.Param("todoId")
	if todoID == "" {
		todoID = req.TodoID
	}
	if todoID == "" {
		badRequest(c, "Todo ID is required")
		return
	}

	sess := sessionFrom(c)
	task, err := h.board.UpdateTask(c.Request.Context(), storeFrom(c), sess.Email, c.Param("categoryId"), todoID, req.patch())
	if err != nil {
		respondError(c, h.logger, "update todo", err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// Archive handles POST /categories/:categoryId/todos/:todoId/archive
func (h *TaskHandler) Archive(c *gin.Context) {
	sess := sessionFrom(c)
	task, err := h.board.ArchiveTask(c.Request.Context(), storeFrom(c), sess.Email, c.Param("categoryId"), c.Param("todoId"))
	if err != nil {
		respondError(c, h.logger, "archive todo", err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// Delete handles DELETE /categories/:categoryId/todos/:todoId and ?todoId=
func (h *TaskHandler) Delete(c *gin.Context) {
	todoID := c.Param("todoId")
	if todoID == "" {
		todoID = c.Query("todoId")
	}
	if todoID == "" {
		badRequest(c, "Todo ID is required")
		return
	}

	sess := sessionFrom(c)
	if err := h.board.DeleteTask(c.Request.Context(), storeFrom(c), sess.Email, c.Param("categoryId"), todoID); err != nil {
		respondError(c, h.logger, "delete todo", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
