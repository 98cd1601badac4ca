package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"taskvault/internal/service/board"
	"taskvault/internal/store"
)

type CategoryHandler struct {
	board  *board.Service
	logger *zap.Logger
}

func NewCategoryHandler(svc *board.Service, logger *zap.Logger) *CategoryHandler {
	return &CategoryHandler{board: svc, logger: logger}
}

// List handles GET /categories
func (h *CategoryHandler) List(c *gin.Context) {
	sess := sessionFrom(c)
	cats, err := h.board.ListCategories(c.Request.Context(), storeFrom(c), sess.Email, listOptions(c))
	if err != nil {
		respondError(c, h.logger, "list categories", err)
		return
	}
	c.JSON(http.StatusOK, cats)
}

// Get handles GET /categories/:categoryId
func (h *CategoryHandler) Get(c *gin.Context) {
	sess := sessionFrom(c)
	cat, err := h.board.GetCategory(c.Request.Context(), storeFrom(c), sess.Email, c.Param("categoryId"), listOptions(c))
	if err != nil {
		respondError(c, h.logger, "get category", err)
		return
	}
	c.JSON(http.StatusOK, cat)
}

// Create handles POST /categories
func (h *CategoryHandler) Create(c *gin.Context) {
	var in board.CategoryInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid request")
		return
	}

	sess := sessionFrom(c)
	cat, err := h.board.CreateCategory(c.Request.Context(), storeFrom(c), sess.Email, in)
	if err != nil {
		respondError(c, h.logger, "create category", err)
		return
	}
	c.JSON(http.StatusCreated, cat)
}

// Update handles PATCH /categories/:categoryId
func (h *CategoryHandler) Update(c *gin.Context) {
	var patch store.CategoryPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, "invalid request")
		return
	}

	sess := sessionFrom(c)
	cat, err := h.board.UpdateCategory(c.Request.Context(), storeFrom(c), sess.Email, c.Param("categoryId"), patch)
	if err != nil {
		respondError(c, h.logger, "update category", err)
		return
	}
	c.JSON(http.StatusOK, cat)
}

// Delete handles DELETE /categories/:categoryId and DELETE /categories?id=
func (h *CategoryHandler) Delete(c *gin.Context) {
	id := c.Param("categoryId")
	if id == "" {
		id = c.Query("id")
	}
	if id == "" {
		badRequest(c, "Category ID is required")
		return
	}

	sess := sessionFrom(c)
	if err := h.board.DeleteCategory(c.Request.Context(), storeFrom(c), sess.Email, id); err != nil {
		respondError(c, h.logger, "delete category", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
