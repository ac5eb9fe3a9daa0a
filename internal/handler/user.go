package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"yieldapp/internal/middleware"
	"yieldapp/internal/model"
)

// GetUserOperations handles requests for the user's operation history.
func (h *Handler) GetUserOperations(c *gin.Context) {
	page := 1
	pageSize := 20

	if pageStr := c.Query("page"); pageStr != "" {
		if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
			page = p
		}
	}
	if pageSizeStr := c.Query("page_size"); pageSizeStr != "" {
		if ps, err := strconv.Atoi(pageSizeStr); err == nil && ps > 0 && ps <= 100 {
			pageSize = ps
		}
	}

	history, err := h.db.GetUserOperations(middleware.UserID(c), page, pageSize)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.Response{
		Success: true,
		Data:    history,
	})
}
