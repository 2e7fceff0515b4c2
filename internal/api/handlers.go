package api

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/justyntemme/shelf/internal/logger"
	"github.com/justyntemme/shelf/internal/readinglist"
	"github.com/justyntemme/shelf/internal/storage"
	"github.com/justyntemme/shelf/internal/widget"
)

// maxImportSize caps uploaded reading list files
const maxImportSize = 5 * 1024 * 1024

// Handler contains all HTTP handlers
type Handler struct {
	widget *widget.Widget
}

// NewHandler creates a new handler instance
func NewHandler(w *widget.Widget) *Handler {
	return &Handler{widget: w}
}

// HealthCheck returns server health status
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now()})
}

// APIInfo returns API documentation for programmatic clients
func (h *Handler) APIInfo(c *gin.Context) {
	endpoints := []gin.H{
		{"method": "GET", "path": "/health", "description": "Health check"},
		{"method": "GET", "path": "/api", "description": "API documentation"},
		{"method": "GET", "path": "/metrics", "description": "Prometheus metrics"},

		// Search
		{"method": "GET", "path": "/api/search", "description": "Current results and pagination view"},
		{"method": "PUT", "path": "/api/search/query", "description": "Set query text (resets page to 1)", "body": "query"},
		{"method": "PUT", "path": "/api/search/page", "description": "Set page", "body": "page"},
		{"method": "POST", "path": "/api/search/next", "description": "Next page"},
		{"method": "POST", "path": "/api/search/prev", "description": "Previous page"},
		{"method": "POST", "path": "/api/search/refresh", "description": "Re-run the current search"},
		{"method": "GET", "path": "/api/search/events", "description": "Server-sent events stream of the results view"},

		// Selection
		{"method": "POST", "path": "/api/selection", "description": "Select a result for details", "body": "key"},
		{"method": "GET", "path": "/api/selection", "description": "Details view of the selection"},
		{"method": "DELETE", "path": "/api/selection", "description": "Dismiss the selection"},
		{"method": "POST", "path": "/api/selection/toggle", "description": "Save or unsave the selection"},

		// Reading list
		{"method": "GET", "path": "/api/reading-list", "description": "List saved entries"},
		{"method": "POST", "path": "/api/reading-list/toggle", "description": "Save or unsave a current result", "body": "key"},
		{"method": "DELETE", "path": "/api/reading-list", "description": "Remove an entry", "query": "key"},
		{"method": "GET", "path": "/api/reading-list/export", "description": "Download reading_list.json"},
		{"method": "POST", "path": "/api/reading-list/import", "description": "Merge a reading list file", "body": "file (multipart) or JSON body"},
	}

	c.JSON(http.StatusOK, gin.H{
		"name":        "Shelf API",
		"version":     "1.0.0",
		"description": "Open Library search widget with a persisted reading list",
		"endpoints":   endpoints,
	})
}

// ==================== Search ====================

// GetResults returns the current results view
func (h *Handler) GetResults(c *gin.Context) {
	c.JSON(http.StatusOK, h.widget.Results())
}

// SetQuery replaces the query text
func (h *Handler) SetQuery(c *gin.Context) {
	var req struct {
		Query *string `json:"query" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query is required"})
		return
	}

	h.widget.SetQuery(*req.Query)
	c.JSON(http.StatusAccepted, h.widget.Results())
}

// SetPage moves to a page
func (h *Handler) SetPage(c *gin.Context) {
	var req struct {
		Page int `json:"page" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "page must be a positive integer"})
		return
	}

	h.widget.SetPage(req.Page)
	c.JSON(http.StatusAccepted, h.widget.Results())
}

// NextPage advances one page
func (h *Handler) NextPage(c *gin.Context) {
	h.widget.NextPage()
	c.JSON(http.StatusAccepted, h.widget.Results())
}

// PrevPage goes back one page
func (h *Handler) PrevPage(c *gin.Context) {
	h.widget.PrevPage()
	c.JSON(http.StatusAccepted, h.widget.Results())
}

// Refresh re-runs the current search
func (h *Handler) Refresh(c *gin.Context) {
	h.widget.Refresh()
	c.JSON(http.StatusAccepted, h.widget.Results())
}

// ==================== Selection ====================

// SelectResult selects a result for the details view
func (h *Handler) SelectResult(c *gin.Context) {
	var req struct {
		Key string `json:"key" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "key is required"})
		return
	}

	if err := h.widget.Select(req.Key); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Result not found on the current page"})
		return
	}

	details, _ := h.widget.Details()
	c.JSON(http.StatusOK, details)
}

// GetSelection returns the details view of the selection
func (h *Handler) GetSelection(c *gin.Context) {
	details, ok := h.widget.Details()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "No item selected"})
		return
	}
	c.JSON(http.StatusOK, details)
}

// DismissSelection clears the selection
func (h *Handler) DismissSelection(c *gin.Context) {
	h.widget.Dismiss()
	c.Status(http.StatusNoContent)
}

// ToggleSelection saves or unsaves the selected item
func (h *Handler) ToggleSelection(c *gin.Context) {
	saved, err := h.widget.ToggleSelected(c.Request.Context())
	if errors.Is(err, widget.ErrNothingSelected) {
		c.JSON(http.StatusNotFound, gin.H{"error": "No item selected"})
		return
	}

	details, _ := h.widget.Details()
	c.JSON(http.StatusOK, gin.H{"saved": saved, "details": details})
}

// ==================== Reading List ====================

// ListReadingList returns all saved entries
func (h *Handler) ListReadingList(c *gin.Context) {
	entries := h.widget.ReadingList().Entries()
	c.JSON(http.StatusOK, gin.H{
		"entries": entries,
		"count":   len(entries),
	})
}

// ToggleReadingList saves or unsaves a result on the current page
func (h *Handler) ToggleReadingList(c *gin.Context) {
	var req struct {
		Key string `json:"key" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "key is required"})
		return
	}

	saved, err := h.widget.ToggleResult(c.Request.Context(), req.Key)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Result not found on the current page"})
		return
	}

	action, message := "removed", "Book removed from reading list"
	if saved {
		action, message = "added", "Book added to reading list"
	}
	c.JSON(http.StatusOK, gin.H{
		"message": message,
		"action":  action,
		"key":     req.Key,
		"saved":   saved,
	})
}

// RemoveFromReadingList deletes an entry by key; missing keys are a no-op
func (h *Handler) RemoveFromReadingList(c *gin.Context) {
	key := c.Query("key")
	if key == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "key is required"})
		return
	}

	removed := h.widget.ReadingList().Remove(c.Request.Context(), key)
	c.JSON(http.StatusOK, gin.H{"key": key, "removed": removed})
}

// ExportReadingList downloads the reading list as reading_list.json
func (h *Handler) ExportReadingList(c *gin.Context) {
	data, err := h.widget.ReadingList().ExportBytes()
	if err != nil {
		logger.For(c.Request.Context()).WithError(err).Error("failed to export reading list")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to export reading list"})
		return
	}

	etag := `"` + storage.HashBytes(data) + `"`
	if c.GetHeader("If-None-Match") == etag {
		c.Status(http.StatusNotModified)
		return
	}

	c.Header("ETag", etag)
	c.Header("Content-Disposition", `attachment; filename="`+readinglist.ExportFilename+`"`)
	c.Data(http.StatusOK, "application/json", data)
}

// ImportReadingList merges an uploaded reading list file
func (h *Handler) ImportReadingList(c *gin.Context) {
	var src io.Reader
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		file, header, err := c.Request.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "No file provided"})
			return
		}
		defer file.Close()

		if header.Size > maxImportSize {
			c.JSON(http.StatusBadRequest, gin.H{"error": "File too large (max 5MB)"})
			return
		}
		src = file
	} else {
		data, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxImportSize))
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "File too large (max 5MB)"})
			return
		}
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read request body"})
			return
		}
		src = bytes.NewReader(data)
	}

	n, err := h.widget.ReadingList().Import(c.Request.Context(), src)
	if errors.Is(err, readinglist.ErrInvalidImport) {
		c.JSON(http.StatusBadRequest, gin.H{"error": readinglist.InvalidImportMessage})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read import"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "Reading list imported",
		"imported": n,
		"count":    h.widget.ReadingList().Len(),
	})
}
