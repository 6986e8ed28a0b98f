package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"path/filepath"
	"strings"

	"releasegate/services"
	"releasegate/websocket"

	"github.com/gin-gonic/gin"
	gorilla "github.com/gorilla/websocket"
)

// ValidationHandler handles validation job endpoints
type ValidationHandler struct {
	jobQueue  services.JobQueue
	hub       websocket.Hub
	uploadDir string
	upgrader  gorilla.Upgrader
	logger    *log.Logger
}

// NewValidationHandler creates a new validation handler
func NewValidationHandler(jq services.JobQueue, hub websocket.Hub, uploadDir string, origins []string, logger *log.Logger) *ValidationHandler {
	if logger == nil {
		logger = log.Default()
	}
	return &ValidationHandler{
		jobQueue:  jq,
		hub:       hub,
		uploadDir: uploadDir,
		upgrader:  websocket.NewUpgrader(origins),
		logger:    logger,
	}
}

// validateUploadName rejects archive names that are empty, not .zip, or carry path elements
func validateUploadName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("empty file name not allowed")
	}
	if strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return fmt.Errorf("path elements not allowed in file name")
	}
	if !strings.EqualFold(filepath.Ext(name), ".zip") {
		return fmt.Errorf("only .zip archives can be validated")
	}
	return nil
}

// QueueValidation stores the uploaded archive and queues it for validation
func (h *ValidationHandler) QueueValidation(c *gin.Context) {
	file, err := c.FormFile("archive")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "multipart field 'archive' is required",
		})
		return
	}

	if err := validateUploadName(file.Filename); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return
	}

	upload, err := services.NewWorkspace(h.uploadDir, "releasegate-upload-")
	if err != nil {
		h.logger.Printf("Failed to create upload workspace: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store upload"})
		return
	}

	archivePath := filepath.Join(upload.Root(), file.Filename)
	if err := c.SaveUploadedFile(file, archivePath); err != nil {
		upload.Cleanup()
		h.logger.Printf("Failed to save upload %s: %v", file.Filename, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store upload"})
		return
	}

	job, err := h.jobQueue.AddJob(file.Filename, archivePath, upload)
	if err != nil {
		upload.Cleanup()
		status := http.StatusInternalServerError
		if errors.Is(err, services.ErrQueueFull) {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Validation queued successfully",
		"job":     job,
	})
}

// GetAllJobs returns all validation jobs
func (h *ValidationHandler) GetAllJobs(c *gin.Context) {
	jobs := h.jobQueue.GetAllJobs()
	c.JSON(http.StatusOK, gin.H{
		"jobs":  jobs,
		"total": len(jobs),
	})
}

// GetJob returns a specific validation job, with its report once completed
func (h *ValidationHandler) GetJob(c *gin.Context) {
	jobID := c.Param("jobId")
	job, exists := h.jobQueue.GetJob(jobID)
	if !exists {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "job not found",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"job": job,
	})
}

// CancelJob cancels a validation job
func (h *ValidationHandler) CancelJob(c *gin.Context) {
	jobID := c.Param("jobId")
	if !h.jobQueue.CancelJob(jobID) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "job cannot be cancelled (not found or already finished)",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "job cancelled successfully",
	})
}

// HandleWebSocketConnection streams the progress of one job
func (h *ValidationHandler) HandleWebSocketConnection(c *gin.Context) {
	jobID := c.Param("jobId")
	if _, exists := h.jobQueue.GetJob(jobID); !exists {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}
	h.subscribe(c, jobID)
}

// HandleWebSocketAllConnection streams the progress of every job
func (h *ValidationHandler) HandleWebSocketAllConnection(c *gin.Context) {
	h.subscribe(c, websocket.AllJobs)
}

func (h *ValidationHandler) subscribe(c *gin.Context, key string) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	client := websocket.NewClient(h.hub, conn, key)
	h.hub.RegisterClient(client)
	client.StartPumps()
}
