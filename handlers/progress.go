package handlers

import (
	"database/sql"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sacredlabs/sacred-api/middleware"
	"github.com/sacredlabs/sacred-api/models"
	"github.com/sacredlabs/sacred-api/services"
)

type ProgressHandler struct {
	Progress    *services.ProgressService
	Assessments *services.AssessmentService
}

func NewProgressHandler(db *sql.DB) *ProgressHandler {
	return &ProgressHandler{
		Progress:    services.NewProgressService(db),
		Assessments: services.NewAssessmentService(db),
	}
}

// SaveProgress stores the caller's in-progress answer blob.
func (h *ProgressHandler) SaveProgress(c *gin.Context) {
	email := middleware.GetUserEmail(c)
	assessmentID := c.Param("id")

	if !h.requireMember(c, assessmentID, email) {
		return
	}

	var req models.SaveProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.Progress.Save(c.Request.Context(), assessmentID, email, req.Data); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save progress"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":        "Progress saved",
		"schema_version": services.ProgressSchemaVersion,
	})
}

// GetProgress returns the saved blob, or an empty payload when there
// is none (including when a snapshot was discarded for being written
// under an older schema version).
func (h *ProgressHandler) GetProgress(c *gin.Context) {
	email := middleware.GetUserEmail(c)
	assessmentID := c.Param("id")

	if !h.requireMember(c, assessmentID, email) {
		return
	}

	snapshot, err := h.Progress.Load(c.Request.Context(), assessmentID, email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load progress"})
		return
	}
	if snapshot == nil {
		c.JSON(http.StatusOK, gin.H{"progress": nil})
		return
	}

	c.JSON(http.StatusOK, gin.H{"progress": snapshot})
}

func (h *ProgressHandler) ClearProgress(c *gin.Context) {
	email := middleware.GetUserEmail(c)
	assessmentID := c.Param("id")

	if !h.requireMember(c, assessmentID, email) {
		return
	}

	if err := h.Progress.Clear(c.Request.Context(), assessmentID, email); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clear progress"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Progress cleared"})
}

func (h *ProgressHandler) requireMember(c *gin.Context, assessmentID, email string) bool {
	isMember, err := h.Assessments.IsMember(c.Request.Context(), assessmentID, email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return false
	}
	if !isMember {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		return false
	}
	return true
}
