package handlers

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sacredlabs/sacred-api/middleware"
	"github.com/sacredlabs/sacred-api/services"
)

type ReportHandler struct {
	Assessments *services.AssessmentService
}

func NewReportHandler(db *sql.DB) *ReportHandler {
	return &ReportHandler{Assessments: services.NewAssessmentService(db)}
}

// GetReport serves the couple comparison report. `sort` picks the
// per-question ordering: question-order (default), aligned-first or
// discuss-first.
func (h *ReportHandler) GetReport(c *gin.Context) {
	email := middleware.GetUserEmail(c)
	assessmentID := c.Param("id")
	sortMode := c.DefaultQuery("sort", services.SortQuestionOrder)

	switch sortMode {
	case services.SortQuestionOrder, services.SortAlignedFirst, services.SortDiscussFirst:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid sort mode"})
		return
	}

	report, err := h.Assessments.BuildReport(c.Request.Context(), assessmentID, email, sortMode)
	switch {
	case errors.Is(err, services.ErrUnauthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		return
	case errors.Is(err, services.ErrReportNotReady):
		c.JSON(http.StatusConflict, gin.H{"error": "Both partners must complete the assessment first"})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build report"})
		return
	}

	c.JSON(http.StatusOK, report)
}

// GetSectionScores returns the caller's own per-section averages,
// available before the partner finishes.
func (h *ReportHandler) GetSectionScores(c *gin.Context) {
	email := middleware.GetUserEmail(c)
	assessmentID := c.Param("id")

	isMember, err := h.Assessments.IsMember(c.Request.Context(), assessmentID, email)
	if err != nil || !isMember {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		return
	}

	responses, err := h.Assessments.ListResponses(c.Request.Context(), assessmentID, email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch responses"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"assessment_id": assessmentID,
		"sections":      services.ComputeSectionAverages(responses),
	})
}
