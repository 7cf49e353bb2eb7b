package handlers

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sacredlabs/sacred-api/middleware"
	"github.com/sacredlabs/sacred-api/models"
	"github.com/sacredlabs/sacred-api/services"
	"github.com/sacredlabs/sacred-api/utils"
)

type AssessmentHandler struct {
	Assessments *services.AssessmentService
	Email       services.EmailSender
	WS          *WSHandler
	DB          *sql.DB
}

func NewAssessmentHandler(db *sql.DB, ws *WSHandler) *AssessmentHandler {
	return &AssessmentHandler{
		Assessments: services.NewAssessmentService(db),
		Email:       services.NewEmailService(),
		WS:          ws,
		DB:          db,
	}
}

func (h *AssessmentHandler) CreateAssessment(c *gin.Context) {
	email := middleware.GetUserEmail(c)

	var req models.CreateAssessmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	assessment, err := h.Assessments.Create(c.Request.Context(), req.Title, email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create assessment"})
		return
	}

	c.JSON(http.StatusCreated, assessment)
}

func (h *AssessmentHandler) GetAssessments(c *gin.Context) {
	email := middleware.GetUserEmail(c)

	assessments, err := h.Assessments.ListForUser(c.Request.Context(), email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch assessments"})
		return
	}
	if assessments == nil {
		assessments = []models.Assessment{}
	}

	c.JSON(http.StatusOK, assessments)
}

func (h *AssessmentHandler) GetAssessment(c *gin.Context) {
	email := middleware.GetUserEmail(c)
	assessmentID := c.Param("id")

	assessment, err := h.Assessments.GetByID(c.Request.Context(), assessmentID, email)
	if errors.Is(err, services.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Assessment not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch assessment"})
		return
	}

	c.JSON(http.StatusOK, assessment)
}

// GetQuestions returns the question catalog in presentation order.
func (h *AssessmentHandler) GetQuestions(c *gin.Context) {
	questions, err := h.Assessments.ListQuestions(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch questions"})
		return
	}

	c.JSON(http.StatusOK, questions)
}

// SubmitResponses upserts a batch of the caller's answers.
func (h *AssessmentHandler) SubmitResponses(c *gin.Context) {
	email := middleware.GetUserEmail(c)
	assessmentID := c.Param("id")

	if !h.requireMember(c, assessmentID, email) {
		return
	}

	var req models.SubmitResponsesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.Assessments.SubmitResponses(c.Request.Context(), assessmentID, email, req.Responses); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Responses saved", "count": len(req.Responses)})
}

// GetResponses returns the caller's own answers for resume/display.
func (h *AssessmentHandler) GetResponses(c *gin.Context) {
	email := middleware.GetUserEmail(c)
	assessmentID := c.Param("id")

	if !h.requireMember(c, assessmentID, email) {
		return
	}

	responses, err := h.Assessments.ListResponses(c.Request.Context(), assessmentID, email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch responses"})
		return
	}
	if responses == nil {
		responses = []models.AssessmentResponse{}
	}

	c.JSON(http.StatusOK, responses)
}

// CompleteAssessment marks the caller done. When that closes out the
// couple, it signals the waiting partner over the websocket and sends
// the report-ready emails, both best-effort.
func (h *AssessmentHandler) CompleteAssessment(c *gin.Context) {
	email := middleware.GetUserEmail(c)
	assessmentID := c.Param("id")

	if !h.requireMember(c, assessmentID, email) {
		return
	}

	bothDone, err := h.Assessments.MarkComplete(c.Request.Context(), assessmentID, email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to mark complete"})
		return
	}

	var userName string
	if err := h.DB.QueryRow(`SELECT name FROM users WHERE email = $1`, email).Scan(&userName); err != nil {
		userName = "Your partner"
	}

	if bothDone {
		h.WS.BroadcastUpdate(assessmentID, "report_ready", userName)
		h.notifyReportReady(c, assessmentID)
	} else {
		h.WS.BroadcastUpdate(assessmentID, "partner_completed", userName)
	}

	c.JSON(http.StatusOK, gin.H{
		"message":      "Assessment section completed",
		"report_ready": bothDone,
	})
}

func (h *AssessmentHandler) notifyReportReady(c *gin.Context, assessmentID string) {
	members, err := h.Assessments.GetMembers(c.Request.Context(), assessmentID)
	if err != nil {
		utils.Warnf("Report-ready notify skipped for %s: %v", assessmentID, err)
		return
	}
	for _, m := range members {
		name := m.Name
		if name == "" {
			name = "there"
		}
		if err := h.Email.SendReportReady(m.Email, name, assessmentID); err != nil {
			utils.Warnf("Report-ready email to %s failed: %v", m.Email, err)
		}
	}
}

// requireMember writes the error response itself when access fails.
func (h *AssessmentHandler) requireMember(c *gin.Context, assessmentID, email string) bool {
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
