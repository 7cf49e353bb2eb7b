package handlers

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sacredlabs/sacred-api/middleware"
	"github.com/sacredlabs/sacred-api/models"
	"github.com/sacredlabs/sacred-api/services"
)

type CheckoutHandler struct {
	Checkout    *services.CheckoutService
	Assessments *services.AssessmentService
}

func NewCheckoutHandler(db *sql.DB) *CheckoutHandler {
	return &CheckoutHandler{
		Checkout:    services.NewCheckoutService(db),
		Assessments: services.NewAssessmentService(db),
	}
}

// CreateSession opens a provider checkout session for the caller's
// assessment.
func (h *CheckoutHandler) CreateSession(c *gin.Context) {
	email := middleware.GetUserEmail(c)

	var req models.CreateCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	isMember, err := h.Assessments.IsMember(c.Request.Context(), req.AssessmentID, email)
	if err != nil || !isMember {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		return
	}

	session, err := h.Checkout.CreateSession(c.Request.Context(), email, req.AssessmentID)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Checkout provider unavailable"})
		return
	}

	c.JSON(http.StatusCreated, session)
}

// VerifySession refreshes a session's state from the provider.
func (h *CheckoutHandler) VerifySession(c *gin.Context) {
	email := middleware.GetUserEmail(c)
	sessionID := c.Param("session_id")

	session, err := h.Checkout.VerifySession(c.Request.Context(), sessionID, email)
	switch {
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Checkout session not found"})
		return
	case errors.Is(err, services.ErrUnauthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		return
	case err != nil:
		c.JSON(http.StatusBadGateway, gin.H{"error": "Checkout provider unavailable"})
		return
	}

	c.JSON(http.StatusOK, session)
}
