package handlers

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/sacredlabs/sacred-api/middleware"
	"github.com/sacredlabs/sacred-api/models"
	"github.com/sacredlabs/sacred-api/services"
)

type InviteHandler struct {
	Invites     *services.InviteService
	Assessments *services.AssessmentService
	Email       services.EmailSender
	DB          *sql.DB
}

func NewInviteHandler(db *sql.DB) *InviteHandler {
	return &InviteHandler{
		Invites:     services.NewInviteService(db),
		Assessments: services.NewAssessmentService(db),
		Email:       services.NewEmailService(),
		DB:          db,
	}
}

type createInviteRequest struct {
	Email          string `json:"email" binding:"required,email"`
	ExpiresInHours int    `json:"expires_in_hours,omitempty"`
}

// InvitePartner issues a token for an assessment the caller belongs to
// and emails the invite link. Email failure degrades to a shareable
// link rather than failing the request.
func (h *InviteHandler) InvitePartner(c *gin.Context) {
	userEmail := middleware.GetUserEmail(c)
	assessmentID := c.Param("id")

	isMember, err := h.Assessments.IsMember(c.Request.Context(), assessmentID, userEmail)
	if err != nil || !isMember {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		return
	}

	var req createInviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, err := h.Invites.Create(c.Request.Context(), assessmentID, userEmail, req.ExpiresInHours)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create invite"})
		return
	}

	frontendURL := os.Getenv("FRONTEND_URL")
	if frontendURL == "" {
		frontendURL = "http://localhost:3000"
	}
	inviteLink := fmt.Sprintf("%s/PartnerInvite?token=%s", frontendURL, token.Token)

	var inviterName string
	if err := h.DB.QueryRow(`SELECT name FROM users WHERE email = $1`, userEmail).Scan(&inviterName); err != nil {
		inviterName = "Your partner"
	}

	if err := h.Email.SendPartnerInvite(req.Email, inviterName, token.Token); err != nil {
		c.JSON(http.StatusCreated, gin.H{
			"token":       token.Token,
			"invite_link": inviteLink,
			"expires_at":  token.ExpiresAt,
			"message":     "Invite created but email failed to send",
			"warning":     "Please share the invite link manually",
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"token":       token.Token,
		"invite_link": inviteLink,
		"expires_at":  token.ExpiresAt,
		"message":     "Invite sent successfully",
	})
}

// RedeemInvite consumes a token and enrolls the caller as partner2.
// The consume and the enrollment commit together inside the service,
// so a failure can never strand a used token with no enrolled partner.
func (h *InviteHandler) RedeemInvite(c *gin.Context) {
	var req models.RedeemInviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Logged-in redeemers must redeem as themselves.
	if authEmail := middleware.GetUserEmail(c); authEmail != "" && authEmail != req.Email {
		c.JSON(http.StatusForbidden, gin.H{"error": "This invite must be redeemed with your own email"})
		return
	}

	redemption, err := h.Invites.Redeem(c.Request.Context(), req.Token, req.Email)
	switch {
	case errors.Is(err, services.ErrTokenNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Invite not found"})
		return
	case errors.Is(err, services.ErrTokenExpired):
		c.JSON(http.StatusGone, gin.H{"error": "Invite has expired"})
		return
	case errors.Is(err, services.ErrTokenAlreadyUsed):
		c.JSON(http.StatusConflict, gin.H{"error": "Invite has already been used"})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to redeem invite"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"assessment_id": redemption.AssessmentID,
		"inviter_email": redemption.InviterEmail,
		"message":       "Invite redeemed successfully",
	})
}

// GetInvites lists every token ever issued for an assessment, newest
// first, for the audit display.
func (h *InviteHandler) GetInvites(c *gin.Context) {
	userEmail := middleware.GetUserEmail(c)
	assessmentID := c.Param("id")

	isMember, err := h.Assessments.IsMember(c.Request.Context(), assessmentID, userEmail)
	if err != nil || !isMember {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		return
	}

	tokens, err := h.Invites.List(c.Request.Context(), assessmentID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch invites"})
		return
	}
	if tokens == nil {
		tokens = []models.InviteToken{}
	}

	c.JSON(http.StatusOK, tokens)
}
