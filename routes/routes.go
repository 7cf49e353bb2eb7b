package routes

import (
	"database/sql"

	"github.com/gin-gonic/gin"

	"github.com/sacredlabs/sacred-api/handlers"
)

// SetupAuthRoutes sets up public authentication routes.
func SetupAuthRoutes(rg *gin.RouterGroup, db *sql.DB) {
	authHandler := &handlers.AuthHandler{DB: db}

	rg.POST("/auth/signup", authHandler.Signup)
	rg.POST("/auth/login", authHandler.Login)
	rg.POST("/auth/refresh", authHandler.Refresh)
	rg.GET("/auth/verify", authHandler.VerifyEmail)
}

// SetupInviteRedeemRoute is public: the invitee usually has no account
// yet when they follow the link.
func SetupInviteRedeemRoute(rg *gin.RouterGroup, db *sql.DB) {
	inviteHandler := handlers.NewInviteHandler(db)
	rg.POST("/invites/redeem", inviteHandler.RedeemInvite)
}

// SetupAssessmentRoutes sets up protected assessment, response and
// report routes.
func SetupAssessmentRoutes(rg *gin.RouterGroup, db *sql.DB, ws *handlers.WSHandler) {
	h := handlers.NewAssessmentHandler(db, ws)
	reportHandler := handlers.NewReportHandler(db)

	rg.GET("/questions", h.GetQuestions)

	rg.GET("/assessments", h.GetAssessments)
	rg.POST("/assessments", h.CreateAssessment)
	rg.GET("/assessments/:id", h.GetAssessment)

	rg.GET("/assessments/:id/responses", h.GetResponses)
	rg.PUT("/assessments/:id/responses", h.SubmitResponses)
	rg.POST("/assessments/:id/complete", h.CompleteAssessment)

	rg.GET("/assessments/:id/report", reportHandler.GetReport)
	rg.GET("/assessments/:id/sections", reportHandler.GetSectionScores)
}

// SetupInviteRoutes sets up the protected invite management routes.
func SetupInviteRoutes(rg *gin.RouterGroup, db *sql.DB) {
	inviteHandler := handlers.NewInviteHandler(db)

	rg.POST("/assessments/:id/invite", inviteHandler.InvitePartner)
	rg.GET("/assessments/:id/invites", inviteHandler.GetInvites)
}

// SetupUserRoutes sets up protected user routes.
func SetupUserRoutes(rg *gin.RouterGroup, db *sql.DB) {
	userHandler := &handlers.UserHandler{DB: db}

	rg.GET("/user/profile", userHandler.GetProfile)
	rg.PUT("/user/profile", userHandler.UpdateProfile)
	rg.POST("/user/password", userHandler.ChangePassword)
	rg.POST("/user/2fa/setup", userHandler.SetupTOTP)
	rg.POST("/user/2fa/verify", userHandler.VerifyTOTP)
	rg.POST("/user/2fa/disable", userHandler.DisableTOTP)
}

// SetupProgressRoutes sets up the protected progress-resume routes.
func SetupProgressRoutes(rg *gin.RouterGroup, db *sql.DB) {
	progressHandler := handlers.NewProgressHandler(db)

	rg.GET("/assessments/:id/progress", progressHandler.GetProgress)
	rg.PUT("/assessments/:id/progress", progressHandler.SaveProgress)
	rg.DELETE("/assessments/:id/progress", progressHandler.ClearProgress)
}

// SetupCheckoutRoutes sets up the protected payment routes.
func SetupCheckoutRoutes(rg *gin.RouterGroup, db *sql.DB) {
	checkoutHandler := handlers.NewCheckoutHandler(db)

	rg.POST("/checkout/session", checkoutHandler.CreateSession)
	rg.GET("/checkout/session/:session_id/verify", checkoutHandler.VerifySession)
}
