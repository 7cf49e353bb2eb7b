package handlers

import (
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/olahol/melody"
)

// WSHandler pushes live signals to partners while they wait on each
// other: "partner_completed" and "report_ready".
type WSHandler struct {
	M *melody.Melody
}

func NewWSHandler() *WSHandler {
	m := melody.New()

	m.Config.MaxMessageSize = 1024 * 1024

	// Keep-alive so cloud load balancers don't drop idle waiters.
	m.Config.PingPeriod = 30 * time.Second
	m.Config.PongWait = 60 * time.Second

	m.HandleConnect(func(s *melody.Session) {
		assessmentID, _ := s.Get("assessment_id")
		log.Printf("✅ Client connected to assessment: %v", assessmentID)
	})

	m.HandleDisconnect(func(s *melody.Session) {
		assessmentID, _ := s.Get("assessment_id")
		log.Printf("🔌 Client disconnected from assessment: %v", assessmentID)
	})

	m.HandleError(func(s *melody.Session, err error) {
		log.Printf("❌ WebSocket Error: %v", err)
	})

	return &WSHandler{M: m}
}

// HandleWS upgrades the request. The session is seeded with the
// assessment id it watches before it joins the hub, so broadcasts can
// never route to another assessment's clients.
func (h *WSHandler) HandleWS(c *gin.Context) {
	err := h.M.HandleRequestWithKeys(c.Writer, c.Request, map[string]interface{}{
		"assessment_id": c.Param("id"),
	})
	if err != nil {
		log.Printf("❌ Failed to upgrade websocket: %v", err)
	}
}

// BroadcastUpdate signals every client watching this assessment.
func (h *WSHandler) BroadcastUpdate(assessmentID string, updateType string, who string) {
	msg := []byte(`{"type": "` + updateType + `", "user": "` + who + `"}`)

	err := h.M.BroadcastFilter(msg, func(q *melody.Session) bool {
		id, exists := q.Get("assessment_id")
		return exists && id == assessmentID
	})

	if err != nil {
		log.Printf("⚠️ Error broadcasting to assessment %s: %v", assessmentID, err)
	}
}
