package handlers

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

func dialAssessment(t *testing.T, wsBase, assessmentID string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(wsBase+"/ws/assessments/"+assessmentID, nil)
	if err != nil {
		t.Fatalf("failed to dial assessment %s: %v", assessmentID, err)
	}
	return conn
}

func TestBroadcastRoutesToWatchedAssessmentOnly(t *testing.T) {
	gin.SetMode(gin.TestMode)

	h := NewWSHandler()
	router := gin.New()
	router.GET("/ws/assessments/:id", h.HandleWS)

	srv := httptest.NewServer(router)
	defer srv.Close()

	wsBase := "ws" + strings.TrimPrefix(srv.URL, "http")

	connA := dialAssessment(t, wsBase, "assessment-a")
	defer connA.Close()
	connB := dialAssessment(t, wsBase, "assessment-b")
	defer connB.Close()

	// Give the hub a moment to register both sessions.
	time.Sleep(100 * time.Millisecond)

	h.BroadcastUpdate("assessment-a", "report_ready", "alex@example.com")

	connA.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := connA.ReadMessage()
	if err != nil {
		t.Fatalf("watcher of assessment-a never received the broadcast: %v", err)
	}
	want := `{"type": "report_ready", "user": "alex@example.com"}`
	if string(msg) != want {
		t.Fatalf("unexpected broadcast payload: got %s, want %s", msg, want)
	}

	connB.SetReadDeadline(time.Now().Add(300 * time.Millisecond))
	if _, stray, err := connB.ReadMessage(); err == nil {
		t.Fatalf("watcher of assessment-b received another couple's event: %s", stray)
	}
}
