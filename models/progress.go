package models

import (
	"encoding/json"
	"time"
)

// ProgressSnapshot is a respondent's saved in-progress answer state,
// keyed by (assessment, respondent). Data is an opaque blob owned by
// the frontend; the server only version-tags and stores it.
type ProgressSnapshot struct {
	AssessmentID    string          `json:"assessment_id"`
	RespondentEmail string          `json:"respondent_email"`
	SchemaVersion   int             `json:"schema_version"`
	Data            json.RawMessage `json:"data"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

type SaveProgressRequest struct {
	Data json.RawMessage `json:"data" binding:"required"`
}
