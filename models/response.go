package models

import "time"

// AssessmentResponse is one respondent's answer to one question. At
// most one row exists per (assessment, question, respondent); later
// submissions overwrite earlier ones.
type AssessmentResponse struct {
	AssessmentID    string    `json:"assessment_id"`
	QuestionID      string    `json:"question_id"`
	Section         string    `json:"section"`
	RespondentEmail string    `json:"respondent_email"`
	ResponseValue   string    `json:"response_value"`
	Score           *int      `json:"score,omitempty"` // 0-10, nil for unscored answers
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type SubmitResponsesRequest struct {
	Responses []ResponseInput `json:"responses" binding:"required,min=1,dive"`
}

type ResponseInput struct {
	QuestionID    string `json:"question_id" binding:"required"`
	ResponseValue string `json:"response_value" binding:"required"`
	Score         *int   `json:"score,omitempty"`
}

// SectionScoreSummary aggregates a single respondent's scored answers
// within one section. Average is round-half-up of total/count, 0 when
// nothing in the section carried a score.
type SectionScoreSummary struct {
	Section string `json:"section"`
	Total   int    `json:"total"`
	Count   int    `json:"count"`
	Average int    `json:"average"`
}

// QuestionAlignment is the per-question comparison row of a couple
// report. IsAligned is only meaningful when HasBothResponses is true;
// rows missing either answer are reported so the caller can render
// "awaiting response" entries.
type QuestionAlignment struct {
	QuestionID       string `json:"question_id"`
	IsAligned        bool   `json:"is_aligned"`
	HasBothResponses bool   `json:"has_both_responses"`
}

type AlignmentResult struct {
	AlignmentPercentage int                 `json:"alignment_percentage"`
	PerQuestion         []QuestionAlignment `json:"per_question"`
}

// CoupleReport is the full payload behind the report endpoint.
type CoupleReport struct {
	AssessmentID     string                           `json:"assessment_id"`
	Alignment        AlignmentResult                  `json:"alignment"`
	SectionsByMember map[string][]SectionScoreSummary `json:"sections_by_member"`
}
