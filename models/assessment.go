package models

import "time"

// Assessment statuses per member. An assessment as a whole is complete
// once every member has a completed_at timestamp.
const (
	RolePartner1 = "partner1"
	RolePartner2 = "partner2"
)

type Assessment struct {
	ID           string             `json:"id"`
	Title        string             `json:"title"`
	OwnerEmail   string             `json:"owner_email"`
	PartnerEmail string             `json:"partner_email,omitempty"`
	IsOwner      bool               `json:"is_owner,omitempty"`
	Completed    bool               `json:"completed"`
	Members      []AssessmentMember `json:"members,omitempty"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

type AssessmentMember struct {
	ID           string     `json:"id"`
	AssessmentID string     `json:"assessment_id"`
	Email        string     `json:"email"`
	Name         string     `json:"name,omitempty"`
	Role         string     `json:"role"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	JoinedAt     time.Time  `json:"joined_at"`
}

type CreateAssessmentRequest struct {
	Title string `json:"title" binding:"required"`
}

// Question is a seeded catalog row; Position defines presentation and
// report ordering. Scored questions carry a 0-10 numeric score on each
// response, unscored ones only a categorical response value.
type Question struct {
	ID       string `json:"id"`
	Section  string `json:"section"`
	Prompt   string `json:"prompt"`
	Position int    `json:"position"`
	Scored   bool   `json:"scored"`
}
