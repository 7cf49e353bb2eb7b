package models

import "time"

const (
	CheckoutStatusPending = "pending"
	CheckoutStatusPaid    = "paid"
	CheckoutStatusFailed  = "failed"
)

type CheckoutSession struct {
	ID                string    `json:"id"`
	UserEmail         string    `json:"user_email"`
	AssessmentID      string    `json:"assessment_id"`
	ProviderSessionID string    `json:"provider_session_id"`
	Status            string    `json:"status"`
	AmountCents       int       `json:"amount_cents"`
	Currency          string    `json:"currency"`
	CheckoutURL       string    `json:"checkout_url,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

type CreateCheckoutRequest struct {
	AssessmentID string `json:"assessment_id" binding:"required"`
}
