package services

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/sacredlabs/sacred-api/models"
)

// CheckoutService talks to the hosted checkout provider and mirrors
// session state locally. The provider is a black box: create a
// session, later verify it by id. No retries here; polling is the
// frontend's concern.
type CheckoutService struct {
	db      *sql.DB
	APIKey  string
	BaseURL string
	Client  *http.Client
}

func NewCheckoutService(db *sql.DB) *CheckoutService {
	baseURL := os.Getenv("CHECKOUT_API_URL")
	if baseURL == "" {
		baseURL = "https://api.checkout-provider.com/v1"
	}

	return &CheckoutService{
		db:      db,
		APIKey:  os.Getenv("CHECKOUT_API_KEY"),
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func assessmentPriceCents() int {
	return 4900
}

// CreateSession opens a provider checkout session for one assessment
// purchase and records it pending.
func (s *CheckoutService) CreateSession(ctx context.Context, userEmail, assessmentID string) (*models.CheckoutSession, error) {
	frontend := os.Getenv("FRONTEND_URL")
	if frontend == "" {
		frontend = "http://localhost:3000"
	}

	payload := map[string]interface{}{
		"amount":         assessmentPriceCents(),
		"currency":       "usd",
		"customer_email": userEmail,
		"reference":      assessmentID,
		"success_url":    fmt.Sprintf("%s/PaymentSuccess?session_id={CHECKOUT_SESSION_ID}", frontend),
		"cancel_url":     fmt.Sprintf("%s/Pricing", frontend),
	}

	body, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, "POST", s.BaseURL+"/checkout/sessions", bytes.NewBuffer(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+s.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("checkout provider returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var result struct {
		ID  string `json:"id"`
		URL string `json:"url"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("decode error: %v, body: %s", err, string(respBody))
	}

	session := &models.CheckoutSession{
		ID:                uuid.New().String(),
		UserEmail:         userEmail,
		AssessmentID:      assessmentID,
		ProviderSessionID: result.ID,
		Status:            models.CheckoutStatusPending,
		AmountCents:       assessmentPriceCents(),
		Currency:          "usd",
		CheckoutURL:       result.URL,
		CreatedAt:         time.Now(),
		UpdatedAt:         time.Now(),
	}

	query := `
		INSERT INTO checkout_sessions
			(id, user_email, assessment_id, provider_session_id, status, amount_cents, currency, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	if _, err := s.db.ExecContext(ctx, query,
		session.ID, session.UserEmail, session.AssessmentID, session.ProviderSessionID,
		session.Status, session.AmountCents, session.Currency, session.CreatedAt, session.UpdatedAt); err != nil {
		return nil, err
	}

	return session, nil
}

// VerifySession asks the provider for the session state and updates
// the local row. Only the owning user can verify their session.
func (s *CheckoutService) VerifySession(ctx context.Context, sessionID, userEmail string) (*models.CheckoutSession, error) {
	var session models.CheckoutSession
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_email, assessment_id, provider_session_id, status, amount_cents, currency, created_at, updated_at
		FROM checkout_sessions
		WHERE id = $1
	`, sessionID).Scan(
		&session.ID, &session.UserEmail, &session.AssessmentID, &session.ProviderSessionID,
		&session.Status, &session.AmountCents, &session.Currency, &session.CreatedAt, &session.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if session.UserEmail != userEmail {
		return nil, ErrUnauthorized
	}

	paymentStatus, err := s.fetchProviderStatus(ctx, session.ProviderSessionID)
	if err != nil {
		return nil, err
	}

	status := session.Status
	switch paymentStatus {
	case "paid", "complete":
		status = models.CheckoutStatusPaid
	case "failed", "expired", "canceled":
		status = models.CheckoutStatusFailed
	}

	if status != session.Status {
		if _, err := s.db.ExecContext(ctx, `
			UPDATE checkout_sessions SET status = $1, updated_at = NOW() WHERE id = $2
		`, status, session.ID); err != nil {
			return nil, err
		}
		session.Status = status
		session.UpdatedAt = time.Now()
	}

	return &session, nil
}

// fetchProviderStatus asks the provider for a session's payment state.
// Non-200 responses are provider errors, never a payment state.
func (s *CheckoutService) fetchProviderStatus(ctx context.Context, providerSessionID string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET",
		s.BaseURL+"/checkout/sessions/"+url.PathEscape(providerSessionID), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+s.APIKey)

	resp, err := s.Client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("checkout provider returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var result struct {
		ID            string `json:"id"`
		PaymentStatus string `json:"payment_status"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("decode error: %v, body: %s", err, string(respBody))
	}
	return result.PaymentStatus, nil
}
