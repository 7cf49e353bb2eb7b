package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sacredlabs/sacred-api/models"
)

// stubTokenStore mirrors the Postgres store's conditional-consume
// contract with a mutex instead of a WHERE clause. Setting enrollErr
// simulates the enrollment statement failing inside the consume
// transaction; the token must stay untouched.
type stubTokenStore struct {
	mu        sync.Mutex
	tokens    map[string]*models.InviteToken
	enrollErr error
}

func newStubTokenStore() *stubTokenStore {
	return &stubTokenStore{tokens: map[string]*models.InviteToken{}}
}

func (s *stubTokenStore) Create(_ context.Context, t *models.InviteToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *t
	s.tokens[t.Token] = &copied
	return nil
}

func (s *stubTokenStore) Consume(_ context.Context, token, inviteeEmail string, now time.Time) (*models.InviteToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tokens[token]
	if !ok || t.Status != models.InviteStatusPending || !now.Before(t.ExpiresAt) {
		return nil, nil
	}
	if s.enrollErr != nil {
		// The whole transaction rolls back, consume included.
		return nil, s.enrollErr
	}
	t.Status = models.InviteStatusUsed
	t.Partner2Email = inviteeEmail
	usedAt := now
	t.UsedAt = &usedAt
	copied := *t
	return &copied, nil
}

func (s *stubTokenStore) Get(_ context.Context, token string) (*models.InviteToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tokens[token]
	if !ok {
		return nil, nil
	}
	copied := *t
	return &copied, nil
}

func (s *stubTokenStore) ListByAssessment(_ context.Context, assessmentID string) ([]models.InviteToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.InviteToken
	for _, t := range s.tokens {
		if t.AssessmentID == assessmentID {
			out = append(out, *t)
		}
	}
	// Newest first, as the SQL store orders.
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].CreatedAt.After(out[i].CreatedAt) {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out, nil
}

func (s *stubTokenStore) MarkExpired(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, t := range s.tokens {
		if t.Status == models.InviteStatusPending && t.ExpiresAt.Before(now) {
			t.Status = models.InviteStatusExpired
			n++
		}
	}
	return n, nil
}

func newTestInviteService(store TokenStore, now time.Time) *InviteService {
	return &InviteService{store: store, now: func() time.Time { return now }}
}

func TestInviteCreateDefaults(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := newStubTokenStore()
	svc := newTestInviteService(store, now)

	token, err := svc.Create(context.Background(), "A1", "alex@example.com", 0)
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if token.Token == "" {
		t.Fatal("expected a token string")
	}
	if token.Status != models.InviteStatusPending {
		t.Fatalf("expected pending, got %s", token.Status)
	}
	if want := now.Add(168 * time.Hour); !token.ExpiresAt.Equal(want) {
		t.Fatalf("expected 7-day expiry %v, got %v", want, token.ExpiresAt)
	}
}

func TestInviteRedeemOnce(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := newStubTokenStore()
	svc := newTestInviteService(store, now)

	token, err := svc.Create(context.Background(), "A1", "alex@example.com", 24)
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	redemption, err := svc.Redeem(context.Background(), token.Token, "sam@example.com")
	if err != nil {
		t.Fatalf("first Redeem error: %v", err)
	}
	if redemption.AssessmentID != "A1" || redemption.InviterEmail != "alex@example.com" {
		t.Fatalf("unexpected redemption: %+v", redemption)
	}

	if _, err := svc.Redeem(context.Background(), token.Token, "eve@example.com"); !errors.Is(err, ErrTokenAlreadyUsed) {
		t.Fatalf("second Redeem: want ErrTokenAlreadyUsed, got %v", err)
	}

	stored, _ := store.Get(context.Background(), token.Token)
	if stored.Partner2Email != "sam@example.com" {
		t.Fatalf("invitee email must come from the winning redeem, got %q", stored.Partner2Email)
	}
	if stored.UsedAt == nil {
		t.Fatal("used_at must be set with the invitee email")
	}
}

func TestInviteRedeemConcurrent(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := newStubTokenStore()
	svc := newTestInviteService(store, now)

	token, err := svc.Create(context.Background(), "A1", "alex@example.com", 24)
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	const attempts = 16
	results := make(chan error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Redeem(context.Background(), token.Token, "sam@example.com")
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	successes, alreadyUsed := 0, 0
	for err := range results {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, ErrTokenAlreadyUsed):
			alreadyUsed++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if successes != 1 {
		t.Fatalf("expected exactly one winner, got %d", successes)
	}
	if alreadyUsed != attempts-1 {
		t.Fatalf("expected %d AlreadyUsed, got %d", attempts-1, alreadyUsed)
	}
}

func TestInviteRedeemExpired(t *testing.T) {
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := newStubTokenStore()
	svc := newTestInviteService(store, created)

	token, err := svc.Create(context.Background(), "A1", "alex@example.com", 1)
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	// Redeem two hours later: the row still says pending, expiry must
	// win anyway.
	late := newTestInviteService(store, created.Add(2*time.Hour))
	if _, err := late.Redeem(context.Background(), token.Token, "sam@example.com"); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("want ErrTokenExpired, got %v", err)
	}

	stored, _ := store.Get(context.Background(), token.Token)
	if stored.Status != models.InviteStatusPending {
		t.Fatalf("expired redeem must not consume the row, status now %s", stored.Status)
	}
}

func TestInviteRedeemExpiredBeatsUsed(t *testing.T) {
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := newStubTokenStore()
	svc := newTestInviteService(store, created)

	token, err := svc.Create(context.Background(), "A1", "alex@example.com", 1)
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if _, err := svc.Redeem(context.Background(), token.Token, "sam@example.com"); err != nil {
		t.Fatalf("Redeem error: %v", err)
	}

	// Used and, by now, also past expiry: expiry is reported first.
	late := newTestInviteService(store, created.Add(2*time.Hour))
	if _, err := late.Redeem(context.Background(), token.Token, "eve@example.com"); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("want ErrTokenExpired on expired+used token, got %v", err)
	}
}

func TestInviteRedeemRollsBackOnEnrollFailure(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := newStubTokenStore()
	svc := newTestInviteService(store, now)

	token, err := svc.Create(context.Background(), "A1", "alex@example.com", 24)
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	enrollErr := errors.New("members insert failed")
	store.enrollErr = enrollErr
	if _, err := svc.Redeem(context.Background(), token.Token, "sam@example.com"); !errors.Is(err, enrollErr) {
		t.Fatalf("want the enrollment error back, got %v", err)
	}

	stored, _ := store.Get(context.Background(), token.Token)
	if stored.Status != models.InviteStatusPending || stored.UsedAt != nil {
		t.Fatalf("failed enrollment must leave the token pending, got %+v", stored)
	}

	// Once the store recovers the same token redeems normally.
	store.enrollErr = nil
	redemption, err := svc.Redeem(context.Background(), token.Token, "sam@example.com")
	if err != nil {
		t.Fatalf("retry after recovery: %v", err)
	}
	if redemption.AssessmentID != "A1" {
		t.Fatalf("unexpected redemption: %+v", redemption)
	}
}

func TestInviteRedeemNotFound(t *testing.T) {
	svc := newTestInviteService(newStubTokenStore(), time.Now())
	if _, err := svc.Redeem(context.Background(), "no-such-token", "sam@example.com"); !errors.Is(err, ErrTokenNotFound) {
		t.Fatalf("want ErrTokenNotFound, got %v", err)
	}
}

func TestInviteListDerivesExpiry(t *testing.T) {
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := newStubTokenStore()
	svc := newTestInviteService(store, created)

	short, err := svc.Create(context.Background(), "A1", "alex@example.com", 1)
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	late := newTestInviteService(store, created.Add(2*time.Hour))
	fresh, err := late.Create(context.Background(), "A1", "alex@example.com", 24)
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}

	tokens, err := late.List(context.Background(), "A1")
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(tokens) != 2 {
		t.Fatalf("expected 2 tokens, got %d", len(tokens))
	}
	if tokens[0].Token != fresh.Token {
		t.Fatalf("expected newest first, got %s", tokens[0].Token)
	}
	if tokens[0].Status != models.InviteStatusPending {
		t.Fatalf("fresh token should read pending, got %s", tokens[0].Status)
	}
	// The stored column still says pending; List reports it expired.
	if tokens[1].Token != short.Token || tokens[1].Status != models.InviteStatusExpired {
		t.Fatalf("stale token should read expired, got %+v", tokens[1])
	}
}

func TestEffectiveStatusUsedBeatsExpiryForDisplay(t *testing.T) {
	now := time.Now()
	used := &models.InviteToken{Status: models.InviteStatusUsed, ExpiresAt: now.Add(-time.Hour)}
	if got := used.EffectiveStatus(now); got != models.InviteStatusUsed {
		t.Fatalf("a consumed token stays used in listings, got %s", got)
	}
}
