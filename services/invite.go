package services

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/sacredlabs/sacred-api/models"
	"github.com/sacredlabs/sacred-api/utils"
)

const DefaultInviteExpiryHours = 168 // 7 days

// TokenStore is the persistence surface the invite service needs.
// Consume must be atomic: it consumes the token only if it is still
// pending and unexpired as of now, enrolls the invitee as partner2 of
// the bound assessment in the same atomic step, and reports nil when
// no row qualified. A failed enrollment must leave the token
// unconsumed. Two concurrent Consume calls for the same token must
// serialize to exactly one non-nil result.
type TokenStore interface {
	Create(ctx context.Context, token *models.InviteToken) error
	Consume(ctx context.Context, token, inviteeEmail string, now time.Time) (*models.InviteToken, error)
	Get(ctx context.Context, token string) (*models.InviteToken, error)
	ListByAssessment(ctx context.Context, assessmentID string) ([]models.InviteToken, error)
	MarkExpired(ctx context.Context, now time.Time) (int64, error)
}

type InviteService struct {
	store TokenStore
	now   func() time.Time
}

func NewInviteService(db *sql.DB) *InviteService {
	return &InviteService{store: &pgTokenStore{db: db}, now: time.Now}
}

// Create issues a pending single-use token binding an assessment to
// its inviter. The caller composes the invite URL from the returned
// token.
func (s *InviteService) Create(ctx context.Context, assessmentID, inviterEmail string, expiresInHours int) (*models.InviteToken, error) {
	if expiresInHours <= 0 {
		expiresInHours = DefaultInviteExpiryHours
	}

	now := s.now()
	token := &models.InviteToken{
		Token:         uuid.New().String(),
		AssessmentID:  assessmentID,
		Partner1Email: inviterEmail,
		Status:        models.InviteStatusPending,
		ExpiresAt:     now.Add(time.Duration(expiresInHours) * time.Hour),
		CreatedAt:     now,
	}

	if err := s.store.Create(ctx, token); err != nil {
		return nil, err
	}
	return token, nil
}

// Redeem consumes a token exactly once, enrolls the invitee, and
// returns the assessment and inviter the token was bound to. The
// consume itself is one conditional write, committed together with the
// enrollment; only when it matches nothing do we read the row back to
// tell the caller why. Expiry is classified before used-state, so an
// expired token reports ErrTokenExpired even if it was also consumed
// at some point.
func (s *InviteService) Redeem(ctx context.Context, token, inviteeEmail string) (*models.Redemption, error) {
	now := s.now()

	consumed, err := s.store.Consume(ctx, token, inviteeEmail, now)
	if err != nil {
		return nil, err
	}
	if consumed != nil {
		return &models.Redemption{
			AssessmentID: consumed.AssessmentID,
			InviterEmail: consumed.Partner1Email,
		}, nil
	}

	existing, err := s.store.Get(ctx, token)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, ErrTokenNotFound
	}
	if !now.Before(existing.ExpiresAt) {
		return nil, ErrTokenExpired
	}
	// Still nominally pending: a concurrent redeem won the conditional
	// write between our two statements.
	return nil, ErrTokenAlreadyUsed
}

// List returns every token ever issued for an assessment, newest
// first, with expiry folded into the reported status.
func (s *InviteService) List(ctx context.Context, assessmentID string) ([]models.InviteToken, error) {
	tokens, err := s.store.ListByAssessment(ctx, assessmentID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	for i := range tokens {
		tokens[i].Status = tokens[i].EffectiveStatus(now)
	}
	return tokens, nil
}

// SweepExpired materializes the expired status on long-dead pending
// rows. Cosmetic only: Redeem never trusts the stored status for
// expiry.
func (s *InviteService) SweepExpired(ctx context.Context) (int64, error) {
	return s.store.MarkExpired(ctx, s.now())
}

// ============================================================================
// POSTGRES STORE
// ============================================================================

type pgTokenStore struct {
	db *sql.DB
}

func (p *pgTokenStore) Create(ctx context.Context, t *models.InviteToken) error {
	query := `
		INSERT INTO invite_tokens (token, assessment_id, partner1_email, status, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := p.db.ExecContext(ctx, query,
		t.Token, t.AssessmentID, t.Partner1Email, t.Status, t.ExpiresAt, t.CreatedAt)
	return err
}

// Consume hangs the whole redeem flow on one conditional write: the
// WHERE clause rejects used and expired rows, so concurrent
// redemptions serialize to one winner inside Postgres. The invitee's
// enrollment rides the same transaction, so a failed enrollment rolls
// the consume back instead of stranding a used token.
func (p *pgTokenStore) Consume(ctx context.Context, token, inviteeEmail string, now time.Time) (*models.InviteToken, error) {
	var consumed *models.InviteToken

	err := utils.WithTransaction(p.db, func(tx *sql.Tx) error {
		query := `
			UPDATE invite_tokens
			SET status = 'used', used_at = $3, partner2_email = $2
			WHERE token = $1 AND status = 'pending' AND expires_at > $3
			RETURNING token, assessment_id, partner1_email, partner2_email, status, expires_at, used_at, created_at
		`

		var t models.InviteToken
		var partner2 sql.NullString
		err := tx.QueryRowContext(ctx, query, token, inviteeEmail, now).Scan(
			&t.Token, &t.AssessmentID, &t.Partner1Email, &partner2,
			&t.Status, &t.ExpiresAt, &t.UsedAt, &t.CreatedAt,
		)
		if err == sql.ErrNoRows {
			return nil
		}
		if err != nil {
			return err
		}
		if partner2.Valid {
			t.Partner2Email = partner2.String
		}

		memberQuery := `
			INSERT INTO assessment_members (id, assessment_id, email, role, joined_at)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (assessment_id, email) DO NOTHING
		`
		if _, err := tx.ExecContext(ctx, memberQuery,
			uuid.New().String(), t.AssessmentID, inviteeEmail, models.RolePartner2, now); err != nil {
			return err
		}

		updateQuery := `
			UPDATE assessments
			SET partner_email = $1, updated_at = $2
			WHERE id = $3
		`
		if _, err := tx.ExecContext(ctx, updateQuery, inviteeEmail, now, t.AssessmentID); err != nil {
			return err
		}

		consumed = &t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return consumed, nil
}

func (p *pgTokenStore) Get(ctx context.Context, token string) (*models.InviteToken, error) {
	query := `
		SELECT token, assessment_id, partner1_email, partner2_email, status, expires_at, used_at, created_at
		FROM invite_tokens
		WHERE token = $1
	`

	var t models.InviteToken
	var partner2 sql.NullString
	err := p.db.QueryRowContext(ctx, query, token).Scan(
		&t.Token, &t.AssessmentID, &t.Partner1Email, &partner2,
		&t.Status, &t.ExpiresAt, &t.UsedAt, &t.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if partner2.Valid {
		t.Partner2Email = partner2.String
	}
	return &t, nil
}

func (p *pgTokenStore) ListByAssessment(ctx context.Context, assessmentID string) ([]models.InviteToken, error) {
	query := `
		SELECT token, assessment_id, partner1_email, partner2_email, status, expires_at, used_at, created_at
		FROM invite_tokens
		WHERE assessment_id = $1
		ORDER BY created_at DESC, token DESC
	`

	rows, err := p.db.QueryContext(ctx, query, assessmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tokens []models.InviteToken
	for rows.Next() {
		var t models.InviteToken
		var partner2 sql.NullString
		if err := rows.Scan(
			&t.Token, &t.AssessmentID, &t.Partner1Email, &partner2,
			&t.Status, &t.ExpiresAt, &t.UsedAt, &t.CreatedAt,
		); err != nil {
			return nil, err
		}
		if partner2.Valid {
			t.Partner2Email = partner2.String
		}
		tokens = append(tokens, t)
	}
	return tokens, rows.Err()
}

func (p *pgTokenStore) MarkExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := p.db.ExecContext(ctx,
		`UPDATE invite_tokens SET status = 'expired' WHERE status = 'pending' AND expires_at < $1`, now)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
