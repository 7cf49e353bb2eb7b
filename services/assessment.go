package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sacredlabs/sacred-api/models"
	"github.com/sacredlabs/sacred-api/utils"
)

type AssessmentService struct {
	db *sql.DB
}

func NewAssessmentService(db *sql.DB) *AssessmentService {
	return &AssessmentService{db: db}
}

// Create creates an assessment and enrolls the owner as partner1.
func (s *AssessmentService) Create(ctx context.Context, title, ownerEmail string) (*models.Assessment, error) {
	assessment := &models.Assessment{
		ID:         uuid.New().String(),
		Title:      title,
		OwnerEmail: ownerEmail,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}

	err := utils.WithTransaction(s.db, func(tx *sql.Tx) error {
		query := `
			INSERT INTO assessments (id, title, owner_email, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5)
		`
		if _, err := tx.ExecContext(ctx, query,
			assessment.ID, assessment.Title, assessment.OwnerEmail,
			assessment.CreatedAt, assessment.UpdatedAt); err != nil {
			return err
		}

		memberQuery := `
			INSERT INTO assessment_members (id, assessment_id, email, role, joined_at)
			VALUES ($1, $2, $3, $4, $5)
		`
		_, err := tx.ExecContext(ctx, memberQuery,
			uuid.New().String(), assessment.ID, ownerEmail, models.RolePartner1, time.Now())
		return err
	})

	if err != nil {
		return nil, err
	}
	return assessment, nil
}

// GetByID returns an assessment the caller is a member of. A missing
// row and a row the caller cannot see look the same: ErrNotFound.
func (s *AssessmentService) GetByID(ctx context.Context, id, email string) (*models.Assessment, error) {
	query := `
		SELECT a.id, a.title, a.owner_email, COALESCE(a.partner_email, ''), a.created_at, a.updated_at,
		       CASE WHEN a.owner_email = $2 THEN true ELSE false END as is_owner
		FROM assessments a
		INNER JOIN assessment_members am ON a.id = am.assessment_id
		WHERE a.id = $1 AND am.email = $2
	`

	var a models.Assessment
	err := s.db.QueryRowContext(ctx, query, id, email).Scan(
		&a.ID, &a.Title, &a.OwnerEmail, &a.PartnerEmail,
		&a.CreatedAt, &a.UpdatedAt, &a.IsOwner,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	members, err := s.GetMembers(ctx, id)
	if err != nil {
		return nil, err
	}
	a.Members = members
	a.Completed = bothComplete(members)

	return &a, nil
}

// ListForUser gets every assessment the email belongs to, newest first.
func (s *AssessmentService) ListForUser(ctx context.Context, email string) ([]models.Assessment, error) {
	query := `
		SELECT a.id, a.title, a.owner_email, COALESCE(a.partner_email, ''), a.created_at, a.updated_at,
		       CASE WHEN a.owner_email = $1 THEN true ELSE false END as is_owner
		FROM assessments a
		INNER JOIN assessment_members am ON a.id = am.assessment_id
		WHERE am.email = $1
		ORDER BY a.created_at DESC
	`

	rows, err := s.db.QueryContext(ctx, query, email)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assessments []models.Assessment
	for rows.Next() {
		var a models.Assessment
		if err := rows.Scan(&a.ID, &a.Title, &a.OwnerEmail, &a.PartnerEmail,
			&a.CreatedAt, &a.UpdatedAt, &a.IsOwner); err != nil {
			return nil, err
		}

		members, err := s.GetMembers(ctx, a.ID)
		if err != nil {
			return nil, err
		}
		a.Members = members
		a.Completed = bothComplete(members)

		assessments = append(assessments, a)
	}
	return assessments, rows.Err()
}

func (s *AssessmentService) GetMembers(ctx context.Context, assessmentID string) ([]models.AssessmentMember, error) {
	query := `
		SELECT am.id, am.assessment_id, am.email, am.role, am.completed_at, am.joined_at,
		       COALESCE(u.name, '')
		FROM assessment_members am
		LEFT JOIN users u ON am.email = u.email
		WHERE am.assessment_id = $1
		ORDER BY am.joined_at
	`

	rows, err := s.db.QueryContext(ctx, query, assessmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []models.AssessmentMember
	for rows.Next() {
		var m models.AssessmentMember
		if err := rows.Scan(&m.ID, &m.AssessmentID, &m.Email, &m.Role,
			&m.CompletedAt, &m.JoinedAt, &m.Name); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func (s *AssessmentService) IsMember(ctx context.Context, assessmentID, email string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM assessment_members
			WHERE assessment_id = $1 AND email = $2
		)
	`, assessmentID, email).Scan(&exists)
	return exists, err
}

// ============================================================================
// QUESTIONS & RESPONSES
// ============================================================================

// ListQuestions returns the seeded question catalog in position order.
func (s *AssessmentService) ListQuestions(ctx context.Context) ([]models.Question, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, section, prompt, position, scored
		FROM questions
		ORDER BY position
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []models.Question
	for rows.Next() {
		var q models.Question
		if err := rows.Scan(&q.ID, &q.Section, &q.Prompt, &q.Position, &q.Scored); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// SubmitResponses upserts a batch of answers for one respondent.
// Last write wins per (assessment, question, respondent). Scores are
// accepted only on scored questions and must be within 0-10.
func (s *AssessmentService) SubmitResponses(ctx context.Context, assessmentID, email string, inputs []models.ResponseInput) error {
	questions, err := s.ListQuestions(ctx)
	if err != nil {
		return err
	}
	catalog := make(map[string]models.Question, len(questions))
	for _, q := range questions {
		catalog[q.ID] = q
	}

	return utils.WithTransaction(s.db, func(tx *sql.Tx) error {
		query := `
			INSERT INTO assessment_responses
				(assessment_id, question_id, section, respondent_email, response_value, score, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
			ON CONFLICT (assessment_id, question_id, respondent_email)
			DO UPDATE SET response_value = EXCLUDED.response_value,
			              score = EXCLUDED.score,
			              updated_at = NOW()
		`

		for _, in := range inputs {
			q, ok := catalog[in.QuestionID]
			if !ok {
				return fmt.Errorf("unknown question: %s", in.QuestionID)
			}

			score := in.Score
			if !q.Scored {
				score = nil
			} else if score != nil && (*score < 0 || *score > 10) {
				return fmt.Errorf("score out of range for question %s: %d", in.QuestionID, *score)
			}

			if _, err := tx.ExecContext(ctx, query,
				assessmentID, in.QuestionID, q.Section, email, in.ResponseValue, score); err != nil {
				return err
			}
		}
		return nil
	})
}

// ListResponses returns one respondent's answers ordered by question
// position, which keeps derived section ordering deterministic.
func (s *AssessmentService) ListResponses(ctx context.Context, assessmentID, email string) ([]models.AssessmentResponse, error) {
	query := `
		SELECT r.assessment_id, r.question_id, r.section, r.respondent_email,
		       r.response_value, r.score, r.created_at, r.updated_at
		FROM assessment_responses r
		INNER JOIN questions q ON r.question_id = q.id
		WHERE r.assessment_id = $1 AND r.respondent_email = $2
		ORDER BY q.position
	`

	rows, err := s.db.QueryContext(ctx, query, assessmentID, email)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var responses []models.AssessmentResponse
	for rows.Next() {
		var r models.AssessmentResponse
		if err := rows.Scan(&r.AssessmentID, &r.QuestionID, &r.Section, &r.RespondentEmail,
			&r.ResponseValue, &r.Score, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, err
		}
		responses = append(responses, r)
	}
	return responses, rows.Err()
}

// MarkComplete stamps the caller's membership and reports whether the
// whole couple is now done.
func (s *AssessmentService) MarkComplete(ctx context.Context, assessmentID, email string) (bool, error) {
	// Idempotent: a second completion by the same member matches no row.
	_, err := s.db.ExecContext(ctx, `
		UPDATE assessment_members
		SET completed_at = NOW()
		WHERE assessment_id = $1 AND email = $2 AND completed_at IS NULL
	`, assessmentID, email)
	if err != nil {
		return false, err
	}

	members, err := s.GetMembers(ctx, assessmentID)
	if err != nil {
		return false, err
	}
	return bothComplete(members), nil
}

// bothComplete requires two enrolled members, each with a completion
// timestamp. A solo assessment is never complete.
func bothComplete(members []models.AssessmentMember) bool {
	if len(members) < 2 {
		return false
	}
	for _, m := range members {
		if m.CompletedAt == nil {
			return false
		}
	}
	return true
}

// ============================================================================
// COUPLE REPORT
// ============================================================================

// BuildReport assembles the comparison report for a member of a fully
// completed assessment. Guards run here; the scoring underneath is
// pure.
func (s *AssessmentService) BuildReport(ctx context.Context, assessmentID, requesterEmail, sortMode string) (*models.CoupleReport, error) {
	isMember, err := s.IsMember(ctx, assessmentID, requesterEmail)
	if err != nil {
		return nil, err
	}
	if !isMember {
		return nil, ErrUnauthorized
	}

	members, err := s.GetMembers(ctx, assessmentID)
	if err != nil {
		return nil, err
	}
	if !bothComplete(members) {
		return nil, ErrReportNotReady
	}

	questions, err := s.ListQuestions(ctx)
	if err != nil {
		return nil, err
	}

	responsesA, err := s.ListResponses(ctx, assessmentID, members[0].Email)
	if err != nil {
		return nil, err
	}
	responsesB, err := s.ListResponses(ctx, assessmentID, members[1].Email)
	if err != nil {
		return nil, err
	}

	alignment := ComputeAlignment(questions, responsesA, responsesB)
	alignment.PerQuestion = SortForDisplay(alignment.PerQuestion, sortMode)

	return &models.CoupleReport{
		AssessmentID: assessmentID,
		Alignment:    alignment,
		SectionsByMember: map[string][]models.SectionScoreSummary{
			members[0].Email: ComputeSectionAverages(responsesA),
			members[1].Email: ComputeSectionAverages(responsesB),
		},
	}, nil
}
