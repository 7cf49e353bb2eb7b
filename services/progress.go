package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sacredlabs/sacred-api/models"
	"github.com/sacredlabs/sacred-api/utils"
)

// ProgressSchemaVersion tags every stored snapshot. Snapshots written
// under any other version are discarded on load, never migrated.
const ProgressSchemaVersion = 2

type ProgressService struct {
	db *sql.DB
}

func NewProgressService(db *sql.DB) *ProgressService {
	return &ProgressService{db: db}
}

// Stored JSONB wrapper: the blob is AES-GCM encrypted at rest.
type progressEnvelope struct {
	SchemaVersion int    `json:"schema_version"`
	Encrypted     string `json:"encrypted"`
}

func sealProgress(data json.RawMessage) ([]byte, error) {
	encrypted, err := utils.Encrypt(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(progressEnvelope{
		SchemaVersion: ProgressSchemaVersion,
		Encrypted:     encrypted,
	})
}

// openProgress decodes a stored envelope. A schema-version mismatch is
// not an error: the snapshot is simply stale and reported as absent.
func openProgress(raw []byte) (json.RawMessage, bool, error) {
	var envelope progressEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, false, err
	}
	if envelope.SchemaVersion != ProgressSchemaVersion {
		return nil, false, nil
	}

	data, err := utils.Decrypt(envelope.Encrypted)
	if err != nil {
		return nil, false, fmt.Errorf("failed to decrypt progress snapshot: %w", err)
	}
	return data, true, nil
}

// Save upserts the respondent's snapshot for an assessment.
func (s *ProgressService) Save(ctx context.Context, assessmentID, email string, data json.RawMessage) error {
	storageJSON, err := sealProgress(data)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO progress_snapshots (id, assessment_id, respondent_email, data, schema_version, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (assessment_id, respondent_email)
		DO UPDATE SET data = EXCLUDED.data,
		              schema_version = EXCLUDED.schema_version,
		              updated_at = NOW()
	`
	_, err = s.db.ExecContext(ctx, query,
		uuid.New().String(), assessmentID, email, storageJSON, ProgressSchemaVersion)
	return err
}

// Load returns the saved snapshot, or nil when there is none or the
// stored schema version no longer matches.
func (s *ProgressService) Load(ctx context.Context, assessmentID, email string) (*models.ProgressSnapshot, error) {
	var raw []byte
	var updatedAt time.Time
	err := s.db.QueryRowContext(ctx, `
		SELECT data, updated_at
		FROM progress_snapshots
		WHERE assessment_id = $1 AND respondent_email = $2
	`, assessmentID, email).Scan(&raw, &updatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	data, ok, err := openProgress(raw)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	return &models.ProgressSnapshot{
		AssessmentID:    assessmentID,
		RespondentEmail: email,
		SchemaVersion:   ProgressSchemaVersion,
		Data:            data,
		UpdatedAt:       updatedAt,
	}, nil
}

func (s *ProgressService) Clear(ctx context.Context, assessmentID, email string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM progress_snapshots
		WHERE assessment_id = $1 AND respondent_email = $2
	`, assessmentID, email)
	return err
}

// DeleteStale removes snapshots untouched for the given duration; run
// by the daily sweep.
func (s *ProgressService) DeleteStale(ctx context.Context, olderThan time.Duration) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM progress_snapshots
		WHERE updated_at < NOW() - $1::interval
	`, fmt.Sprintf("%d seconds", int(olderThan.Seconds())))
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
