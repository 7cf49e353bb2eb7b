package config

import (
	"database/sql"
	"fmt"
	"os"

	_ "github.com/lib/pq"
)

func InitDB() (*sql.DB, error) {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	return db, nil
}

func RunMigrations(db *sql.DB) error {
	migrations := []string{
		`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`,

		`CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			email VARCHAR(255) UNIQUE NOT NULL,
			password_hash VARCHAR(255) NOT NULL,
			name VARCHAR(255) NOT NULL,
			totp_secret VARCHAR(255),
			totp_enabled BOOLEAN DEFAULT FALSE,
			email_verified BOOLEAN DEFAULT FALSE,
			created_at TIMESTAMP DEFAULT NOW(),
			updated_at TIMESTAMP DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS sessions (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			user_id UUID REFERENCES users(id) ON DELETE CASCADE,
			refresh_token VARCHAR(500) UNIQUE NOT NULL,
			expires_at TIMESTAMP NOT NULL,
			created_at TIMESTAMP DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS email_verifications (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			user_id UUID REFERENCES users(id) ON DELETE CASCADE,
			token VARCHAR(255) NOT NULL,
			expires_at TIMESTAMP NOT NULL,
			created_at TIMESTAMP DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS assessments (
			id UUID PRIMARY KEY,
			title VARCHAR(255) NOT NULL,
			owner_email VARCHAR(255) NOT NULL,
			partner_email VARCHAR(255),
			created_at TIMESTAMP DEFAULT NOW(),
			updated_at TIMESTAMP DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS assessment_members (
			id UUID PRIMARY KEY,
			assessment_id UUID REFERENCES assessments(id) ON DELETE CASCADE,
			email VARCHAR(255) NOT NULL,
			role VARCHAR(50) NOT NULL,
			completed_at TIMESTAMP,
			joined_at TIMESTAMP DEFAULT NOW(),
			UNIQUE(assessment_id, email)
		)`,

		`CREATE TABLE IF NOT EXISTS invite_tokens (
			token VARCHAR(255) PRIMARY KEY,
			assessment_id UUID REFERENCES assessments(id) ON DELETE CASCADE,
			partner1_email VARCHAR(255) NOT NULL,
			partner2_email VARCHAR(255),
			status VARCHAR(50) DEFAULT 'pending',
			expires_at TIMESTAMP NOT NULL,
			used_at TIMESTAMP,
			created_at TIMESTAMP DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS questions (
			id VARCHAR(50) PRIMARY KEY,
			section VARCHAR(100) NOT NULL,
			prompt TEXT NOT NULL,
			position INTEGER NOT NULL,
			scored BOOLEAN DEFAULT FALSE
		)`,

		`CREATE TABLE IF NOT EXISTS assessment_responses (
			id UUID DEFAULT uuid_generate_v4(),
			assessment_id UUID REFERENCES assessments(id) ON DELETE CASCADE,
			question_id VARCHAR(50) REFERENCES questions(id),
			section VARCHAR(100) NOT NULL,
			respondent_email VARCHAR(255) NOT NULL,
			response_value TEXT NOT NULL,
			score INTEGER,
			created_at TIMESTAMP DEFAULT NOW(),
			updated_at TIMESTAMP DEFAULT NOW(),
			PRIMARY KEY (assessment_id, question_id, respondent_email)
		)`,

		`CREATE TABLE IF NOT EXISTS progress_snapshots (
			id UUID PRIMARY KEY,
			assessment_id UUID REFERENCES assessments(id) ON DELETE CASCADE,
			respondent_email VARCHAR(255) NOT NULL,
			data JSONB NOT NULL,
			schema_version INTEGER NOT NULL,
			updated_at TIMESTAMP DEFAULT NOW(),
			UNIQUE(assessment_id, respondent_email)
		)`,

		`CREATE TABLE IF NOT EXISTS checkout_sessions (
			id UUID PRIMARY KEY,
			user_email VARCHAR(255) NOT NULL,
			assessment_id UUID REFERENCES assessments(id) ON DELETE CASCADE,
			provider_session_id VARCHAR(255) NOT NULL,
			status VARCHAR(50) DEFAULT 'pending',
			amount_cents INTEGER NOT NULL,
			currency VARCHAR(10) NOT NULL,
			created_at TIMESTAMP DEFAULT NOW(),
			updated_at TIMESTAMP DEFAULT NOW()
		)`,

		`CREATE INDEX IF NOT EXISTS idx_assessment_members_assessment_id ON assessment_members(assessment_id)`,
		`CREATE INDEX IF NOT EXISTS idx_assessment_members_email ON assessment_members(email)`,
		`CREATE INDEX IF NOT EXISTS idx_invite_tokens_assessment_id ON invite_tokens(assessment_id)`,
		`CREATE INDEX IF NOT EXISTS idx_responses_assessment_id ON assessment_responses(assessment_id)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_user_id ON sessions(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_email_verifications_token ON email_verifications(token)`,
		`CREATE INDEX IF NOT EXISTS idx_checkout_sessions_user_email ON checkout_sessions(user_email)`,
	}

	for _, migration := range migrations {
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("failed to run migration: %w", err)
		}
	}

	return SeedQuestions(db)
}

// SeedQuestions inserts the assessment catalog. Idempotent: existing
// rows are left alone so prompt edits in production survive restarts.
func SeedQuestions(db *sql.DB) error {
	questions := []struct {
		id      string
		section string
		prompt  string
		scored  bool
	}{
		{"comm-01", "communication", "When something is bothering me, I bring it up within a day.", true},
		{"comm-02", "communication", "We can disagree without raising our voices.", true},
		{"comm-03", "communication", "How do you prefer to resolve a disagreement?", false},
		{"fin-01", "finances", "We should combine all of our finances after the wedding.", false},
		{"fin-02", "finances", "I am comfortable with how my partner spends money.", true},
		{"fin-03", "finances", "Who should manage the day-to-day budget?", false},
		{"faith-01", "faith", "Shared faith practice is important to our marriage.", false},
		{"faith-02", "faith", "How often do you want to attend services together?", false},
		{"fam-01", "family", "Do you want children?", false},
		{"fam-02", "family", "How close should we live to our extended families?", false},
		{"fam-03", "family", "I feel welcomed by my partner's family.", true},
		{"int-01", "intimacy", "I am satisfied with how we express affection.", true},
		{"int-02", "intimacy", "We talk openly about our expectations of each other.", true},
		{"conf-01", "conflict", "After an argument, who usually reaches out first?", false},
		{"conf-02", "conflict", "I trust my partner to fight fair.", true},
	}

	query := `
		INSERT INTO questions (id, section, prompt, position, scored)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING
	`

	for i, q := range questions {
		if _, err := db.Exec(query, q.id, q.section, q.prompt, i+1, q.scored); err != nil {
			return fmt.Errorf("failed to seed question %s: %w", q.id, err)
		}
	}

	return nil
}
