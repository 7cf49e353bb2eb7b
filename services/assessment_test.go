package services

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"sync/atomic"
	"testing"
	"time"
)

var errMembersQuery = errors.New("members query failed")

// flakyDriver serves the assessment list once and fails every query
// after it, standing in for a pool losing its connection mid-listing.
type flakyDriver struct{}

var flakyQueryCount int32

func (flakyDriver) Open(name string) (driver.Conn, error) { return &flakyConn{}, nil }

type flakyConn struct{}

func (c *flakyConn) Prepare(query string) (driver.Stmt, error) { return &flakyStmt{}, nil }
func (c *flakyConn) Close() error                              { return nil }
func (c *flakyConn) Begin() (driver.Tx, error)                 { return nil, errors.New("transactions not supported") }

type flakyStmt struct{}

func (s *flakyStmt) Close() error  { return nil }
func (s *flakyStmt) NumInput() int { return -1 }

func (s *flakyStmt) Exec(args []driver.Value) (driver.Result, error) {
	return nil, errors.New("exec not supported")
}

func (s *flakyStmt) Query(args []driver.Value) (driver.Rows, error) {
	if atomic.AddInt32(&flakyQueryCount, 1) == 1 {
		return &singleAssessmentRows{}, nil
	}
	return nil, errMembersQuery
}

type singleAssessmentRows struct{ done bool }

func (r *singleAssessmentRows) Columns() []string {
	return []string{"id", "title", "owner_email", "partner_email", "created_at", "updated_at", "is_owner"}
}

func (r *singleAssessmentRows) Close() error { return nil }

func (r *singleAssessmentRows) Next(dest []driver.Value) error {
	if r.done {
		return io.EOF
	}
	r.done = true
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	dest[0] = "A1"
	dest[1] = "Our Assessment"
	dest[2] = "alex@example.com"
	dest[3] = ""
	dest[4] = now
	dest[5] = now
	dest[6] = true
	return nil
}

func TestListForUserPropagatesMemberErrors(t *testing.T) {
	sql.Register("flaky-assessments", flakyDriver{})
	db, err := sql.Open("flaky-assessments", "")
	if err != nil {
		t.Fatalf("sql.Open error: %v", err)
	}
	defer db.Close()

	svc := NewAssessmentService(db)
	if _, err := svc.ListForUser(context.Background(), "alex@example.com"); !errors.Is(err, errMembersQuery) {
		t.Fatalf("a failed members lookup must surface, got %v", err)
	}
}
