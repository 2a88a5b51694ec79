package repositories

import (
	"context"
	"fmt"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "postgres"), mock
}

func TestRecordExists(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(`SELECT EXISTS \(SELECT 1 FROM accounts WHERE id = \$1 AND organization_id = \$2\)`).
		WithArgs("acc-1", "org-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := RecordExists(context.Background(), db, "accounts", "org-1", "acc-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Error("expected record to exist")
	}
}

func TestRecordExists_UnknownTable(t *testing.T) {
	db, _ := newMockDB(t)
	if _, err := RecordExists(context.Background(), db, "users; DROP TABLE leads", "org-1", "x"); err == nil {
		t.Error("expected error for unknown table")
	}
}

func TestRecordExists_DBError(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery("SELECT EXISTS").WillReturnError(errDB)

	if _, err := RecordExists(context.Background(), db, "leads", "org-1", "lead-1"); err == nil {
		t.Error("expected error, got nil")
	}
}

func TestIsUniqueViolation(t *testing.T) {
	unique := &pq.Error{Code: "23505"}
	fk := &pq.Error{Code: "23503"}

	if !IsUniqueViolation(unique) {
		t.Error("23505 should be a unique violation")
	}
	if !IsUniqueViolation(fmt.Errorf("failed to create organization: %w", unique)) {
		t.Error("wrapped 23505 should be a unique violation")
	}
	if IsUniqueViolation(fk) {
		t.Error("23503 is not a unique violation")
	}
	if IsUniqueViolation(errDB) {
		t.Error("plain error is not a unique violation")
	}
}

func uniqueViolation() error {
	return &pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"}
}
