package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
)

var errDB = errors.New("db error")

var userCols = []string{"id", "email", "name", "profile_photo", "is_active", "last_login", "created_at", "updated_at"}

func sampleUserRow() *sqlmock.Rows {
	return sqlmock.NewRows(userCols).
		AddRow("user-1", "alice@example.com", "Alice", nil, true, nil, time.Now(), time.Now())
}

func newUserRepo(t *testing.T) (*UserRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock := newMockDB(t)
	return NewUserRepository(db), mock
}

// ---------------------------------------------------------------------------
// GetUserByID
// ---------------------------------------------------------------------------

func TestGetUserByID_Found(t *testing.T) {
	repo, mock := newUserRepo(t)
	mock.ExpectQuery("SELECT.*FROM users WHERE id").
		WithArgs("user-1").
		WillReturnRows(sampleUserRow())

	user, err := repo.GetUserByID(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user == nil {
		t.Fatal("expected user, got nil")
	}
	if user.Email != "alice@example.com" || !user.IsActive {
		t.Errorf("unexpected user: %+v", user)
	}
}

func TestGetUserByID_NotFound(t *testing.T) {
	repo, mock := newUserRepo(t)
	mock.ExpectQuery("SELECT.*FROM users WHERE id").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(userCols))

	user, err := repo.GetUserByID(context.Background(), "missing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user != nil {
		t.Errorf("expected nil, got %+v", user)
	}
}

func TestGetUserByID_DBError(t *testing.T) {
	repo, mock := newUserRepo(t)
	mock.ExpectQuery("SELECT.*FROM users WHERE id").WillReturnError(errDB)

	if _, err := repo.GetUserByID(context.Background(), "user-1"); err == nil {
		t.Error("expected error, got nil")
	}
}

// ---------------------------------------------------------------------------
// GetUserByEmail
// ---------------------------------------------------------------------------

func TestGetUserByEmail_CaseInsensitive(t *testing.T) {
	repo, mock := newUserRepo(t)
	mock.ExpectQuery(`SELECT.*FROM users WHERE lower\(email\) = lower\(\$1\)`).
		WithArgs("ALICE@example.com").
		WillReturnRows(sampleUserRow())

	user, err := repo.GetUserByEmail(context.Background(), "ALICE@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user == nil || user.ID != "user-1" {
		t.Errorf("unexpected user: %+v", user)
	}
}

// ---------------------------------------------------------------------------
// UpsertByEmail
// ---------------------------------------------------------------------------

func TestUpsertByEmail(t *testing.T) {
	repo, mock := newUserRepo(t)
	photo := "https://example.com/a.png"
	mock.ExpectQuery("INSERT INTO users.*ON CONFLICT \\(email\\) DO UPDATE.*RETURNING").
		WithArgs(sqlmock.AnyArg(), "alice@example.com", "Alice", &photo, sqlmock.AnyArg()).
		WillReturnRows(sampleUserRow())

	user, err := repo.UpsertByEmail(context.Background(), "alice@example.com", "Alice", &photo)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.ID != "user-1" {
		t.Errorf("ID = %s, want user-1", user.ID)
	}
}

func TestUpsertByEmail_DBError(t *testing.T) {
	repo, mock := newUserRepo(t)
	mock.ExpectQuery("INSERT INTO users").WillReturnError(errDB)

	if _, err := repo.UpsertByEmail(context.Background(), "alice@example.com", "Alice", nil); err == nil {
		t.Error("expected error, got nil")
	}
}

// ---------------------------------------------------------------------------
// GetUserWithMemberships
// ---------------------------------------------------------------------------

func TestGetUserWithMemberships(t *testing.T) {
	repo, mock := newUserRepo(t)
	mock.ExpectQuery("SELECT.*FROM users WHERE id").
		WithArgs("user-1").
		WillReturnRows(sampleUserRow())
	mock.ExpectQuery("SELECT m.organization_id.*FROM organization_members m.*JOIN organizations").
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"organization_id", "organization_name", "role", "joined_at"}).
			AddRow("org-1", "Acme", "admin", time.Now()).
			AddRow("org-2", "Globex", "member", time.Now()))

	u, err := repo.GetUserWithMemberships(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(u.Memberships) != 2 {
		t.Fatalf("len(Memberships) = %d, want 2", len(u.Memberships))
	}
	if !u.IsAdminOf("org-1") || u.IsAdminOf("org-2") {
		t.Error("membership roles not mapped correctly")
	}
}

func TestGetUserWithMemberships_UnknownUser(t *testing.T) {
	repo, mock := newUserRepo(t)
	mock.ExpectQuery("SELECT.*FROM users WHERE id").
		WillReturnRows(sqlmock.NewRows(userCols))

	u, err := repo.GetUserWithMemberships(context.Background(), "missing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u != nil {
		t.Errorf("expected nil, got %+v", u)
	}
}

func TestCountUsers(t *testing.T) {
	repo, mock := newUserRepo(t)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM users`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	n, err := repo.CountUsers(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 7 {
		t.Errorf("CountUsers() = %d, want 7", n)
	}
}
