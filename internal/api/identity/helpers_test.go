package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/bottlecrm/bottlecrm/internal/auth/oidc"
)

const (
	testUserID  = "0b6a4c1d-2e3f-4a5b-8c7d-9e0f1a2b3c4d"
	otherUserID = "1c7b5d2e-3f40-4b6c-9d8e-0f1a2b3c4d5e"
	testOrgID   = "6f1c2b9e-4a7d-4c1e-9b2f-0a1b2c3d4e5f"
	testEmail   = "ada@example.com"
)

var fixedTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

var userCols = []string{"id", "email", "name", "profile_photo", "is_active", "last_login", "created_at", "updated_at"}

var memberCols = []string{"organization_id", "user_id", "role", "joined_at"}

func userRow(id, email string, active bool) *sqlmock.Rows {
	return sqlmock.NewRows(userCols).AddRow(id, email, "Ada Lovelace", nil, active, fixedTime, fixedTime, fixedTime)
}

// ---------------------------------------------------------------------------
// Google stub
// ---------------------------------------------------------------------------

type stubGoogle struct {
	user        *oidc.GoogleUser
	authErr     error
	exchangeErr error
	gotToken    string
	gotCode     string
}

func (s *stubGoogle) GetAuthURL(state string) string {
	return "https://accounts.google.com/o/oauth2/auth?state=" + state
}

func (s *stubGoogle) ExchangeCode(_ context.Context, code string) (string, error) {
	s.gotCode = code
	if s.exchangeErr != nil {
		return "", s.exchangeErr
	}
	return "raw-id-token-for-" + code, nil
}

func (s *stubGoogle) Authenticate(_ context.Context, raw string) (*oidc.GoogleUser, error) {
	s.gotToken = raw
	if s.authErr != nil {
		return nil, s.authErr
	}
	if s.user == nil {
		return nil, errors.New("no user configured")
	}
	return s.user, nil
}

// ---------------------------------------------------------------------------
// HTTP helpers
// ---------------------------------------------------------------------------

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "postgres"), mock
}

func doJSON(r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("response is not a JSON object: %v (%s)", err, w.Body.String())
	}
	return out
}

func assertStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("status = %d, want %d (body: %s)", w.Code, want, w.Body.String())
	}
}
