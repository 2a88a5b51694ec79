package crm

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/bottlecrm/bottlecrm/internal/middleware"
)

const (
	testOrgID     = "6f1c2b9e-4a7d-4c1e-9b2f-0a1b2c3d4e5f"
	testUserID    = "0b6a4c1d-2e3f-4a5b-8c7d-9e0f1a2b3c4d"
	testLeadID    = "a1b2c3d4-e5f6-4a7b-8c9d-0e1f2a3b4c5d"
	testAccountID = "b2c3d4e5-f6a7-4b8c-9d0e-1f2a3b4c5d6e"
	testContactID = "c3d4e5f6-a7b8-4c9d-8e1f-2a3b4c5d6e7f"
	testOppID     = "d4e5f6a7-b8c9-4d0e-9f2a-3b4c5d6e7f80"
)

var fixedTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// ---------------------------------------------------------------------------
// Column sets
// ---------------------------------------------------------------------------

var leadCols = []string{
	"id", "organization_id", "owner_id", "first_name", "last_name", "email", "phone", "company",
	"title", "industry", "source", "description", "status", "is_converted", "converted_at",
	"converted_contact_id", "converted_account_id", "converted_opportunity_id", "contact_id",
	"created_at", "updated_at",
}

var commentCols = []string{
	"id", "organization_id", "author_id", "author_name", "body",
	"lead_id", "task_id", "account_id", "case_id", "created_at",
}

var contactCols = []string{
	"id", "organization_id", "owner_id", "first_name", "last_name", "email", "phone", "title",
	"department", "description", "created_at", "updated_at",
}

var accountCols = []string{
	"id", "organization_id", "owner_id", "name", "industry", "website", "phone", "description",
	"is_active", "created_at", "updated_at",
}

var opportunityCols = []string{
	"id", "organization_id", "owner_id", "account_id", "name", "stage", "amount", "probability",
	"close_date", "description", "created_at", "updated_at",
}

// ---------------------------------------------------------------------------
// Row builders
// ---------------------------------------------------------------------------

func leadRow(status string, converted bool) *sqlmock.Rows {
	var convertedAt, contactID, accountID, oppID interface{}
	if converted {
		convertedAt, contactID, accountID, oppID = fixedTime, testContactID, testAccountID, testOppID
	}
	return sqlmock.NewRows(leadCols).AddRow(
		testLeadID, testOrgID, testUserID, "Ada", "Lovelace", "ada@example.com", nil, "Analytical Engines",
		nil, nil, nil, nil, status, converted, convertedAt,
		contactID, accountID, oppID, contactID,
		fixedTime, fixedTime,
	)
}

func accountRow() *sqlmock.Rows {
	return sqlmock.NewRows(accountCols).AddRow(
		testAccountID, testOrgID, testUserID, "Analytical Engines", "Computing", "https://engines.example", nil, nil,
		true, fixedTime, fixedTime,
	)
}

// ---------------------------------------------------------------------------
// Router helpers
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

// tenantRouter returns an engine whose requests already carry the identity and
// organization the auth and tenant middleware would have resolved.
func tenantRouter() *gin.Engine {
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(middleware.UserIDKey, testUserID)
		c.Set(middleware.OrganizationIDKey, testOrgID)
		c.Set(middleware.OrgRoleKey, "ADMIN")
		c.Next()
	})
	return r
}

func doJSON(r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		_ = json.NewEncoder(&buf).Encode(b)
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
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

func assertField(t *testing.T, w *httptest.ResponseRecorder, field string) {
	t.Helper()
	assertStatus(t, w, http.StatusBadRequest)
	if got := decode(t, w)["field"]; got != field {
		t.Errorf("field = %v, want %q (body: %s)", got, field, w.Body.String())
	}
}

func assertExpectations(t *testing.T, mock sqlmock.Sqlmock) {
	t.Helper()
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}
