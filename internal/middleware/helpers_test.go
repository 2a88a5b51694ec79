package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	"github.com/bottlecrm/bottlecrm/internal/auth"
	"github.com/bottlecrm/bottlecrm/internal/db/repositories"
)

const (
	testUserID  = "5d0b6a4e-2c1f-4e8a-9b3d-7f6e5d4c3b2a"
	testOrgID   = "9a8b7c6d-5e4f-4a3b-8c2d-1e0f9a8b7c6d"
	otherOrgID  = "1b2c3d4e-5f6a-4b7c-8d9e-0f1a2b3c4d5e"
	testEmail   = "ada@example.com"
	adminDomain = "bottlecrm.io"
)

var (
	userCols   = []string{"id", "email", "name", "profile_photo", "is_active", "last_login", "created_at", "updated_at"}
	memberCols = []string{"organization_id", "user_id", "role", "joined_at"}
	orgCols    = []string{"id", "name", "domain", "description", "is_active", "created_at", "updated_at"}
)

type repos struct {
	users *repositories.UserRepository
	orgs  *repositories.OrganizationRepository
	mock  sqlmock.Sqlmock
}

func newRepos(t *testing.T) repos {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	sdb := sqlx.NewDb(db, "postgres")
	return repos{
		users: repositories.NewUserRepository(sdb),
		orgs:  repositories.NewOrganizationRepository(sdb),
		mock:  mock,
	}
}

func userRow(id, email string, active bool) *sqlmock.Rows {
	return sqlmock.NewRows(userCols).
		AddRow(id, email, "Ada Lovelace", nil, active, nil, time.Now(), time.Now())
}

func memberRow(orgID, role string) *sqlmock.Rows {
	return sqlmock.NewRows(memberCols).AddRow(orgID, testUserID, role, time.Now())
}

func orgRow(id string, active bool) *sqlmock.Rows {
	return sqlmock.NewRows(orgCols).AddRow(id, "Acme", nil, nil, active, time.Now(), time.Now())
}

func (r repos) expectUser(email string) {
	r.mock.ExpectQuery(`FROM users WHERE id = \$1`).
		WithArgs(testUserID).
		WillReturnRows(userRow(testUserID, email, true))
}

func (r repos) expectMembership(orgID, role string) {
	r.mock.ExpectQuery(`FROM organization_members WHERE organization_id = \$1 AND user_id = \$2`).
		WithArgs(orgID, testUserID).
		WillReturnRows(memberRow(orgID, role))
	r.mock.ExpectQuery(`FROM organizations WHERE id = \$1`).
		WithArgs(orgID).
		WillReturnRows(orgRow(orgID, true))
}

func testToken(t *testing.T, userID string) string {
	t.Helper()
	token, err := auth.GenerateJWT(userID, testEmail, time.Hour)
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}
	return token
}

type requestOpts struct {
	method string
	path   string
	token  string
	orgID  string
}

func doRequest(h http.Handler, o requestOpts) *httptest.ResponseRecorder {
	if o.method == "" {
		o.method = http.MethodGet
	}
	if o.path == "" {
		o.path = "/"
	}
	req := httptest.NewRequest(o.method, o.path, nil)
	if o.token != "" {
		req.Header.Set("Authorization", "Bearer "+o.token)
	}
	if o.orgID != "" {
		req.Header.Set(OrganizationHeader, o.orgID)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}
