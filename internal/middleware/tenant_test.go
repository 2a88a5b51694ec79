package middleware

import (
	"errors"
	"net/http"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"

	"github.com/bottlecrm/bottlecrm/internal/auth"
	"github.com/bottlecrm/bottlecrm/internal/db/models"
)

// newGatedRouter mounts the full auth + tenant pipeline with one member route and one
// admin-only route, mirroring how router.go groups tenant-scoped endpoints.
func newGatedRouter(r repos) *gin.Engine {
	e := gin.New()
	api := e.Group("/api", AuthMiddleware(auth.HMACVerifier{}, r.users), RequireOrganization(r.orgs))
	api.GET("/leads", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"organization_id": CurrentOrganizationID(c), "role": CurrentRole(c)})
	})
	api.POST("/organizations/members", RequireRole(models.RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})
	return e
}

// ---------------------------------------------------------------------------
// Auth gate rejection matrix
// ---------------------------------------------------------------------------

func TestGateRejectionMatrix(t *testing.T) {
	t.Run("no authorization header is 401", func(t *testing.T) {
		r := newRepos(t)
		w := doRequest(newGatedRouter(r), requestOpts{path: "/api/leads", orgID: testOrgID})
		if w.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", w.Code)
		}
	})

	t.Run("valid token without organization header is 400", func(t *testing.T) {
		r := newRepos(t)
		r.expectUser(testEmail)
		w := doRequest(newGatedRouter(r), requestOpts{path: "/api/leads", token: testToken(t, testUserID)})
		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})

	t.Run("organization the user does not belong to is 403", func(t *testing.T) {
		r := newRepos(t)
		r.expectUser(testEmail)
		r.mock.ExpectQuery(`FROM organization_members`).
			WithArgs(otherOrgID, testUserID).
			WillReturnRows(sqlmock.NewRows(memberCols))
		w := doRequest(newGatedRouter(r), requestOpts{path: "/api/leads", token: testToken(t, testUserID), orgID: otherOrgID})
		if w.Code != http.StatusForbidden {
			t.Errorf("status = %d, want 403", w.Code)
		}
	})

	t.Run("member hitting an admin route is 403", func(t *testing.T) {
		r := newRepos(t)
		r.expectUser(testEmail)
		r.expectMembership(testOrgID, models.RoleMember)
		w := doRequest(newGatedRouter(r), requestOpts{
			method: http.MethodPost, path: "/api/organizations/members",
			token: testToken(t, testUserID), orgID: testOrgID,
		})
		if w.Code != http.StatusForbidden {
			t.Errorf("status = %d, want 403", w.Code)
		}
	})
}

// ---------------------------------------------------------------------------
// RequireOrganization
// ---------------------------------------------------------------------------

func TestRequireOrganization_Member(t *testing.T) {
	r := newRepos(t)
	r.expectUser(testEmail)
	r.expectMembership(testOrgID, models.RoleMember)

	w := doRequest(newGatedRouter(r), requestOpts{path: "/api/leads", token: testToken(t, testUserID), orgID: testOrgID})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body=%s", w.Code, w.Body.String())
	}
	want := `{"organization_id":"` + testOrgID + `","role":"member"}`
	if w.Body.String() != want {
		t.Errorf("body = %s, want %s", w.Body.String(), want)
	}
	if err := r.mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestRequireOrganization_AdminPassesRoleRequirement(t *testing.T) {
	r := newRepos(t)
	r.expectUser(testEmail)
	r.expectMembership(testOrgID, models.RoleAdmin)

	w := doRequest(newGatedRouter(r), requestOpts{
		method: http.MethodPost, path: "/api/organizations/members",
		token: testToken(t, testUserID), orgID: testOrgID,
	})
	if w.Code != http.StatusCreated {
		t.Errorf("status = %d, want 201", w.Code)
	}
}

func TestRequireOrganization_MalformedIDIsForbidden(t *testing.T) {
	r := newRepos(t)
	r.expectUser(testEmail)

	w := doRequest(newGatedRouter(r), requestOpts{path: "/api/leads", token: testToken(t, testUserID), orgID: "acme"})
	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", w.Code)
	}
	if err := r.mock.ExpectationsWereMet(); err != nil {
		t.Errorf("membership must not be queried for a malformed id: %v", err)
	}
}

func TestRequireOrganization_InactiveOrganization(t *testing.T) {
	r := newRepos(t)
	r.expectUser(testEmail)
	r.mock.ExpectQuery(`FROM organization_members`).WillReturnRows(memberRow(testOrgID, models.RoleAdmin))
	r.mock.ExpectQuery(`FROM organizations WHERE id = \$1`).WillReturnRows(orgRow(testOrgID, false))

	w := doRequest(newGatedRouter(r), requestOpts{path: "/api/leads", token: testToken(t, testUserID), orgID: testOrgID})
	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", w.Code)
	}
}

func TestRequireOrganization_LookupFailure(t *testing.T) {
	r := newRepos(t)
	r.expectUser(testEmail)
	r.mock.ExpectQuery(`FROM organization_members`).WillReturnError(errors.New("timeout"))

	w := doRequest(newGatedRouter(r), requestOpts{path: "/api/leads", token: testToken(t, testUserID), orgID: testOrgID})
	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
}

func TestRequireOrganization_WithoutAuthIs401(t *testing.T) {
	e := gin.New()
	e.GET("/", RequireOrganization(nil), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := doRequest(e, requestOpts{orgID: testOrgID})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

// ---------------------------------------------------------------------------
// RequireRole / RequireSuperAdmin
// ---------------------------------------------------------------------------

func TestRequireRole(t *testing.T) {
	tests := []struct {
		role  string
		roles []string
		want  int
	}{
		{models.RoleAdmin, []string{models.RoleAdmin}, http.StatusOK},
		{models.RoleMember, []string{models.RoleAdmin}, http.StatusForbidden},
		{models.RoleMember, []string{models.RoleAdmin, models.RoleMember}, http.StatusOK},
		{"", []string{models.RoleMember}, http.StatusForbidden},
	}
	for _, tt := range tests {
		e := gin.New()
		e.GET("/", func(c *gin.Context) { c.Set(OrgRoleKey, tt.role) }, RequireRole(tt.roles...),
			func(c *gin.Context) { c.Status(http.StatusOK) })

		if w := doRequest(e, requestOpts{}); w.Code != tt.want {
			t.Errorf("role %q roles %v: status = %d, want %d", tt.role, tt.roles, w.Code, tt.want)
		}
	}
}

func TestRequireSuperAdmin(t *testing.T) {
	tests := []struct {
		name   string
		email  string
		domain string
		want   int
	}{
		{"matching domain", "ops@bottlecrm.io", adminDomain, http.StatusOK},
		{"case insensitive", "Ops@BottleCRM.IO", adminDomain, http.StatusOK},
		{"other domain", "ops@example.com", adminDomain, http.StatusForbidden},
		{"suffix trick", "ops@evilbottlecrm.io", adminDomain, http.StatusForbidden},
		{"no domain configured", "ops@bottlecrm.io", "", http.StatusForbidden},
		{"no identity", "", adminDomain, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := gin.New()
			e.GET("/", func(c *gin.Context) { c.Set(UserEmailKey, tt.email) }, RequireSuperAdmin(tt.domain),
				func(c *gin.Context) { c.Status(http.StatusOK) })

			if w := doRequest(e, requestOpts{}); w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}
