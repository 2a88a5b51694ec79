package repositories

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bottlecrm/bottlecrm/internal/db/models"
)

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

var commentCols = []string{
	"id", "organization_id", "author_id", "author_name", "body",
	"lead_id", "task_id", "account_id", "case_id", "created_at",
}

// ---------------------------------------------------------------------------
// Contacts
// ---------------------------------------------------------------------------

func TestContactEmailExists(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewContactRepository(db)
	mock.ExpectQuery(`SELECT EXISTS \(SELECT 1 FROM contacts WHERE organization_id = \$1 AND lower\(email\) = lower\(\$2\)\)`).
		WithArgs("org-1", "ada@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.EmailExists(context.Background(), "org-1", "ada@example.com")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestContactCreate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewContactRepository(db)
	mock.ExpectExec("INSERT INTO contacts").WillReturnResult(sqlmock.NewResult(0, 1))

	c := &models.Contact{OrganizationID: "org-1", OwnerID: "user-1", FirstName: "Ada", LastName: "Lovelace"}
	require.NoError(t, repo.Create(context.Background(), c))
	assert.NotEmpty(t, c.ID)
}

func TestContactListByAccount(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewContactRepository(db)
	cols := append(append([]string{}, contactCols...), "is_primary", "role")
	mock.ExpectQuery("SELECT c.id.*FROM contacts c.*JOIN account_contact_relationships r").
		WithArgs("acc-1", "org-1").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(
			"contact-1", "org-1", "user-1", "Ada", "Lovelace", nil, nil, nil, nil, nil, time.Now(), time.Now(),
			true, "Primary Contact"))

	contacts, err := repo.ListByAccount(context.Background(), "org-1", "acc-1")
	require.NoError(t, err)
	require.Len(t, contacts, 1)
	assert.True(t, contacts[0].IsPrimary)
	assert.Equal(t, models.PrimaryContactRole, *contacts[0].Role)
}

func TestContactLinkOpportunity(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewContactRepository(db)
	mock.ExpectExec("INSERT INTO contact_opportunities").
		WithArgs("contact-1", "opp-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.LinkOpportunity(context.Background(), "contact-1", "opp-1"))
}

func TestContactList(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewContactRepository(db)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM contacts WHERE organization_id = \$1 AND owner_id = \$2`).
		WithArgs("org-1", "user-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery("SELECT id.*FROM contacts").
		WillReturnRows(sqlmock.NewRows(contactCols))

	contacts, total, err := repo.List(context.Background(), "org-1", ContactFilters{OwnerID: "user-1"}, NewPage(1, 10))
	require.NoError(t, err)
	assert.Equal(t, 0, total)
	assert.Empty(t, contacts)
	assert.NotNil(t, contacts)
}

// ---------------------------------------------------------------------------
// Accounts
// ---------------------------------------------------------------------------

func TestAccountList_ActiveFilter(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAccountRepository(db)
	active := true
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM accounts WHERE organization_id = \$1 AND is_active = \$2`).
		WithArgs("org-1", true).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`SELECT id.*FROM accounts WHERE.*ORDER BY name ASC`).
		WillReturnRows(sqlmock.NewRows(accountCols).
			AddRow("acc-1", "org-1", "user-1", "Acme", nil, nil, nil, nil, true, time.Now(), time.Now()))

	accounts, total, err := repo.List(context.Background(), "org-1", AccountFilters{Active: &active}, NewPage(1, 20))
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, accounts, 1)
	assert.Equal(t, "Acme", accounts[0].Name)
}

func TestAccountGetByID_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAccountRepository(db)
	mock.ExpectQuery("SELECT.*FROM accounts WHERE id").
		WillReturnRows(sqlmock.NewRows(accountCols))

	a, err := repo.GetByID(context.Background(), "org-1", "acc-x")
	require.NoError(t, err)
	assert.Nil(t, a)
}

func TestAccountAddContact(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAccountRepository(db)
	role := models.PrimaryContactRole
	mock.ExpectExec("INSERT INTO account_contact_relationships").
		WithArgs(sqlmock.AnyArg(), "acc-1", "contact-1", true, role, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	rel := &models.AccountContactRelationship{AccountID: "acc-1", ContactID: "contact-1", IsPrimary: true, Role: &role}
	require.NoError(t, repo.AddContact(context.Background(), rel))
	assert.NotEmpty(t, rel.ID)
}

// ---------------------------------------------------------------------------
// Opportunities
// ---------------------------------------------------------------------------

func TestOpportunityCreate_DefaultsStage(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewOpportunityRepository(db)
	mock.ExpectExec("INSERT INTO opportunities").WillReturnResult(sqlmock.NewResult(0, 1))

	o := &models.Opportunity{OrganizationID: "org-1", OwnerID: "user-1", AccountID: "acc-1", Name: "Deal"}
	require.NoError(t, repo.Create(context.Background(), o))
	assert.Equal(t, models.StageProspecting, o.Stage)
}

func TestOpportunityListByAccount(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewOpportunityRepository(db)
	mock.ExpectQuery("SELECT.*FROM opportunities.*WHERE account_id = \\$1 AND organization_id = \\$2").
		WithArgs("acc-1", "org-1").
		WillReturnRows(sqlmock.NewRows(opportunityCols).
			AddRow("opp-1", "org-1", "user-1", "acc-1", "Acme Opportunity", "PROSPECTING", 0.0, nil, time.Now(), nil, time.Now(), time.Now()))

	opps, err := repo.ListByAccount(context.Background(), "org-1", "acc-1")
	require.NoError(t, err)
	require.Len(t, opps, 1)
	assert.Equal(t, 0.0, opps[0].Amount)
}

// ---------------------------------------------------------------------------
// Tasks and cases
// ---------------------------------------------------------------------------

func TestTaskCreate_Defaults(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTaskRepository(db)
	mock.ExpectExec("INSERT INTO tasks").WillReturnResult(sqlmock.NewResult(0, 1))

	task := &models.Task{OrganizationID: "org-1", OwnerID: "user-1", Subject: "Call back"}
	require.NoError(t, repo.Create(context.Background(), task))
	assert.Equal(t, models.TaskStatusNotStarted, task.Status)
	assert.Equal(t, models.PriorityNormal, task.Priority)
}

func TestTaskList_Filters(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTaskRepository(db)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM tasks WHERE organization_id = \$1 AND status = \$2 AND priority = \$3`).
		WithArgs("org-1", "WAITING", "HIGH").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`SELECT id.*FROM tasks.*ORDER BY due_date ASC NULLS LAST`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, _, err := repo.List(context.Background(), "org-1", TaskFilters{Status: "WAITING", Priority: "HIGH"}, NewPage(1, 20))
	require.NoError(t, err)
}

func TestCaseCreate_Defaults(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCaseRepository(db)
	mock.ExpectExec("INSERT INTO cases").WillReturnResult(sqlmock.NewResult(0, 1))

	c := &models.Case{OrganizationID: "org-1", OwnerID: "user-1", AccountID: "acc-1", Subject: "Broken"}
	require.NoError(t, repo.Create(context.Background(), c))
	assert.Equal(t, models.CaseStatusOpen, c.Status)
	assert.Equal(t, models.PriorityNormal, c.Priority)
}

// ---------------------------------------------------------------------------
// Comments
// ---------------------------------------------------------------------------

func TestCommentCreate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCommentRepository(db)
	leadID := "lead-1"
	mock.ExpectExec("INSERT INTO comments").
		WithArgs(sqlmock.AnyArg(), "org-1", "user-1", "Called, no answer", leadID, nil, nil, nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	c := &models.Comment{OrganizationID: "org-1", AuthorID: "user-1", Body: "Called, no answer", LeadID: &leadID}
	require.NoError(t, repo.Create(context.Background(), c))
}

func TestCommentListByLead(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCommentRepository(db)
	mock.ExpectQuery(`SELECT c.id.*FROM comments c.*WHERE c.organization_id = \$1 AND c.lead_id = \$2`).
		WithArgs("org-1", "lead-1").
		WillReturnRows(sqlmock.NewRows(commentCols).
			AddRow("cm-1", "org-1", "user-1", "Alice", "hello", "lead-1", nil, nil, nil, time.Now()))

	comments, err := repo.ListByLead(context.Background(), "org-1", "lead-1")
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, "Alice", comments[0].AuthorName)
}

func TestCommentListByAccount_DBError(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCommentRepository(db)
	mock.ExpectQuery("SELECT c.id").WillReturnError(errDB)

	_, err := repo.ListByAccount(context.Background(), "org-1", "acc-1")
	assert.Error(t, err)
}
