package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/bottlecrm/bottlecrm/internal/db"
	"github.com/bottlecrm/bottlecrm/internal/db/models"
	"github.com/bottlecrm/bottlecrm/internal/db/repositories"
	"github.com/bottlecrm/bottlecrm/internal/telemetry"
)

// conversionCloseWindow is how far out the new opportunity's close date is set
const conversionCloseWindow = 30 * 24 * time.Hour

// ConversionResult identifies the records a lead was converted into
type ConversionResult struct {
	ContactID        string `json:"contactId"`
	AccountID        string `json:"accountId"`
	OpportunityID    string `json:"opportunityId"`
	AlreadyConverted bool   `json:"alreadyConverted"`
}

// LeadConverter turns a lead into a contact, an account and an opportunity
type LeadConverter struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewLeadConverter creates a new LeadConverter
func NewLeadConverter(database *sqlx.DB) *LeadConverter {
	return &LeadConverter{db: database, now: time.Now}
}

// Convert converts the lead inside a single transaction. The lead row is locked
// first, so a concurrent conversion of the same lead waits and then sees it as
// converted. Converting an already converted lead returns its existing records.
//
// Errors are ErrNotFound when the lead is not in the organization, otherwise
// they wrap ErrConversionFailed.
func (s *LeadConverter) Convert(ctx context.Context, organizationID, leadID, actingUserID string) (*ConversionResult, error) {
	var result *ConversionResult

	err := db.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		r, err := s.convertTx(ctx, tx, organizationID, leadID, actingUserID)
		result = r
		return err
	})

	switch {
	case errors.Is(err, ErrNotFound):
		telemetry.LeadConversionsTotal.WithLabelValues(telemetry.ConversionNotFound).Inc()
		return nil, ErrNotFound
	case err != nil:
		telemetry.LeadConversionsTotal.WithLabelValues(telemetry.ConversionFailed).Inc()
		return nil, fmt.Errorf("%w: %w", ErrConversionFailed, err)
	case result.AlreadyConverted:
		telemetry.LeadConversionsTotal.WithLabelValues(telemetry.ConversionAlreadyConverted).Inc()
	default:
		telemetry.LeadConversionsTotal.WithLabelValues(telemetry.ConversionConverted).Inc()
		for _, entity := range []string{"contact", "account", "opportunity"} {
			telemetry.RecordsCreatedTotal.WithLabelValues(entity).Inc()
		}
		slog.Info("lead converted",
			"organization_id", organizationID,
			"lead_id", leadID,
			"contact_id", result.ContactID,
			"account_id", result.AccountID,
			"opportunity_id", result.OpportunityID)
	}
	return result, nil
}

func (s *LeadConverter) convertTx(ctx context.Context, tx *sqlx.Tx, organizationID, leadID, actingUserID string) (*ConversionResult, error) {
	leads := repositories.NewLeadRepository(tx)

	lead, err := leads.GetForUpdate(ctx, organizationID, leadID)
	if err != nil {
		return nil, err
	}
	if lead == nil {
		return nil, ErrNotFound
	}
	if lead.Status == models.LeadStatusConverted {
		return &ConversionResult{
			ContactID:        deref(lead.ConvertedContactID),
			AccountID:        deref(lead.ConvertedAccountID),
			OpportunityID:    deref(lead.ConvertedOpportunityID),
			AlreadyConverted: true,
		}, nil
	}

	now := s.now()
	contacts := repositories.NewContactRepository(tx)
	accounts := repositories.NewAccountRepository(tx)
	opportunities := repositories.NewOpportunityRepository(tx)

	email := lead.Email
	contact := &models.Contact{
		OrganizationID: lead.OrganizationID,
		OwnerID:        lead.OwnerID,
		FirstName:      lead.FirstName,
		LastName:       lead.LastName,
		Email:          &email,
		Phone:          lead.Phone,
		Title:          lead.Title,
		Description:    lead.Description,
	}
	if err := contacts.Create(ctx, contact); err != nil {
		return nil, err
	}

	account := &models.Account{
		OrganizationID: lead.OrganizationID,
		OwnerID:        lead.OwnerID,
	}
	displayName := lead.CompanyName()
	if displayName != "" {
		account.Name = displayName
		account.Industry = lead.Industry
	} else {
		displayName = lead.FullName()
		account.Name = displayName + " Account"
	}
	if err := accounts.Create(ctx, account); err != nil {
		return nil, err
	}

	role := models.PrimaryContactRole
	if err := accounts.AddContact(ctx, &models.AccountContactRelationship{
		AccountID: account.ID,
		ContactID: contact.ID,
		IsPrimary: true,
		Role:      &role,
	}); err != nil {
		return nil, err
	}

	closeDate := now.Add(conversionCloseWindow)
	opportunity := &models.Opportunity{
		OrganizationID: lead.OrganizationID,
		OwnerID:        lead.OwnerID,
		AccountID:      account.ID,
		Name:           displayName + " Opportunity",
		Stage:          models.StageProspecting,
		Amount:         0,
		CloseDate:      &closeDate,
	}
	if err := opportunities.Create(ctx, opportunity); err != nil {
		return nil, err
	}
	if err := contacts.LinkOpportunity(ctx, contact.ID, opportunity.ID); err != nil {
		return nil, err
	}

	refs := repositories.ConversionRefs{
		ContactID:     contact.ID,
		AccountID:     account.ID,
		OpportunityID: opportunity.ID,
	}
	if err := leads.MarkConverted(ctx, organizationID, lead.ID, refs, now); err != nil {
		return nil, err
	}

	resourceType := "lead"
	audit := &models.AuditLog{
		UserID:         &actingUserID,
		OrganizationID: &organizationID,
		Action:         "lead.converted",
		ResourceType:   &resourceType,
		ResourceID:     &lead.ID,
		Metadata: map[string]interface{}{
			"contact_id":     contact.ID,
			"account_id":     account.ID,
			"opportunity_id": opportunity.ID,
		},
	}
	if err := repositories.NewAuditRepository(tx).CreateAuditLog(ctx, audit); err != nil {
		return nil, fmt.Errorf("failed to record conversion audit entry: %w", err)
	}

	return &ConversionResult{
		ContactID:     contact.ID,
		AccountID:     account.ID,
		OpportunityID: opportunity.ID,
	}, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
