// Package seed bootstraps a fresh database with a default organization
// and a standard dunning sequence so the engine is usable immediately.
package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	organizationdomain "github.com/smallbiznis/collecta/internal/organization/domain"
	sequencedomain "github.com/smallbiznis/collecta/internal/sequence/domain"
	"gorm.io/gorm"
)

const (
	defaultOrgName      = "Main"
	defaultOrgSlug      = "main"
	defaultSequenceName = "Standard dunning"
)

// EnsureMainOrg seeds the default organization for startup bootstrap.
func EnsureMainOrg(db *gorm.DB) error {
	return ensureMainOrg(db, 0)
}

// EnsureMainOrgWithID seeds the default organization under a fixed ID so
// DEFAULT_ORG keeps pointing at the same tenant across restarts.
func EnsureMainOrgWithID(db *gorm.DB, orgID int64) error {
	return ensureMainOrg(db, snowflake.ID(orgID))
}

func ensureMainOrg(db *gorm.DB, orgID snowflake.ID) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		org, err := ensureMainOrgTx(ctx, tx, node, orgID)
		if err != nil {
			return err
		}
		return ensureDefaultSequenceTx(ctx, tx, node, org.ID)
	})
}

func ensureMainOrgTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node, orgID snowflake.ID) (organizationdomain.Organization, error) {
	var org organizationdomain.Organization
	err := tx.WithContext(ctx).Where("slug = ?", defaultOrgSlug).First(&org).Error
	if err == nil {
		return org, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return organizationdomain.Organization{}, err
	}

	if orgID == 0 {
		orgID = node.Generate()
	}
	now := time.Now().UTC()
	org = organizationdomain.Organization{
		ID:        orgID,
		Name:      defaultOrgName,
		Slug:      defaultOrgSlug,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := tx.WithContext(ctx).Create(&org).Error; err != nil {
		return organizationdomain.Organization{}, err
	}
	return org, nil
}

// ensureDefaultSequenceTx lays down a four-step dunning ladder: a
// pre-due nudge, an overdue notice, an escalation with interest, and a
// final demand on both channels.
func ensureDefaultSequenceTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node, orgID snowflake.ID) error {
	var existing sequencedomain.Sequence
	err := tx.WithContext(ctx).
		Where("org_id = ? AND name = ?", orgID, defaultSequenceName).
		First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	now := time.Now().UTC()
	seq := sequencedomain.Sequence{
		ID:          node.Generate(),
		OrgID:       orgID,
		Name:        defaultSequenceName,
		Description: "Default reminder ladder applied to new invoices",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := tx.WithContext(ctx).Create(&seq).Error; err != nil {
		return err
	}

	steps := []sequencedomain.Step{
		{
			StepOrder:    1,
			DaysOffset:   -3,
			Channel:      sequencedomain.ChannelEmail,
			EmailSubject: "Invoice {{invoice_number}} is due on {{due_date}}",
			EmailBody: "Hello {{debtor_name}},\n\n" +
				"a friendly reminder that invoice {{invoice_number}} for {{amount}} {{currency}} " +
				"is due on {{due_date}}.\n\nThank you,\n{{company_name}}",
			IncludePaymentLink: true,
		},
		{
			StepOrder:    2,
			DaysOffset:   1,
			Channel:      sequencedomain.ChannelEmail,
			EmailSubject: "Invoice {{invoice_number}} is overdue",
			EmailBody: "Hello {{debtor_name}},\n\n" +
				"invoice {{invoice_number}} for {{amount}} {{currency}} was due on {{due_date}} " +
				"and is now {{days_overdue}} day(s) overdue. Please arrange payment.\n\n{{company_name}}",
			IncludePaymentLink: true,
		},
		{
			StepOrder:    3,
			DaysOffset:   7,
			Channel:      sequencedomain.ChannelEmail,
			EmailSubject: "Second notice: invoice {{invoice_number}}",
			EmailBody: "Hello {{debtor_name}},\n\n" +
				"invoice {{invoice_number}} remains unpaid {{days_overdue}} days past its due date. " +
				"Statutory interest of {{interest_amount}} {{currency}} has accrued; the total now owed is " +
				"{{total_with_interest}} {{currency}}.\n\n{{company_name}}",
			IncludePaymentLink: true,
			IncludeInterest:    true,
		},
		{
			StepOrder:    4,
			DaysOffset:   14,
			Channel:      sequencedomain.ChannelBoth,
			EmailSubject: "Final demand: invoice {{invoice_number}}",
			EmailBody: "Hello {{debtor_name}},\n\n" +
				"this is a final demand for invoice {{invoice_number}}. The amount owed including statutory " +
				"interest is {{total_with_interest}} {{currency}}. Without payment we will hand the claim over " +
				"for collection.\n\n{{company_name}}",
			SMSBody: "Final demand: invoice {{invoice_number}}, {{total_with_interest}} {{currency}} owed " +
				"incl. interest. Please pay immediately. {{company_name}}",
			IncludePaymentLink: true,
			IncludeInterest:    true,
		},
	}
	for i := range steps {
		steps[i].ID = node.Generate()
		steps[i].SequenceID = seq.ID
		steps[i].CreatedAt = now
	}
	return tx.WithContext(ctx).Create(&steps).Error
}
