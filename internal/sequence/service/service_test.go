package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/collecta/internal/clock"
	"github.com/smallbiznis/collecta/internal/orgcontext"
	"github.com/smallbiznis/collecta/internal/sequence/domain"
	"github.com/smallbiznis/collecta/internal/sequence/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const testOrgID = snowflake.ID(1)

var testNow = time.Date(2026, 3, 20, 10, 0, 0, 0, time.UTC)

func newSequenceService(t *testing.T) domain.Service {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Sequence{}, &domain.Step{}))

	node, err := snowflake.NewNode(4)
	require.NoError(t, err)

	return New(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clock.NewFakeClock(testNow),
		Repo:  repository.Provide(),
	})
}

func testCtx() context.Context {
	return orgcontext.WithOrgID(context.Background(), int64(testOrgID))
}

func dunningRequest() domain.CreateSequenceRequest {
	return domain.CreateSequenceRequest{
		Name: "Standard dunning",
		Steps: []domain.CreateStepRequest{
			{DaysOffset: -3, Channel: domain.ChannelEmail,
				EmailSubject: "Upcoming invoice {{invoice_number}}",
				EmailBody:    "{{amount}} {{currency}} is due {{due_date}}."},
			{DaysOffset: 7, Channel: domain.ChannelBoth,
				EmailSubject: "Final demand", EmailBody: "Pay now.",
				SMSBody: "Pay {{amount}} now.", IncludeInterest: true},
		},
	}
}

func TestCreate_AssignsStepOrder(t *testing.T) {
	svc := newSequenceService(t)

	seq, err := svc.Create(testCtx(), dunningRequest())
	require.NoError(t, err)
	require.Len(t, seq.Steps, 2)
	assert.Equal(t, 1, seq.Steps[0].StepOrder)
	assert.Equal(t, 2, seq.Steps[1].StepOrder)
	assert.Equal(t, -3, seq.Steps[0].DaysOffset)
	assert.Equal(t, testNow, seq.CreatedAt)

	got, err := svc.GetByID(testCtx(), seq.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "Standard dunning", got.Name)
	require.Len(t, got.Steps, 2)
	assert.Equal(t, domain.ChannelBoth, got.Steps[1].Channel)
	assert.True(t, got.Steps[1].IncludeInterest)
}

func TestCreate_Validation(t *testing.T) {
	svc := newSequenceService(t)

	tests := []struct {
		name    string
		mutate  func(*domain.CreateSequenceRequest)
		wantErr error
	}{
		{"blank name", func(r *domain.CreateSequenceRequest) { r.Name = "  " }, domain.ErrInvalidName},
		{"no steps", func(r *domain.CreateSequenceRequest) { r.Steps = nil }, domain.ErrInvalidTemplate},
		{"bad channel", func(r *domain.CreateSequenceRequest) { r.Steps[0].Channel = "fax" }, domain.ErrInvalidChannel},
		{"email step without body", func(r *domain.CreateSequenceRequest) { r.Steps[0].EmailBody = "" }, domain.ErrInvalidTemplate},
		{"both step without sms body", func(r *domain.CreateSequenceRequest) { r.Steps[1].SMSBody = "" }, domain.ErrInvalidTemplate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := dunningRequest()
			tt.mutate(&req)
			_, err := svc.Create(testCtx(), req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestGetByID_Missing(t *testing.T) {
	svc := newSequenceService(t)

	_, err := svc.GetByID(testCtx(), "424242")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.GetByID(testCtx(), "not-a-number")
	assert.ErrorIs(t, err, domain.ErrInvalidID)
}

func TestList_ScopedToOrganization(t *testing.T) {
	svc := newSequenceService(t)

	_, err := svc.Create(testCtx(), dunningRequest())
	require.NoError(t, err)

	mine, err := svc.List(testCtx())
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	otherOrg := orgcontext.WithOrgID(context.Background(), 99)
	theirs, err := svc.List(otherOrg)
	require.NoError(t, err)
	assert.Empty(t, theirs)
}
