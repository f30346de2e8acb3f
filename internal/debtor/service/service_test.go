package service

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/collecta/internal/debtor/domain"
	"github.com/smallbiznis/collecta/internal/debtor/repository"
	"github.com/smallbiznis/collecta/internal/orgcontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const testOrgID = snowflake.ID(1)

func newDebtorService(t *testing.T) domain.Service {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Debtor{}))

	node, err := snowflake.NewNode(5)
	require.NoError(t, err)

	return New(Params{DB: db, Log: zap.NewNop(), GenID: node}, repository.Provide())
}

func testCtx() context.Context {
	return orgcontext.WithOrgID(context.Background(), int64(testOrgID))
}

func TestCreateAndGet(t *testing.T) {
	svc := newDebtorService(t)

	created, err := svc.Create(testCtx(), domain.CreateDebtorRequest{
		Name:        "  Jan Kowalski  ",
		CompanyName: "Kowalski Sp. z o.o.",
		Email:       "jan@example.com",
		Phone:       " +48600700800 ",
	})
	require.NoError(t, err)
	assert.Equal(t, "Jan Kowalski", created.Name)
	assert.Equal(t, "+48600700800", created.Phone)

	got, err := svc.GetByID(testCtx(), created.ID.String())
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "jan@example.com", got.Email)
}

func TestCreate_RequiresName(t *testing.T) {
	svc := newDebtorService(t)

	_, err := svc.Create(testCtx(), domain.CreateDebtorRequest{Name: "   "})
	assert.ErrorIs(t, err, domain.ErrInvalidName)
}

func TestCreate_RequiresOrgContext(t *testing.T) {
	svc := newDebtorService(t)

	_, err := svc.Create(context.Background(), domain.CreateDebtorRequest{Name: "Jan"})
	assert.ErrorIs(t, err, domain.ErrInvalidOrganization)
}

func TestGetByID_OtherOrgHidden(t *testing.T) {
	svc := newDebtorService(t)

	created, err := svc.Create(testCtx(), domain.CreateDebtorRequest{Name: "Jan"})
	require.NoError(t, err)

	otherOrg := orgcontext.WithOrgID(context.Background(), 99)
	_, err = svc.GetByID(otherOrg, created.ID.String())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
