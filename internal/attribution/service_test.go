package attribution

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/Dj0083/final-project-sub000/internal/parties"
	"github.com/Dj0083/final-project-sub000/pkg/db"
	"github.com/Dj0083/final-project-sub000/pkg/db/dbtest"
	"github.com/Dj0083/final-project-sub000/pkg/db/models"
	"github.com/Dj0083/final-project-sub000/pkg/enums"
	pkgerrors "github.com/Dj0083/final-project-sub000/pkg/errors"
	"github.com/Dj0083/final-project-sub000/pkg/types"
)

type fixture struct {
	client    *db.Client
	repo      *Repository
	svc       *service
	affiliate parties.Actor
	admin     parties.Actor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	client := dbtest.Open(t)
	repo := NewRepository(client.DB())
	svc, err := NewService(repo, client, decimal.RequireFromString("0.15"), nil, nil)
	require.NoError(t, err)
	return &fixture{
		client:    client,
		repo:      repo,
		svc:       svc.(*service),
		affiliate: parties.Actor{ID: dbtest.SeedParty(t, client, enums.RoleAffiliate, "Affiliate"), Role: enums.RoleAffiliate},
		admin:     parties.Actor{ID: dbtest.SeedParty(t, client, enums.RoleAdmin, "Admin"), Role: enums.RoleAdmin},
	}
}

func (f *fixture) approvedProfile(t *testing.T) *models.Affiliate {
	t.Helper()
	ctx := context.Background()
	profile, created, err := f.svc.UpsertProfile(ctx, f.affiliate, ProfileInput{DisplayName: "Ava Deals"})
	require.NoError(t, err)
	require.True(t, created)
	approved, err := f.svc.SetStatus(ctx, f.admin, profile.ID, enums.AffiliateStatusApproved)
	require.NoError(t, err)
	return approved
}

func TestNewServiceRejectsInvalidRate(t *testing.T) {
	client := dbtest.Open(t)
	_, err := NewService(NewRepository(client.DB()), client, decimal.NewFromInt(2), nil, nil)
	require.Error(t, err)
}

func TestCommissionRounding(t *testing.T) {
	rate := decimal.RequireFromString("0.15")
	require.Equal(t, "150.00", Commission(decimal.RequireFromString("1000.00"), rate).StringFixed(2))
	require.Equal(t, "30.02", Commission(decimal.RequireFromString("200.10"), rate).StringFixed(2))
	require.Equal(t, "0.00", Commission(decimal.RequireFromString("0.01"), rate).StringFixed(2))
}

func TestRecordSaleUpdatesRollup(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	profile := f.approvedProfile(t)

	sale, err := f.svc.RecordSale(ctx, SaleInput{ProductID: 9, Code: profile.TrackingCode, Amount: decimal.RequireFromString("1000.00")})
	require.NoError(t, err)
	require.Equal(t, "150.00", sale.Commission.StringFixed(2))
	require.Equal(t, profile.ID, sale.AffiliateID)

	rollup, err := f.repo.FindRollup(ctx, profile.ID)
	require.NoError(t, err)
	require.NotNil(t, rollup)
	require.Equal(t, "150.00", rollup.TotalEarned.StringFixed(2))

	_, err = f.svc.RecordSale(ctx, SaleInput{ProductID: 9, Code: profile.TrackingCode, Amount: decimal.RequireFromString("200.10")})
	require.NoError(t, err)
	rollup, err = f.repo.FindRollup(ctx, profile.ID)
	require.NoError(t, err)
	require.Equal(t, "180.02", rollup.TotalEarned.StringFixed(2))
}

func TestConcurrentSalesAccumulate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	profile := f.approvedProfile(t)

	const workers = 6
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.RecordSale(ctx, SaleInput{ProductID: 1, Code: profile.TrackingCode, Amount: decimal.NewFromInt(100)})
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}

	rollup, err := f.repo.FindRollup(ctx, profile.ID)
	require.NoError(t, err)
	require.Equal(t, "90.00", rollup.TotalEarned.StringFixed(2))
}

func TestUnapprovedCodesAreNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	profile, _, err := f.svc.UpsertProfile(ctx, f.affiliate, ProfileInput{DisplayName: "Pending"})
	require.NoError(t, err)

	err = f.svc.TrackClick(ctx, 3, profile.TrackingCode, "10.0.0.1")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	_, err = f.svc.RecordSale(ctx, SaleInput{ProductID: 3, Code: profile.TrackingCode, Amount: decimal.NewFromInt(10)})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	err = f.svc.TrackClick(ctx, 3, "UNKNOWN", "10.0.0.1")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = f.svc.SetStatus(ctx, f.admin, profile.ID, enums.AffiliateStatusRejected)
	require.NoError(t, err)
	err = f.svc.TrackClick(ctx, 3, profile.TrackingCode, "10.0.0.1")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = f.svc.RecordSale(ctx, SaleInput{ProductID: 3, Code: profile.TrackingCode, Amount: decimal.Zero})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestDashboardGroupsByMonth(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	profile := f.approvedProfile(t)

	clock := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	f.svc.now = func() time.Time { return clock }

	require.NoError(t, f.svc.TrackClick(ctx, 1, profile.TrackingCode, "1.1.1.1"))
	require.NoError(t, f.svc.TrackClick(ctx, 1, profile.TrackingCode, "1.1.1.1"))
	_, err := f.svc.RecordSale(ctx, SaleInput{ProductID: 1, Code: profile.TrackingCode, Amount: decimal.NewFromInt(1000)})
	require.NoError(t, err)

	clock = time.Date(2026, 1, 20, 12, 0, 0, 0, time.UTC)
	_, err = f.svc.RecordSale(ctx, SaleInput{ProductID: 2, Code: profile.TrackingCode, Amount: decimal.NewFromInt(200)})
	require.NoError(t, err)

	clock = time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC)
	_, err = f.svc.RecordSale(ctx, SaleInput{ProductID: 2, Code: profile.TrackingCode, Amount: decimal.NewFromInt(100)})
	require.NoError(t, err)

	clock = time.Date(2026, 3, 31, 23, 0, 0, 0, time.UTC)
	dash, err := f.svc.MyDashboard(ctx, f.affiliate)
	require.NoError(t, err)
	require.Equal(t, int64(2), dash.TotalClicks)
	require.Equal(t, int64(3), dash.TotalSales)
	require.Equal(t, "195.00", dash.TotalCommission.StringFixed(2))

	require.Len(t, dash.Monthly, 12)
	require.Equal(t, "2026-03", dash.Monthly[0].Month)
	require.Equal(t, int64(1), dash.Monthly[0].Sales)
	require.Equal(t, "150.00", dash.Monthly[0].Commission.StringFixed(2))
	require.Equal(t, "2026-02", dash.Monthly[1].Month)
	require.Zero(t, dash.Monthly[1].Sales)
	require.Equal(t, "2026-01", dash.Monthly[2].Month)
	require.Equal(t, "30.00", dash.Monthly[2].Commission.StringFixed(2))
	require.Equal(t, "2025-04", dash.Monthly[11].Month)
	require.Zero(t, dash.Monthly[11].Sales)
}

func TestUpsertProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, _, err := f.svc.UpsertProfile(ctx, f.admin, ProfileInput{DisplayName: "Admin"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	_, _, err = f.svc.UpsertProfile(ctx, f.affiliate, ProfileInput{DisplayName: "  "})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, _, err = f.svc.UpsertProfile(ctx, f.affiliate, ProfileInput{DisplayName: "Ava", SocialLinks: types.SocialLinks{"instagram": "not a url"}})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	created, isNew, err := f.svc.UpsertProfile(ctx, f.affiliate, ProfileInput{
		DisplayName: "Ava",
		SocialLinks: types.SocialLinks{" Instagram ": "https://instagram.com/ava"},
	})
	require.NoError(t, err)
	require.True(t, isNew)
	require.Len(t, created.TrackingCode, trackingCodeLen)
	require.Equal(t, enums.AffiliateStatusPending, created.Status)

	updated, isNew, err := f.svc.UpsertProfile(ctx, f.affiliate, ProfileInput{DisplayName: "Ava Deals"})
	require.NoError(t, err)
	require.False(t, isNew)
	require.Equal(t, created.TrackingCode, updated.TrackingCode)

	loaded, err := f.svc.MyProfile(ctx, f.affiliate)
	require.NoError(t, err)
	require.Equal(t, "Ava Deals", loaded.DisplayName)
	require.Empty(t, loaded.SocialLinks)

	pending := enums.AffiliateStatusPending
	list, err := f.svc.ListProfiles(ctx, f.admin, &pending)
	require.NoError(t, err)
	require.Len(t, list, 1)

	_, err = f.svc.SetStatus(ctx, f.admin, 999, enums.AffiliateStatusApproved)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	_, err = f.svc.SetStatus(ctx, f.admin, created.ID, enums.AffiliateStatusPending)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}
