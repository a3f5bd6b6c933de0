package attribution

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Dj0083/final-project-sub000/internal/parties"
	"github.com/Dj0083/final-project-sub000/pkg/enums"
	pkgerrors "github.com/Dj0083/final-project-sub000/pkg/errors"
)

const dashboardMonths = 12

// Dashboard summarizes an affiliate's attribution history.
type Dashboard struct {
	AffiliateID     uint64          `json:"affiliate_id"`
	TotalClicks     int64           `json:"total_clicks"`
	TotalSales      int64           `json:"total_sales"`
	TotalCommission decimal.Decimal `json:"total_commission"`
	Monthly         []MonthlyPoint  `json:"monthly"`
}

// MonthlyPoint is one calendar month of sales.
type MonthlyPoint struct {
	Month      string          `json:"month"`
	Sales      int64           `json:"sales"`
	Amount     decimal.Decimal `json:"amount"`
	Commission decimal.Decimal `json:"commission"`
}

// Dashboard returns totals plus the last twelve calendar months, most recent first.
// Months without sales are reported with zero values.
func (s *service) Dashboard(ctx context.Context, affiliateID uint64) (*Dashboard, error) {
	clicks, err := s.repo.CountClicks(ctx, affiliateID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count clicks")
	}
	sales, err := s.repo.CountSales(ctx, affiliateID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count sales")
	}
	rollup, err := s.repo.FindRollup(ctx, affiliateID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load commission rollup")
	}

	months := monthWindow(s.now().UTC(), dashboardMonths)
	index := make(map[string]int, len(months))
	monthly := make([]MonthlyPoint, len(months))
	for i, start := range months {
		key := start.Format("2006-01")
		index[key] = i
		monthly[i] = MonthlyPoint{Month: key, Amount: decimal.Zero, Commission: decimal.Zero}
	}

	recent, err := s.repo.SalesSince(ctx, affiliateID, months[len(months)-1])
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load recent sales")
	}
	for _, sale := range recent {
		i, ok := index[sale.CreatedAt.UTC().Format("2006-01")]
		if !ok {
			continue
		}
		monthly[i].Sales++
		monthly[i].Amount = monthly[i].Amount.Add(sale.Amount)
		monthly[i].Commission = monthly[i].Commission.Add(sale.Commission)
	}

	total := decimal.Zero
	if rollup != nil {
		total = rollup.TotalEarned
	}
	return &Dashboard{
		AffiliateID:     affiliateID,
		TotalClicks:     clicks,
		TotalSales:      sales,
		TotalCommission: total.Round(2),
		Monthly:         monthly,
	}, nil
}

// MyDashboard resolves the caller's affiliate profile first.
func (s *service) MyDashboard(ctx context.Context, actor parties.Actor) (*Dashboard, error) {
	if err := actor.Require(enums.RoleAffiliate); err != nil {
		return nil, err
	}
	profile, err := s.MyProfile(ctx, actor)
	if err != nil {
		return nil, err
	}
	return s.Dashboard(ctx, profile.ID)
}

// monthWindow returns the first instant of the n most recent calendar months, newest first.
func monthWindow(now time.Time, n int) []time.Time {
	current := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	out := make([]time.Time, n)
	for i := 0; i < n; i++ {
		out[i] = current.AddDate(0, -i, 0)
	}
	return out
}
