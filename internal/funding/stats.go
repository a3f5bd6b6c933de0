package funding

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/Dj0083/final-project-sub000/internal/parties"
	"github.com/Dj0083/final-project-sub000/pkg/enums"
	pkgerrors "github.com/Dj0083/final-project-sub000/pkg/errors"
)

// Stats summarizes funding activity from the caller's point of view.
func (s *service) Stats(ctx context.Context, actor parties.Actor) (*Snapshot, error) {
	if err := actor.Require(enums.RoleSeller, enums.RoleInvestor, enums.RoleAdmin); err != nil {
		return nil, err
	}

	var column string
	switch actor.Role {
	case enums.RoleSeller:
		column = "seller_id"
	case enums.RoleInvestor:
		column = "investor_id"
	}
	rows, err := s.repo.Totals(ctx, column, actor.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "aggregate funding requests")
	}

	counts := make(map[enums.FundingStatus]int64, len(rows))
	funded := decimal.Zero
	var total int64
	for _, row := range rows {
		counts[row.Status] = row.Count
		total += row.Count
		if row.Status == enums.FundingStatusFunded {
			funded = funded.Add(row.Funded)
		}
	}
	funded = funded.Round(2)

	snap := &Snapshot{Role: actor.Role, ActiveDeals: counts[enums.FundingStatusFunded]}
	switch actor.Role {
	case enums.RoleInvestor:
		awaiting := counts[enums.FundingStatusApproved]
		snap.TotalInvested = &funded
		snap.AwaitingFunding = &awaiting
	case enums.RoleSeller:
		pending := counts[enums.FundingStatusPending]
		snap.TotalRaised = &funded
		snap.PendingApprovals = &pending
	default:
		pending := counts[enums.FundingStatusPending]
		awaiting := counts[enums.FundingStatusApproved]
		rejected := counts[enums.FundingStatusRejected]
		snap.TotalFunded = &funded
		snap.TotalRequests = &total
		snap.PendingApprovals = &pending
		snap.AwaitingFunding = &awaiting
		snap.RejectedRequests = &rejected
	}
	return snap, nil
}
