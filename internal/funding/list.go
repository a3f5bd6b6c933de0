package funding

import (
	"github.com/shopspring/decimal"

	"github.com/Dj0083/final-project-sub000/pkg/db/models"
	"github.com/Dj0083/final-project-sub000/pkg/enums"
	pkgpagination "github.com/Dj0083/final-project-sub000/pkg/pagination"
)

// CreateInput names the counterparty and amount for a new request.
// Sellers and investors fill in the other side; admins name both.
type CreateInput struct {
	SellerID        uint64
	InvestorID      uint64
	RequestedAmount decimal.Decimal
}

type ListParams struct {
	Status *enums.FundingStatus
	pkgpagination.Params
}

type ListResult struct {
	Items  []models.FundingRequest `json:"items"`
	Cursor string                  `json:"cursor"`
}

type listQuery struct {
	column  string
	partyID uint64
	status  *enums.FundingStatus
	limit   int
	cursor  *pkgpagination.Cursor
}

// Snapshot is the role-scoped funding summary. Fields that do not apply to
// the caller's role are omitted.
type Snapshot struct {
	Role             enums.Role       `json:"role"`
	TotalInvested    *decimal.Decimal `json:"total_invested,omitempty"`
	TotalRaised      *decimal.Decimal `json:"total_raised,omitempty"`
	TotalFunded      *decimal.Decimal `json:"total_funded,omitempty"`
	ActiveDeals      int64            `json:"active_deals"`
	AwaitingFunding  *int64           `json:"awaiting_funding,omitempty"`
	PendingApprovals *int64           `json:"pending_approvals,omitempty"`
	TotalRequests    *int64           `json:"total_requests,omitempty"`
	RejectedRequests *int64           `json:"rejected_requests,omitempty"`
}
