package enums

import (
	"fmt"
	"strings"
)

// FundingStatus mirrors the funding_status enum in Postgres.
type FundingStatus string

const (
	FundingStatusPending  FundingStatus = "pending"
	FundingStatusApproved FundingStatus = "approved"
	FundingStatusFunded   FundingStatus = "funded"
	FundingStatusRejected FundingStatus = "rejected"
)

var validFundingStatuses = []FundingStatus{
	FundingStatusPending,
	FundingStatusApproved,
	FundingStatusFunded,
	FundingStatusRejected,
}

// String implements fmt.Stringer.
func (s FundingStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known FundingStatus.
func (s FundingStatus) IsValid() bool {
	for _, candidate := range validFundingStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no transition may leave the status.
func (s FundingStatus) IsTerminal() bool {
	return s == FundingStatusFunded || s == FundingStatusRejected
}

// ParseFundingStatus converts raw input into a FundingStatus.
func ParseFundingStatus(value string) (FundingStatus, error) {
	for _, candidate := range validFundingStatuses {
		if string(candidate) == strings.ToLower(strings.TrimSpace(value)) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid funding status %q", value)
}
