package enums

import "fmt"

// ThreadType tags the workflow entity that owns a document or message.
type ThreadType string

const (
	ThreadTypeConnection     ThreadType = "connection"
	ThreadTypePartnerRequest ThreadType = "partner_request"
	ThreadTypeFundingRequest ThreadType = "funding_request"
)

var validThreadTypes = []ThreadType{
	ThreadTypeConnection,
	ThreadTypePartnerRequest,
	ThreadTypeFundingRequest,
}

// String implements fmt.Stringer.
func (t ThreadType) String() string {
	return string(t)
}

// IsValid reports whether the value is a known ThreadType.
func (t ThreadType) IsValid() bool {
	for _, candidate := range validThreadTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseThreadType converts raw input into a ThreadType.
func ParseThreadType(value string) (ThreadType, error) {
	for _, candidate := range validThreadTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid thread type %q", value)
}

// SenderType labels who authored a thread message.
type SenderType string

const (
	SenderTypeVendor    SenderType = "vendor"
	SenderTypeAffiliate SenderType = "affiliate"
	SenderTypeInvestor  SenderType = "investor"
	SenderTypeAdmin     SenderType = "admin"
	SenderTypeSystem    SenderType = "system"
)

// String implements fmt.Stringer.
func (s SenderType) String() string {
	return string(s)
}

// SenderTypeForRole maps an authoring party's role to its sender label.
func SenderTypeForRole(role Role) SenderType {
	switch role {
	case RoleSeller:
		return SenderTypeVendor
	case RoleAffiliate:
		return SenderTypeAffiliate
	case RoleInvestor:
		return SenderTypeInvestor
	case RoleAdmin:
		return SenderTypeAdmin
	default:
		return SenderTypeSystem
	}
}
