package enums

import (
	"fmt"
	"strings"
)

// DocType names the category of an uploaded thread document.
type DocType string

const (
	DocTypeFinalAgreement DocType = "final_agreement"
	DocTypePaymentSlip    DocType = "payment_slip"
	DocTypeFlyer          DocType = "flyer"
	DocTypeAgreement      DocType = "agreement"
	DocTypeIntro          DocType = "intro"
	DocTypePitch          DocType = "pitch"
	DocTypeOther          DocType = "other"
)

var validDocTypes = []DocType{
	DocTypeFinalAgreement,
	DocTypePaymentSlip,
	DocTypeFlyer,
	DocTypeAgreement,
	DocTypeIntro,
	DocTypePitch,
	DocTypeOther,
}

// String implements fmt.Stringer.
func (d DocType) String() string {
	return string(d)
}

// IsValid reports whether the value is a known DocType.
func (d DocType) IsValid() bool {
	for _, candidate := range validDocTypes {
		if candidate == d {
			return true
		}
	}
	return false
}

// IsSingleton reports whether only one document of this type may exist per thread.
func (d DocType) IsSingleton() bool {
	return d == DocTypeFinalAgreement || d == DocTypePaymentSlip
}

// ParseDocType lower-cases raw input and converts it into a DocType.
func ParseDocType(value string) (DocType, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validDocTypes {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid document type %q", value)
}
